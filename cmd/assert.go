// File: cmd/assert.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/assertion"
	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/runner"
)

// loadAssertions reads the --assert file. It returns nil when the flag is unset.
func loadAssertions(cmd *cobra.Command) ([]assertion.Assertion, error) {
	path, err := cmd.Flags().GetString("assert")
	if err != nil || path == "" {
		return nil, err
	}
	return assertion.LoadFile(path)
}

// checkAssertions evaluates assertions against the last page of the run.
// It returns nil when there is nothing to check.
func checkAssertions(res *runner.Result, assertions []assertion.Assertion) *assertion.Report {
	if res == nil || len(assertions) == 0 {
		return nil
	}
	report := assertion.Evaluate(res.Final, assertions)
	logger := observability.GetLogger()
	for _, r := range report.Results {
		if !r.Passed {
			logger.Warn("Assertion failed",
				zap.String("type", string(r.Assertion.Type)),
				zap.String("message", r.Message),
				zap.String("actual", r.Actual),
			)
		}
	}
	return report
}
