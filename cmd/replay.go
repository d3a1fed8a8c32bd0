// File: cmd/replay.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/runner"
	"github.com/xkilldash9x/uipilot/internal/snapshot"
	"github.com/xkilldash9x/uipilot/internal/trace"
)

func newReplayCmd() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay <snapshot>...",
		Short: "Run the agent over recorded snapshots without executing actions",
		Long: `Replay feeds .html, .yaml or .json snapshots to the agent in order.
Decided actions are logged and never executed. The run ends when the
snapshots run out or the iteration budget is spent. With --assert the
last snapshot is checked and any failed assertion fails the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			assertions, err := loadAssertions(cmd)
			if err != nil {
				return err
			}

			policy, err := buildPolicy(cfg, logger)
			if err != nil {
				return err
			}

			tracer := trace.NewLogger(cfg.Trace, logger)
			defer tracer.Close()

			a := agent.New(policy, tracer, logger)
			seq := snapshot.NewSequence(args...)
			r := runner.New(a, seq, runner.NewDryRunExecutor(logger), tracer, cfg.Agent, logger)

			res, err := r.Run(cmd.Context())
			if res == nil {
				return err
			}
			logger.Info("Replay finished",
				zap.String("run_id", res.RunID),
				zap.Int("iterations", res.Iterations),
				zap.Int("actions", len(res.Actions)),
				zap.Int("unread_snapshots", seq.Remaining()),
			)
			report := checkAssertions(res, assertions)
			if printErr := printSummary(cmd.OutOrStdout(), res, report); printErr != nil {
				return printErr
			}
			if err == nil && report != nil {
				err = report.Err()
			}
			return err
		},
	}

	return replayCmd
}
