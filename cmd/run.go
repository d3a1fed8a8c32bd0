// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/assertion"
	"github.com/xkilldash9x/uipilot/internal/browser"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/runner"
	"github.com/xkilldash9x/uipilot/internal/trace"
)

const metricsShutdownTimeout = 5 * time.Second

func newRunCmd(v *viper.Viper) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Run the agent against a live page in Chrome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Enabled = true
			}
			assertions, err := loadAssertions(cmd)
			if err != nil {
				return err
			}
			return runLive(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], assertions)
		},
	}

	runCmd.Flags().Bool("headless", true, "run Chrome without a window")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	_ = v.BindPFlag("browser.headless", runCmd.Flags().Lookup("headless"))
	_ = v.BindPFlag("metrics.addr", runCmd.Flags().Lookup("metrics-addr"))

	return runCmd
}

func runLive(ctx context.Context, out io.Writer, cfg *config.Config, url string, assertions []assertion.Assertion) error {
	logger := observability.GetLogger()

	policy, err := buildPolicy(cfg, logger)
	if err != nil {
		return err
	}

	tracer := trace.NewLogger(cfg.Trace, logger)
	defer tracer.Close()

	session, err := browser.NewSession(ctx, cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, url); err != nil {
		return err
	}

	a := agent.New(policy, tracer, logger)
	executor := agent.NewExecutor(session, cfg.Browser.WaitDuration, logger)
	r := runner.New(a, session, executor, tracer, cfg.Agent, logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(runCtx)

	var result *runner.Result
	g.Go(func() error {
		// The metrics server lives only as long as the run.
		defer cancel()
		res, err := r.Run(gCtx)
		result = res
		return err
	})

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux()}
		g.Go(func() error {
			logger.Info("Serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if result == nil {
		return err
	}
	report := checkAssertions(result, assertions)
	if printErr := printSummary(out, result, report); printErr != nil {
		logger.Warn("Failed to print run summary", zap.Error(printErr))
	}
	if err == nil && report != nil {
		err = report.Err()
	}
	return err
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// summary is the printed outcome of a run.
type summary struct {
	runner.Result
	Assertions *assertion.Report `json:"assertions,omitempty"`
}

// printSummary writes the run result, and the assertion report if any, as
// indented JSON.
func printSummary(w io.Writer, res *runner.Result, report *assertion.Report) error {
	data, err := json.MarshalIndent(summary{Result: *res, Assertions: report}, "", "  ")
	if err != nil {
		return agent.NewJSONSerializeError("run summary", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
