// internal/runner/runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/snapshot"
	"github.com/xkilldash9x/uipilot/internal/state"
)

// Observer produces the next snapshot of the application under test.
// Returning io.EOF ends the run normally.
type Observer interface {
	Observe(ctx context.Context) (*snapshot.Snapshot, error)
}

// Executor carries out an action against the current screen.
type Executor interface {
	Execute(ctx context.Context, action agent.Action, screen *state.ScreenState) error
}

// runIDSetter is implemented by tracers that stamp events with the run id.
type runIDSetter interface {
	SetRunID(runID string)
}

// Result summarizes a finished run.
type Result struct {
	RunID      string            `json:"run_id"`
	Iterations int               `json:"iterations"`
	Actions    []agent.Action    `json:"actions"`
	LastSignal *canonical.Signal `json:"last_signal,omitempty"`
	Errors     int               `json:"errors"`

	// Final is the last snapshot observed successfully.
	Final *snapshot.Snapshot `json:"-"`
}

// Runner drives an agent through observe, decide and execute cycles.
type Runner struct {
	agent    *agent.Agent
	observer Observer
	executor Executor
	tracer   agent.Tracer
	cfg      config.AgentConfig
	logger   *zap.Logger
}

// New wires a runner. tracer may be nil; when it accepts a run id it is
// stamped at the start of each run.
func New(a *agent.Agent, observer Observer, executor Executor, tracer agent.Tracer, cfg config.AgentConfig, logger *zap.Logger) *Runner {
	return &Runner{
		agent:    a,
		observer: observer,
		executor: executor,
		tracer:   tracer,
		cfg:      cfg,
		logger:   logger.Named("runner"),
	}
}

// Run observes the initial screen and iterates until the iteration budget
// is spent or the observer runs dry. Execution errors are counted and the
// loop carries on. Only context cancellation aborts the run early.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	if s, ok := r.tracer.(runIDSetter); ok {
		s.SetRunID(res.RunID)
	}
	logger := r.logger.With(zap.String("run_id", res.RunID))

	snap, err := r.observer.Observe(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial observation failed: %w", err)
	}
	res.Final = snap
	screenState, current := build(snap)
	diff := canonical.SemanticDiff(canonical.Empty(), current, true)
	logger.Info("Run started", zap.String("url", screenState.URL), zap.Stringers("signals", diff.Signals))

	for res.Iterations < r.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return r.finish(res), err
		}
		res.Iterations++

		agent.EmitObservedActions(diff, r.agent.Memory())
		if action := r.cycle(ctx, screenState, diff); action != nil {
			res.Actions = append(res.Actions, *action)
			if err := r.executor.Execute(ctx, *action, screenState); err != nil {
				if ctx.Err() != nil {
					return r.finish(res), ctx.Err()
				}
				res.Errors++
				logger.Warn("Action failed", zap.Stringer("action", action), zap.Error(err))
			}
		}

		snap, err := r.observer.Observe(ctx)
		if errors.Is(err, io.EOF) {
			logger.Info("Observer exhausted", zap.Int("iteration", res.Iterations))
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return r.finish(res), ctx.Err()
			}
			res.Errors++
			logger.Warn("Observation failed, keeping previous screen", zap.Error(err))
			diff = &canonical.SemanticStateDiff{}
			continue
		}

		res.Final = snap
		previous := current
		screenState, current = build(snap)
		diff = canonical.SemanticDiff(previous, current, false)
		logger.Debug("Screen diffed",
			zap.Int("iteration", res.Iterations),
			zap.String("url", screenState.URL),
			zap.Stringers("signals", diff.Signals))
	}

	r.agent.Stop()
	r.agent.Step(ctx, screenState, diff)
	r.finish(res)
	logger.Info("Run finished",
		zap.Int("iterations", res.Iterations),
		zap.Int("actions", len(res.Actions)),
		zap.Int("errors", res.Errors))
	return res, nil
}

// cycle steps the agent on one observation until it hands back an action,
// falls back to Observe after evaluating, or stops.
func (r *Runner) cycle(ctx context.Context, screenState *state.ScreenState, diff *canonical.SemanticStateDiff) *agent.Action {
	left := false
	for i := 0; i < r.cfg.MaxStepsPerObservation; i++ {
		before := r.agent.State()
		if before == agent.StateStop {
			return nil
		}
		if before == agent.StateObserve {
			left = true
		}
		if action := r.agent.Step(ctx, screenState, diff); action != nil {
			return action
		}
		if left && r.agent.State() == agent.StateObserve {
			return nil
		}
	}
	return nil
}

func (r *Runner) finish(res *Result) *Result {
	if sig := r.agent.Memory().LastSignal; sig != nil {
		last := *sig
		res.LastSignal = &last
	}
	return res
}

func build(snap *snapshot.Snapshot) (*state.ScreenState, *canonical.CanonicalScreenState) {
	st := state.BuildState(snap.URL, snap.Title, screen.Classify(snap.Elements))
	return st, canonical.Canonicalize(st)
}

// DryRunExecutor logs actions without performing them.
type DryRunExecutor struct {
	logger *zap.Logger
}

func NewDryRunExecutor(logger *zap.Logger) *DryRunExecutor {
	return &DryRunExecutor{logger: logger.Named("dry_run")}
}

func (d *DryRunExecutor) Execute(_ context.Context, action agent.Action, screen *state.ScreenState) error {
	if screen == nil || screen.URL == "" {
		return agent.NewMissingStateError("No URL in screen state")
	}
	d.logger.Info("Skipping execution", zap.Stringer("action", action), zap.String("url", screen.URL))
	return nil
}
