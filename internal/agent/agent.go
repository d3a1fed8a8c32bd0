// File: internal/agent/agent.go
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/state"
	"github.com/xkilldash9x/uipilot/internal/trace"
)

// Agent is the observe/evaluate/think/act state machine. It never executes
// actions itself: Step hands at most one action back to the caller.
// An Agent is not safe for concurrent use.
type Agent struct {
	state  State
	memory *Memory
	step   uint64
	policy Policy
	tracer Tracer
	logger *zap.Logger
}

// New creates an agent in the Observe state with fresh memory. A nil tracer
// discards events.
func New(policy Policy, tracer Tracer, logger *zap.Logger) *Agent {
	if tracer == nil {
		tracer = trace.Nop()
	}
	return &Agent{
		state:  StateObserve,
		memory: NewMemory(),
		policy: policy,
		tracer: tracer,
		logger: logger.Named("agent"),
	}
}

func (a *Agent) State() State { return a.state }

func (a *Agent) Memory() *Memory { return a.memory }

// StepCount is the number of Step calls so far.
func (a *Agent) StepCount() uint64 { return a.step }

// Stop moves the agent to its terminal state.
func (a *Agent) Stop() {
	a.setState(StateStop)
}

// Step advances the machine by one state using the latest diff. It returns
// the gated action when the Think state produced one.
func (a *Agent) Step(ctx context.Context, screen *state.ScreenState, diff *canonical.SemanticStateDiff) *Action {
	signals := signalNames(diff)
	event := trace.NewEvent(a.step, string(a.state), signals)
	a.step++
	observability.RecordStep(string(a.state))

	switch a.state {
	case StateObserve:
		a.setState(StateEvaluate)
		a.tracer.Record(event.WithDecision("observe"))
		return nil

	case StateEvaluate:
		if diff == nil || len(diff.Signals) == 0 {
			a.memory.LoopCount++
			a.memory.LoopBudget = saturatingDec(a.memory.LoopBudget)
			a.tracer.Record(event.WithDecision("no_signals").WithSuppression("no_progress"))
			a.setState(StateObserve)
			return nil
		}

		a.memory.LoopCount = 0
		a.memory.LoopBudget = EvaluateLoopBudget
		last, _ := diff.LastSignal()
		a.memory.LastSignal = &last
		for _, sig := range diff.Signals {
			observability.RecordSignal(string(sig.Kind))
		}
		a.tracer.Record(event.WithDecision("signals_detected"))
		a.setState(StateThink)
		return nil

	case StateThink:
		return a.think(ctx, screen, diff, event)

	case StateAct:
		a.tracer.Record(event.WithDecision("executed"))
		a.setState(StateObserve)
		return nil

	default:
		a.tracer.Record(event.WithDecision("stop"))
		return nil
	}
}

func (a *Agent) think(ctx context.Context, screen *state.ScreenState, diff *canonical.SemanticStateDiff, event trace.Event) *Action {
	start := time.Now()
	decision := a.policy.Decide(ctx, screen, diff, a.memory)
	observability.ObservePolicyLatency(policyName(a.policy), time.Since(start).Seconds())

	if decision == nil {
		decision = &Decision{Type: DecisionWait, Confidence: 0}
	}
	event = event.WithDecision(string(decision.Type)).WithConfidence(decision.Confidence)

	action, reason := GateDecision(*decision, a.memory)
	if action != nil {
		observability.RecordGateOutcome("allowed")
		a.logger.Debug("Action allowed",
			zap.Stringer("action", action),
			zap.Float64("confidence", decision.Confidence),
			zap.Int("think_budget", a.memory.ThinkBudget))
		a.tracer.Record(event.WithAction(action.String()))
		a.setState(StateAct)
		return action
	}

	observability.RecordGateOutcome(string(reason))
	fields := []zap.Field{zap.String("reason", string(reason)), zap.Float64("confidence", decision.Confidence)}
	if decision.Action != nil {
		fields = append(fields, zap.Stringer("proposed", decision.Action))
	}
	a.logger.Info("Decision gated", fields...)
	a.tracer.Record(event.WithSuppression("gated:" + string(reason)))
	a.setState(StateObserve)
	return nil
}

// setState logs and applies a transition. Stop is never left.
func (a *Agent) setState(next State) {
	if a.state == next {
		return
	}
	if a.state == StateStop {
		a.logger.Warn("Attempted to leave the Stop state. Ignoring.", zap.String("attempted_state", string(next)))
		return
	}
	a.logger.Debug("Agent state transition", zap.String("from", string(a.state)), zap.String("to", string(next)))
	a.state = next
}

// EmitObservedActions records every FormSubmitted signal of diff as the
// confirmed action and clears the attempt and loop counters.
func EmitObservedActions(diff *canonical.SemanticStateDiff, m *Memory) {
	if diff == nil {
		return
	}
	for _, sig := range diff.Signals {
		if sig.Kind != canonical.KindFormSubmitted {
			continue
		}
		confirmed := FormSubmitted(sig.FormID)
		m.LastConfirmedAction = &confirmed
		m.AttemptCount = 0
		m.LoopCount = 0
	}
}

func signalNames(diff *canonical.SemanticStateDiff) []string {
	if diff == nil {
		return []string{}
	}
	names := make([]string, len(diff.Signals))
	for i, sig := range diff.Signals {
		names[i] = sig.String()
	}
	return names
}

// namedPolicy is implemented by policies that report a metrics label.
type namedPolicy interface {
	Name() string
}

func policyName(p Policy) string {
	if n, ok := p.(namedPolicy); ok {
		return n.Name()
	}
	return "custom"
}
