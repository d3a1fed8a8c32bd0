// File: internal/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// gateDecisions counts gate results by outcome ("allowed" or a block reason).
	gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uipilot_gate_decisions_total",
		Help: "Gate decisions by outcome",
	}, []string{"outcome"})

	// signalsObserved counts derived diff signals by kind.
	signalsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uipilot_signals_total",
		Help: "Semantic signals observed by kind",
	}, []string{"signal"})

	// agentSteps counts agent steps by the state they started in.
	agentSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uipilot_agent_steps_total",
		Help: "Agent steps by starting state",
	}, []string{"state"})

	// actionsExecuted counts executor dispatches by action kind and result.
	actionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uipilot_actions_executed_total",
		Help: "Executed actions by kind and result",
	}, []string{"kind", "result"})

	// policyLatency tracks how long policy decisions take.
	policyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uipilot_policy_decision_duration_seconds",
		Help:    "Policy decision duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
	}, []string{"policy"})
)

func RecordGateOutcome(outcome string) {
	gateDecisions.WithLabelValues(outcome).Inc()
}

func RecordSignal(signal string) {
	signalsObserved.WithLabelValues(signal).Inc()
}

func RecordStep(state string) {
	agentSteps.WithLabelValues(state).Inc()
}

// RecordExecution counts one dispatch. result is "ok" or an error code.
func RecordExecution(kind, result string) {
	actionsExecuted.WithLabelValues(kind, result).Inc()
}

func ObservePolicyLatency(policy string, seconds float64) {
	policyLatency.WithLabelValues(policy).Observe(seconds)
}

// GateDecisions exposes the gate counter for assertions in tests.
func GateDecisions() *prometheus.CounterVec { return gateDecisions }

// ActionsExecuted exposes the execution counter for assertions in tests.
func ActionsExecuted() *prometheus.CounterVec { return actionsExecuted }
