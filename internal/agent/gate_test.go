package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantsArePinned(t *testing.T) {
	assert.Equal(t, 0.65, MinConfidence)
	assert.Equal(t, 3, MaxRetries)
	assert.Equal(t, 2, MaxLoopRepeats)
	assert.Equal(t, 5, MaxThinkSteps)
	assert.Equal(t, 5, EvaluateLoopBudget)

	m := NewMemory()
	assert.Equal(t, 5, m.ThinkBudget)
	assert.Equal(t, 3, m.RetryBudget)
	assert.Equal(t, 2, m.LoopBudget)
	assert.Empty(t, m.Suppressed)
}

func TestGateDecision_ConfidenceFloor(t *testing.T) {
	m := NewMemory()
	action, reason := GateDecision(act(Wait("x"), 0.64), m)
	assert.Nil(t, action)
	assert.Equal(t, BlockLowConfidence, reason)
	assert.Equal(t, MaxThinkSteps, m.ThinkBudget, "blocked decisions consume nothing")
	assert.Nil(t, m.LastAction)

	action, reason = GateDecision(act(Wait("x"), 0.65), m)
	require.NotNil(t, action)
	assert.Empty(t, reason)
	assert.Equal(t, MaxThinkSteps-1, m.ThinkBudget)
}

func TestGateDecision_NoAction(t *testing.T) {
	m := NewMemory()
	action, reason := GateDecision(Decision{Type: DecisionWait, Confidence: 1}, m)
	assert.Nil(t, action)
	assert.Equal(t, BlockNoAction, reason)
}

func TestGateDecision_LoopSuppression(t *testing.T) {
	m := NewMemory()
	click := ClickAction("Next", "screen:action:next")

	first, _ := GateDecision(act(click, 0.9), m)
	require.NotNil(t, first)
	assert.Equal(t, MaxLoopRepeats, m.LoopBudget, "first action leaves the loop budget alone")

	second, _ := GateDecision(act(click, 0.9), m)
	require.NotNil(t, second, "one repeat is tolerated")
	assert.Equal(t, 1, m.LoopBudget)
	assert.Equal(t, MaxRetries-1, m.RetryBudget)

	third, reason := GateDecision(act(click, 0.9), m)
	assert.Nil(t, third)
	assert.Equal(t, BlockLoopDetected, reason)
	assert.Equal(t, []string{"screen:action:next"}, m.SuppressedIdentities())
	assert.Equal(t, MaxThinkSteps-2, m.ThinkBudget)
}

func TestGateDecision_DifferentActionResetsLoopBudget(t *testing.T) {
	m := NewMemory()
	a, b := Wait("a"), Wait("b")

	_, _ = GateDecision(act(a, 0.9), m)
	_, _ = GateDecision(act(a, 0.9), m)
	require.Equal(t, 1, m.LoopBudget)

	allowed, _ := GateDecision(act(b, 0.9), m)
	require.NotNil(t, allowed)
	assert.Equal(t, MaxLoopRepeats, m.LoopBudget)
	assert.Equal(t, MaxRetries, m.RetryBudget)
}

func TestGateDecision_ThinkBudgetNeverReplenishes(t *testing.T) {
	m := NewMemory()
	for i := 0; i < MaxThinkSteps; i++ {
		action, reason := GateDecision(act(Wait(fmt.Sprintf("r%d", i)), 0.9), m)
		require.NotNil(t, action, "action %d should pass, got %s", i, reason)
	}
	assert.Equal(t, 0, m.ThinkBudget)

	action, reason := GateDecision(act(Wait("one more"), 1.0), m)
	assert.Nil(t, action)
	assert.Equal(t, BlockThinkBudget, reason)
}

func TestGateDecision_TerminalSuccess(t *testing.T) {
	m := NewMemory()
	confirmed := FormSubmitted("login")
	m.LastConfirmedAction = &confirmed

	action, reason := GateDecision(act(SubmitForm("login", "Sign in", ""), 1.0), m)
	assert.Nil(t, action)
	assert.Equal(t, BlockTerminalSuccess, reason)

	fill := FillAndSubmitForm("login", []FieldValue{{Label: "Email", Value: "user@example.com"}}, "Sign in")
	action, reason = GateDecision(act(fill, 1.0), m)
	assert.Nil(t, action)
	assert.Equal(t, BlockTerminalSuccess, reason)

	// Terminal success is checked before confidence.
	_, reason = GateDecision(act(SubmitForm("login", "", ""), 0.1), m)
	assert.Equal(t, BlockTerminalSuccess, reason)

	action, _ = GateDecision(act(SubmitForm("search", "Go", ""), 0.9), m)
	assert.NotNil(t, action, "other forms are unaffected")

	action, _ = GateDecision(act(FillInput("login", "Email", "x", ""), 0.9), m)
	assert.NotNil(t, action, "only submissions are locked")
}

func TestCheckBudgets(t *testing.T) {
	a := Wait("a")

	m := NewMemory()
	assert.Empty(t, CheckBudgets(m, a))

	m.ThinkBudget = 0
	assert.Equal(t, BlockThinkBudget, CheckBudgets(m, a))

	m = NewMemory()
	m.LastAction = &a
	m.RetryBudget = 0
	assert.Equal(t, BlockRetryBudget, CheckBudgets(m, a))
	assert.Empty(t, CheckBudgets(m, Wait("b")), "retry budget only applies to repeats")

	m = NewMemory()
	m.LoopBudget = 0
	assert.Equal(t, BlockLoopBudget, CheckBudgets(m, a))
}

func TestGateDecision_ExhaustedLoopBudgetBlocksFirstAction(t *testing.T) {
	m := NewMemory()
	m.LoopBudget = 0

	action, reason := GateDecision(act(Wait("a"), 0.9), m)
	assert.Nil(t, action)
	assert.Equal(t, BlockLoopBudget, reason)
}
