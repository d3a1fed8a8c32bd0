package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/state"
)

func TestDeterministicPolicy_ScreenLoadedFillsFirstForm(t *testing.T) {
	d := DeterministicPolicy{}.Decide(context.Background(), loginScreen(), diffWith(canonical.ScreenLoaded), NewMemory())
	require.NotNil(t, d)
	assert.Equal(t, DecisionAct, d.Type)
	assert.Equal(t, DeterministicConfidence, d.Confidence)

	want := FillAndSubmitForm("login", []FieldValue{
		{Label: "Email", Value: "user@example.com"},
		{Label: "Password", Value: "TestPass123!"},
	}, "Sign in")
	require.NotNil(t, d.Action)
	assert.True(t, want.Equal(*d.Action), "got %s", d.Action)
}

func TestDeterministicPolicy_SubmitFallsBackToFirstAction(t *testing.T) {
	page := screen.Page{Forms: []screen.Form{{
		ID:      "search",
		Inputs:  []screen.Element{{Kind: screen.KindInput, Label: "query"}},
		Actions: []screen.Element{{Kind: screen.KindAction, Label: "Go"}},
	}}}
	st := state.BuildState("https://app.test", "", page)

	d := DeterministicPolicy{}.Decide(context.Background(), st, diffWith(canonical.ScreenLoaded), NewMemory())
	require.NotNil(t, d)
	assert.Equal(t, "Go", d.Action.SubmitLabel)
	assert.Equal(t, []FieldValue{{Label: "query", Value: "test query"}}, d.Action.Values)
}

func TestDeterministicPolicy_WaitSignals(t *testing.T) {
	tests := []struct {
		signal canonical.Signal
		reason string
	}{
		{canonical.FormSubmitted("login"), "Waiting after submitting login"},
		{canonical.ResultsAppeared, "Results appeared"},
		{canonical.NavigationOccurred, "Navigation occurred"},
		{canonical.ErrorAppeared, "Error appeared"},
	}
	for _, tt := range tests {
		t.Run(tt.signal.String(), func(t *testing.T) {
			d := DeterministicPolicy{}.Decide(context.Background(), loginScreen(), diffWith(tt.signal), NewMemory())
			require.NotNil(t, d)
			assert.Equal(t, DecisionWait, d.Type)
			assert.Equal(t, 0.9, d.Confidence)
			assert.Equal(t, Wait(tt.reason), *d.Action)
		})
	}
}

func TestDeterministicPolicy_NoOpinion(t *testing.T) {
	p := DeterministicPolicy{}
	ctx := context.Background()

	assert.Nil(t, p.Decide(ctx, loginScreen(), diffWith(canonical.NoOp), NewMemory()))
	assert.Nil(t, p.Decide(ctx, loginScreen(), diffWith(), NewMemory()))
	assert.Nil(t, p.Decide(ctx, loginScreen(), nil, NewMemory()))

	empty := state.BuildState("https://app.test", "", screen.Page{})
	assert.Nil(t, p.Decide(ctx, empty, diffWith(canonical.ScreenLoaded), NewMemory()), "no form to fill")
}

func TestDeterministicPolicy_UsesLastSignal(t *testing.T) {
	d := DeterministicPolicy{}.Decide(context.Background(), loginScreen(),
		diffWith(canonical.FormSubmitted("login"), canonical.ResultsAppeared), NewMemory())
	require.NotNil(t, d)
	assert.Equal(t, "Results appeared", d.Action.Reason)
}

func TestGuessValue(t *testing.T) {
	tests := []struct {
		label, inputType, want string
	}{
		{"Email Address", "", "user@example.com"},
		{"Password", "", "TestPass123!"},
		{"Phone Number", "", "555-0100"},
		{"Website", "", "https://example.com"},
		{"zip code", "", "90210"},
		{"Username", "", "testuser"},
		{"Full Name", "", "Jane Doe"},
		{"Search", "", "test query"},
		{"Birth date", "", "2025-01-15"},
		{"Amount", "", "42"},
		{"some random field", "", "test"},
		{"enter value", "text", "test"},
		{"enter value", "email", "user@example.com"},
		{"enter value", "password", "TestPass123!"},
		{"enter value", "tel", "555-0100"},
		{"enter value", "url", "https://example.com"},
		{"enter value", "number", "42"},
		{"enter value", "date", "2025-01-15"},
		// Earlier rules win.
		{"Email or username", "", "user@example.com"},
		{"User name", "", "testuser"},
	}
	for _, tt := range tests {
		t.Run(tt.label+"/"+tt.inputType, func(t *testing.T) {
			assert.Equal(t, tt.want, GuessValue(tt.label, tt.inputType))
		})
	}
}

func TestHybridPolicy(t *testing.T) {
	ctx := context.Background()
	fallbackCalls := 0
	fallback := policyFunc(func(*state.ScreenState, *canonical.SemanticStateDiff, *Memory) *Decision {
		fallbackCalls++
		a := ClickAction("Help", "")
		return &Decision{Type: DecisionAct, Action: &a, Confidence: 0.8}
	})
	h := NewHybridPolicy(fallback)

	d := h.Decide(ctx, loginScreen(), diffWith(canonical.ScreenLoaded), NewMemory())
	require.NotNil(t, d)
	assert.Equal(t, ActionFillAndSubmitForm, d.Action.Kind)
	assert.Equal(t, 0, fallbackCalls, "confident rules skip the model")

	d = h.Decide(ctx, loginScreen(), diffWith(canonical.NoOp), NewMemory())
	require.NotNil(t, d)
	assert.Equal(t, ActionClick, d.Action.Kind)
	assert.Equal(t, 1, fallbackCalls)
}

func TestHybridPolicy_LowConfidenceRulesFallBack(t *testing.T) {
	weak := policyFunc(func(*state.ScreenState, *canonical.SemanticStateDiff, *Memory) *Decision {
		a := Wait("unsure")
		return &Decision{Type: DecisionWait, Action: &a, Confidence: 0.5}
	})
	strong := policyFunc(func(*state.ScreenState, *canonical.SemanticStateDiff, *Memory) *Decision {
		a := Wait("model")
		return &Decision{Type: DecisionWait, Action: &a, Confidence: 0.9}
	})
	h := &HybridPolicy{Deterministic: weak, Fallback: strong}

	d := h.Decide(context.Background(), loginScreen(), diffWith(canonical.NoOp), NewMemory())
	require.NotNil(t, d)
	assert.Equal(t, "model", d.Action.Reason)

	h.Fallback = nil
	assert.Nil(t, h.Decide(context.Background(), loginScreen(), diffWith(canonical.NoOp), NewMemory()))
}
