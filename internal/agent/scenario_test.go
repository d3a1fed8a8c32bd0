package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/state"
)

// stepUntilAction steps the agent at most limit times on one snapshot.
func stepUntilAction(ctx context.Context, a *Agent, st *state.ScreenState, diff *canonical.SemanticStateDiff, limit int) *Action {
	for i := 0; i < limit; i++ {
		if out := a.Step(ctx, st, diff); out != nil {
			return out
		}
	}
	return nil
}

func TestScenario_SearchFlow(t *testing.T) {
	ctx := context.Background()
	a := New(DeterministicPolicy{}, &recordingTracer{}, zaptest.NewLogger(t))

	snapshots := [][]screen.DomElement{
		{
			{Tag: "input", Type: "search", AriaLabel: "query", FormID: "search"},
			{Tag: "button", Type: "submit", Text: "Search", FormID: "search"},
		},
		{},
		{
			{Tag: "div", Text: "3 results found"},
		},
	}

	prev := canonical.Empty()
	var actions []*Action
	for i, dom := range snapshots {
		st := state.BuildState("https://app.test/search", "Search", screen.Classify(dom))
		cur := canonical.Canonicalize(st)
		diff := canonical.SemanticDiff(prev, cur, i == 0)
		EmitObservedActions(diff, a.Memory())

		actions = append(actions, stepUntilAction(ctx, a, st, diff, 5))
		prev = cur
	}

	require.NotNil(t, actions[0])
	assert.Equal(t, ActionFillAndSubmitForm, actions[0].Kind)
	assert.Equal(t, []FieldValue{{Label: "query", Value: "test query"}}, actions[0].Values)
	assert.Equal(t, "Search", actions[0].SubmitLabel)

	require.NotNil(t, actions[1])
	assert.Equal(t, Wait("Navigation occurred"), *actions[1])

	require.NotNil(t, actions[2])
	assert.Equal(t, Wait("Results appeared"), *actions[2])

	require.NotNil(t, a.Memory().LastSignal)
	assert.Equal(t, canonical.ResultsAppeared, *a.Memory().LastSignal)
	assert.Equal(t, MaxThinkSteps-3, a.Memory().ThinkBudget)
}

func TestScenario_LoginIsNotResubmitted(t *testing.T) {
	ctx := context.Background()
	a := New(DeterministicPolicy{}, nil, zaptest.NewLogger(t))

	login := []screen.DomElement{
		{Tag: "input", Type: "email", AriaLabel: "Email", FormID: "login"},
		{Tag: "input", Type: "password", AriaLabel: "Password", FormID: "login"},
		{Tag: "button", Type: "submit", Text: "Sign in", FormID: "login"},
	}
	welcome := []screen.DomElement{{Tag: "h1", Text: "Welcome back"}}

	st1 := state.BuildState("https://app.test/login", "Login", screen.Classify(login))
	c1 := canonical.Canonicalize(st1)
	first := stepUntilAction(ctx, a, st1, canonical.SemanticDiff(canonical.Empty(), c1, true), 5)
	require.NotNil(t, first)
	assert.Equal(t, ActionFillAndSubmitForm, first.Kind)

	st2 := state.BuildState("https://app.test/home", "Home", screen.Classify(welcome))
	c2 := canonical.Canonicalize(st2)
	diff := canonical.SemanticDiff(c1, c2, false)
	require.True(t, diff.HasSignal(canonical.FormSubmitted("login")))
	EmitObservedActions(diff, a.Memory())

	require.NotNil(t, a.Memory().LastConfirmedAction)
	assert.Equal(t, FormSubmitted("login"), *a.Memory().LastConfirmedAction)

	// Going back to the login page must not submit the confirmed form again.
	again := canonical.SemanticDiff(canonical.Empty(), c1, true)
	assert.Nil(t, stepUntilAction(ctx, a, st1, again, 5))
}
