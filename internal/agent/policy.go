// File: internal/agent/policy.go
package agent

import (
	"context"
	"strings"

	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/state"
)

// DeterministicConfidence is the confidence of every rule-based decision.
const DeterministicConfidence = 0.9

// DeterministicPolicy maps the most recent signal to a fixed response.
type DeterministicPolicy struct{}

func (DeterministicPolicy) Name() string { return "deterministic" }

// Decide fills and submits the first form on a fresh screen and waits after
// any other change. It has no opinion on NoOp diffs.
func (DeterministicPolicy) Decide(_ context.Context, screen *state.ScreenState, diff *canonical.SemanticStateDiff, _ *Memory) *Decision {
	last, ok := diff.LastSignal()
	if !ok {
		return nil
	}

	switch last.Kind {
	case canonical.KindScreenLoaded:
		if screen == nil || len(screen.Forms) == 0 {
			return nil
		}
		form := screen.Forms[0]

		values := make([]FieldValue, 0, len(form.Inputs))
		for _, input := range form.Inputs {
			values = append(values, FieldValue{Label: input.Label, Value: GuessValue(input.Label, input.InputType)})
		}

		var submit string
		if form.PrimaryAction != nil {
			submit = form.PrimaryAction.Label
		} else if len(form.Actions) > 0 {
			submit = form.Actions[0].Label
		}

		action := FillAndSubmitForm(form.ID, values, submit)
		return &Decision{Type: DecisionAct, Action: &action, Confidence: DeterministicConfidence}

	case canonical.KindFormSubmitted:
		return waitDecision("Waiting after submitting " + last.FormID)
	case canonical.KindResultsAppeared:
		return waitDecision("Results appeared")
	case canonical.KindNavigationOccurred:
		return waitDecision("Navigation occurred")
	case canonical.KindErrorAppeared:
		return waitDecision("Error appeared")
	default:
		return nil
	}
}

func waitDecision(reason string) *Decision {
	action := Wait(reason)
	return &Decision{Type: DecisionWait, Action: &action, Confidence: DeterministicConfidence}
}

// valueRule maps label keywords to a plausible test value.
type valueRule struct {
	keywords []string
	value    string
}

var labelRules = []valueRule{
	{[]string{"email"}, "user@example.com"},
	{[]string{"password"}, "TestPass123!"},
	{[]string{"phone", "tel"}, "555-0100"},
	{[]string{"url", "website"}, "https://example.com"},
	{[]string{"zip", "postal"}, "90210"},
	{[]string{"username", "user"}, "testuser"},
	{[]string{"name"}, "Jane Doe"},
	{[]string{"search", "query"}, "test query"},
	{[]string{"date"}, "2025-01-15"},
	{[]string{"number", "amount", "quantity"}, "42"},
}

var typeValues = map[string]string{
	"email":    "user@example.com",
	"password": "TestPass123!",
	"tel":      "555-0100",
	"url":      "https://example.com",
	"number":   "42",
	"date":     "2025-01-15",
}

// GuessValue picks a test value from an input's label, falling back to its
// type and then to "test". Rules are checked in order so "email" wins over
// "name" for "Email Name".
func GuessValue(label, inputType string) string {
	l := strings.ToLower(label)
	for _, rule := range labelRules {
		for _, kw := range rule.keywords {
			if strings.Contains(l, kw) {
				return rule.value
			}
		}
	}
	if v, ok := typeValues[strings.ToLower(inputType)]; ok {
		return v
	}
	return "test"
}

// HybridPolicy trusts the deterministic rules when they are confident and
// asks the fallback otherwise.
type HybridPolicy struct {
	Deterministic Policy
	Fallback      Policy
}

// NewHybridPolicy pairs the deterministic rules with a fallback policy.
func NewHybridPolicy(fallback Policy) *HybridPolicy {
	return &HybridPolicy{Deterministic: DeterministicPolicy{}, Fallback: fallback}
}

func (h *HybridPolicy) Name() string { return "hybrid" }

func (h *HybridPolicy) Decide(ctx context.Context, screen *state.ScreenState, diff *canonical.SemanticStateDiff, memory *Memory) *Decision {
	if d := h.Deterministic.Decide(ctx, screen, diff, memory); d != nil && d.Confidence >= MinConfidence {
		return d
	}
	if h.Fallback == nil {
		return nil
	}
	return h.Fallback.Decide(ctx, screen, diff, memory)
}
