// File: internal/agent/model_policy.go
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/llmclient"
	"github.com/xkilldash9x/uipilot/internal/llmutil"
	"github.com/xkilldash9x/uipilot/internal/state"
)

// DefaultModelConfidence applies when the model omits a confidence.
const DefaultModelConfidence = 0.7

var tracer = otel.Tracer("uipilot.agent")

// ModelPolicy asks a language model for the next action. Any failure to
// reach the model or to understand its answer yields no opinion.
type ModelPolicy struct {
	client  llmclient.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewModelPolicy creates a policy backed by client. A zero timeout leaves
// the caller's deadline in charge.
func NewModelPolicy(client llmclient.Client, timeout time.Duration, logger *zap.Logger) *ModelPolicy {
	return &ModelPolicy{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("model_policy"),
	}
}

func (p *ModelPolicy) Name() string { return "model" }

func (p *ModelPolicy) Decide(ctx context.Context, screen *state.ScreenState, diff *canonical.SemanticStateDiff, memory *Memory) *Decision {
	ctx, span := tracer.Start(ctx, "ModelPolicy.Decide")
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(screen, diff, memory)
	raw, err := p.client.Generate(ctx, llmclient.GenerationRequest{Prompt: prompt, ForceJSON: true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model request failed")
		p.logger.Warn("Model request failed", zap.Error(err))
		return nil
	}

	decision, err := ParseModelResponse(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unusable model response")
		p.logger.Warn("Discarding model response", zap.String("raw_response", raw), zap.Error(err))
		return nil
	}

	span.SetAttributes(
		attribute.String("decision.type", string(decision.Type)),
		attribute.String("decision.action", string(decision.Action.Kind)),
		attribute.Float64("decision.confidence", decision.Confidence),
	)
	return decision
}

// BuildPrompt renders the screen summary and the action vocabulary.
func BuildPrompt(screen *state.ScreenState, diff *canonical.SemanticStateDiff, memory *Memory) string {
	url, title := "unknown", ""
	var forms, outputs []string
	if screen != nil {
		if screen.URL != "" {
			url = screen.URL
		}
		title = screen.Title
		for _, f := range screen.Forms {
			inputs := make([]string, 0, len(f.Inputs))
			for _, in := range f.Inputs {
				if in.Label != "" {
					inputs = append(inputs, in.Label)
				}
			}
			actions := make([]string, 0, len(f.Actions))
			for _, a := range f.Actions {
				if a.Label != "" {
					actions = append(actions, a.Label)
				}
			}
			forms = append(forms, fmt.Sprintf("  - Form '%s': inputs=[%s], actions=[%s]",
				f.ID, strings.Join(inputs, ", "), strings.Join(actions, ", ")))
		}
		for _, o := range screen.Outputs {
			if len(outputs) == 5 {
				break
			}
			if o.Label != "" {
				outputs = append(outputs, o.Label)
			}
		}
	}

	formsSummary := "  (none)"
	if len(forms) > 0 {
		formsSummary = strings.Join(forms, "\n")
	}
	outputsSummary := "(none)"
	if len(outputs) > 0 {
		outputsSummary = strings.Join(outputs, "; ")
	}

	signal := "None"
	if last, ok := diff.LastSignal(); ok {
		signal = last.String()
	}
	lastAction := "None"
	if memory != nil && memory.LastAction != nil {
		lastAction = memory.LastAction.String()
	}

	var b strings.Builder
	b.WriteString("You are a web automation agent. Decide the next action based on the screen state.\n\n")
	b.WriteString("SCREEN STATE:\n")
	fmt.Fprintf(&b, "- URL: %s\n- Title: %s\n- Forms:\n%s\n- Outputs: %s\n- Last signal: %s\n- Last action: %s\n",
		url, title, formsSummary, outputsSummary, signal, lastAction)
	if memory != nil && len(memory.Suppressed) > 0 {
		fmt.Fprintf(&b, "- Do not target: %s\n", strings.Join(memory.SuppressedIdentities(), ", "))
	}
	b.WriteString(`
AVAILABLE ACTIONS (respond with exactly one as JSON):
1. FillInput: {"action":"FillInput","form_id":"...","input_label":"...","value":"...","confidence":0.9}
2. SubmitForm: {"action":"SubmitForm","form_id":"...","action_label":"...","confidence":0.9}
3. ClickAction: {"action":"ClickAction","label":"...","confidence":0.9}
4. Wait: {"action":"Wait","reason":"...","confidence":0.9}

Respond with ONLY valid JSON, no explanation.`)
	return b.String()
}

// modelAction is the JSON object the model is asked to produce.
type modelAction struct {
	Action      string   `json:"action"`
	FormID      *string  `json:"form_id"`
	InputLabel  *string  `json:"input_label"`
	Value       *string  `json:"value"`
	ActionLabel *string  `json:"action_label"`
	Label       *string  `json:"label"`
	Reason      *string  `json:"reason"`
	Confidence  *float64 `json:"confidence"`
}

// ParseModelResponse converts a model answer into a decision. Unknown
// actions and actions missing a required field are errors.
func ParseModelResponse(response string) (*Decision, error) {
	parsed, err := llmutil.ParseJSONResponse[modelAction](response)
	if err != nil {
		return nil, NewJSONParseError("model response", err)
	}

	confidence := DefaultModelConfidence
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}

	var action Action
	switch parsed.Action {
	case string(ActionFillInput):
		if parsed.FormID == nil || parsed.InputLabel == nil {
			return nil, fmt.Errorf("FillInput requires form_id and input_label")
		}
		action = FillInput(*parsed.FormID, *parsed.InputLabel, deref(parsed.Value, ""), "")
	case string(ActionSubmitForm):
		if parsed.FormID == nil {
			return nil, fmt.Errorf("SubmitForm requires form_id")
		}
		action = SubmitForm(*parsed.FormID, deref(parsed.ActionLabel, ""), "")
	case string(ActionClick):
		if parsed.Label == nil {
			return nil, fmt.Errorf("ClickAction requires label")
		}
		action = ClickAction(*parsed.Label, "")
	case string(ActionWait):
		action = Wait(deref(parsed.Reason, "Waiting"))
	default:
		return nil, fmt.Errorf("unsupported action %q", parsed.Action)
	}

	decisionType := DecisionAct
	if action.Kind == ActionWait {
		decisionType = DecisionWait
	}
	return &Decision{Type: decisionType, Action: &action, Confidence: confidence}, nil
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
