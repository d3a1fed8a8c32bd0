// internal/agent/models.go
package agent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xkilldash9x/uipilot/internal/canonical"
)

// Gate thresholds and budget defaults.
const (
	MinConfidence      = 0.65 // Decisions below this are never executed.
	MaxRetries         = 3    // Repeats of the same action before retries are exhausted.
	MaxLoopRepeats     = 2    // Loop budget after a non-repeating action.
	MaxThinkSteps      = 5    // Total actions the gate will ever allow.
	EvaluateLoopBudget = 5    // Loop budget restored whenever a diff carries signals.
)

// State is the agent's position in its observe/evaluate/think/act cycle.
type State string

const (
	StateObserve  State = "Observe"  // Waiting for the next diff.
	StateEvaluate State = "Evaluate" // Inspecting the diff's signals.
	StateThink    State = "Think"    // Asking the policy and gating its answer.
	StateAct      State = "Act"      // An action was handed to the caller.
	StateStop     State = "Stop"     // Terminal. Only reachable through Stop().
)

// ActionKind tags the variant held by an Action.
type ActionKind string

const (
	ActionFillInput         ActionKind = "FillInput"
	ActionSubmitForm        ActionKind = "SubmitForm"
	ActionFillAndSubmitForm ActionKind = "FillAndSubmitForm"
	ActionClick             ActionKind = "ClickAction"
	ActionWait              ActionKind = "Wait"
	// ActionFormSubmitted is observed from diffs. It is never dispatched to an executor.
	ActionFormSubmitted ActionKind = "FormSubmitted"
)

// FieldValue is one label/value pair of a FillAndSubmitForm action.
type FieldValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Action is a tagged variant. Only the fields of its Kind are meaningful.
// Two actions are the same action when Equal reports true.
type Action struct {
	Kind        ActionKind   `json:"kind"`
	FormID      string       `json:"form_id,omitempty"`
	InputLabel  string       `json:"input_label,omitempty"`
	Value       string       `json:"value,omitempty"`
	ActionLabel string       `json:"action_label,omitempty"`
	Label       string       `json:"label,omitempty"`
	Identity    string       `json:"identity,omitempty"`
	Values      []FieldValue `json:"values,omitempty"`
	SubmitLabel string       `json:"submit_label,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

func FillInput(formID, inputLabel, value, identity string) Action {
	return Action{Kind: ActionFillInput, FormID: formID, InputLabel: inputLabel, Value: value, Identity: identity}
}

func SubmitForm(formID, actionLabel, identity string) Action {
	return Action{Kind: ActionSubmitForm, FormID: formID, ActionLabel: actionLabel, Identity: identity}
}

func FillAndSubmitForm(formID string, values []FieldValue, submitLabel string) Action {
	return Action{Kind: ActionFillAndSubmitForm, FormID: formID, Values: values, SubmitLabel: submitLabel}
}

func ClickAction(label, identity string) Action {
	return Action{Kind: ActionClick, Label: label, Identity: identity}
}

func Wait(reason string) Action {
	return Action{Kind: ActionWait, Reason: reason}
}

func FormSubmitted(formID string) Action {
	return Action{Kind: ActionFormSubmitted, FormID: formID}
}

// Equal compares two actions field by field.
func (a Action) Equal(b Action) bool {
	return a.Kind == b.Kind &&
		a.FormID == b.FormID &&
		a.InputLabel == b.InputLabel &&
		a.Value == b.Value &&
		a.ActionLabel == b.ActionLabel &&
		a.Label == b.Label &&
		a.Identity == b.Identity &&
		a.SubmitLabel == b.SubmitLabel &&
		a.Reason == b.Reason &&
		slices.Equal(a.Values, b.Values)
}

// IsSubmit reports whether the action submits a form.
func (a Action) IsSubmit() bool {
	return a.Kind == ActionSubmitForm || a.Kind == ActionFillAndSubmitForm
}

func (a Action) String() string {
	switch a.Kind {
	case ActionFillInput:
		return fmt.Sprintf("FillInput{form_id: %q, input_label: %q, value: %q}", a.FormID, a.InputLabel, a.Value)
	case ActionSubmitForm:
		return fmt.Sprintf("SubmitForm{form_id: %q, action_label: %q}", a.FormID, a.ActionLabel)
	case ActionFillAndSubmitForm:
		pairs := make([]string, len(a.Values))
		for i, v := range a.Values {
			pairs[i] = fmt.Sprintf("%q=%q", v.Label, v.Value)
		}
		return fmt.Sprintf("FillAndSubmitForm{form_id: %q, values: [%s], submit_label: %q}",
			a.FormID, strings.Join(pairs, ", "), a.SubmitLabel)
	case ActionClick:
		return fmt.Sprintf("ClickAction{label: %q}", a.Label)
	case ActionWait:
		return fmt.Sprintf("Wait{reason: %q}", a.Reason)
	case ActionFormSubmitted:
		return fmt.Sprintf("FormSubmitted{form_id: %q}", a.FormID)
	default:
		return string(a.Kind)
	}
}

// DecisionType is the coarse intent of a policy answer.
type DecisionType string

const (
	DecisionAct  DecisionType = "Act"
	DecisionWait DecisionType = "Wait"
	DecisionStop DecisionType = "Stop"
)

// Decision is a policy's proposal. Action may be nil.
type Decision struct {
	Type       DecisionType `json:"decision"`
	Action     *Action      `json:"next_action,omitempty"`
	Confidence float64      `json:"confidence"`
}

// Memory is the agent's bookkeeping. It is owned by one agent and mutated
// only by the gate and by signal observation.
type Memory struct {
	LastAction          *Action
	LastConfirmedAction *Action
	AttemptCount        int
	LastSignal          *canonical.Signal
	LoopCount           int

	ThinkBudget int // Remaining allowed actions.
	RetryBudget int // Remaining repeats of the last action.
	LoopBudget  int // Remaining tolerated repeats before a loop is declared.

	Suppressed map[string]struct{}
}

// NewMemory returns memory with full budgets.
func NewMemory() *Memory {
	return &Memory{
		ThinkBudget: MaxThinkSteps,
		RetryBudget: MaxRetries,
		LoopBudget:  MaxLoopRepeats,
		Suppressed:  make(map[string]struct{}),
	}
}

// Suppress records an element identity the agent should stop targeting.
func (m *Memory) Suppress(identity string) {
	if identity == "" {
		return
	}
	if m.Suppressed == nil {
		m.Suppressed = make(map[string]struct{})
	}
	m.Suppressed[identity] = struct{}{}
}

// SuppressedIdentities returns the suppressed identities in sorted order.
func (m *Memory) SuppressedIdentities() []string {
	ids := make([]string, 0, len(m.Suppressed))
	for id := range m.Suppressed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// saturatingDec decrements n without going below zero.
func saturatingDec(n int) int {
	if n <= 0 {
		return 0
	}
	return n - 1
}
