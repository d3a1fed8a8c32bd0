// File: internal/canonical/diff.go
package canonical

import (
	"sort"
	"strings"

	"github.com/xkilldash9x/uipilot/internal/screen"
)

// SignalKind names a high-level event derived from a diff.
type SignalKind string

const (
	KindScreenLoaded       SignalKind = "ScreenLoaded"
	KindNavigationOccurred SignalKind = "NavigationOccurred"
	KindFormSubmitted      SignalKind = "FormSubmitted"
	KindResultsAppeared    SignalKind = "ResultsAppeared"
	KindErrorAppeared      SignalKind = "ErrorAppeared"
	KindNoOp               SignalKind = "NoOp"
)

// Signal is a derived event. FormID is set only for FormSubmitted.
type Signal struct {
	Kind   SignalKind `json:"kind"`
	FormID string     `json:"form_id,omitempty"`
}

var (
	ScreenLoaded       = Signal{Kind: KindScreenLoaded}
	NavigationOccurred = Signal{Kind: KindNavigationOccurred}
	ResultsAppeared    = Signal{Kind: KindResultsAppeared}
	ErrorAppeared      = Signal{Kind: KindErrorAppeared}
	NoOp               = Signal{Kind: KindNoOp}
)

// FormSubmitted reports that formID disappeared while new output appeared.
func FormSubmitted(formID string) Signal {
	return Signal{Kind: KindFormSubmitted, FormID: formID}
}

func (s Signal) String() string {
	if s.Kind == KindFormSubmitted {
		return string(s.Kind) + "(" + s.FormID + ")"
	}
	return string(s.Kind)
}

// FormChange details how a form present in both snapshots differs.
type FormChange struct {
	FormID               string   `json:"form_id"`
	InputsAdded          []string `json:"inputs_added"`
	InputsRemoved        []string `json:"inputs_removed"`
	ActionsAdded         []string `json:"actions_added"`
	ActionsRemoved       []string `json:"actions_removed"`
	PrimaryActionChanged bool     `json:"primary_action_changed"`
	IntentChanged        bool     `json:"intent_changed"`
}

type FormDiff struct {
	Added   []string     `json:"added"`
	Removed []string     `json:"removed"`
	Changed []FormChange `json:"changed"`
}

// SetDiff holds sorted added and removed ids.
type SetDiff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// SemanticStateDiff is the structured difference between two snapshots.
// Signals are derived from the other fields and kept in a stable order.
type SemanticStateDiff struct {
	Forms             FormDiff `json:"forms"`
	StandaloneActions SetDiff  `json:"standalone_actions"`
	Outputs           SetDiff  `json:"outputs"`
	Signals           []Signal `json:"signals"`
}

// LastSignal returns the dominant signal of the diff.
func (d *SemanticStateDiff) LastSignal() (Signal, bool) {
	if d == nil || len(d.Signals) == 0 {
		return Signal{}, false
	}
	return d.Signals[len(d.Signals)-1], true
}

// HasSignal reports whether the diff carries sig.
func (d *SemanticStateDiff) HasSignal(sig Signal) bool {
	for _, s := range d.Signals {
		if s == sig {
			return true
		}
	}
	return false
}

var errorKeywords = []string{"error", "failed", "invalid", "unable", "not found"}

// DiffSets returns the sorted members of after missing from before, and of
// before missing from after. Duplicates collapse.
func DiffSets(before, after []string) (added, removed []string) {
	beforeSet := toSet(before)
	afterSet := toSet(after)

	added = []string{}
	for id := range afterSet {
		if _, ok := beforeSet[id]; !ok {
			added = append(added, id)
		}
	}
	removed = []string{}
	for id := range beforeSet {
		if _, ok := afterSet[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// SemanticDiff compares two canonical states. When initial is true the
// signal list is exactly [ScreenLoaded].
func SemanticDiff(before, after *CanonicalScreenState, initial bool) *SemanticStateDiff {
	diff := &SemanticStateDiff{Forms: diffForms(before, after)}
	diff.StandaloneActions.Added, diff.StandaloneActions.Removed = DiffSets(before.StandaloneActions, after.StandaloneActions)
	diff.Outputs.Added, diff.Outputs.Removed = DiffSets(before.Outputs, after.Outputs)
	diff.Signals = deriveSignals(diff, after, initial)
	return diff
}

func diffForms(before, after *CanonicalScreenState) FormDiff {
	added, removed := DiffSets(formIDs(before), formIDs(after))
	fd := FormDiff{Added: added, Removed: removed, Changed: []FormChange{}}

	for _, id := range formIDs(before) {
		a, ok := after.Forms[id]
		if !ok {
			continue
		}
		b := before.Forms[id]

		change := FormChange{
			FormID:               id,
			PrimaryActionChanged: b.PrimaryAction != a.PrimaryAction,
			IntentChanged:        !b.Intent.Equal(a.Intent),
		}
		change.InputsAdded, change.InputsRemoved = DiffSets(b.Inputs, a.Inputs)
		change.ActionsAdded, change.ActionsRemoved = DiffSets(b.Actions, a.Actions)

		if len(change.InputsAdded) > 0 || len(change.InputsRemoved) > 0 ||
			len(change.ActionsAdded) > 0 || len(change.ActionsRemoved) > 0 ||
			change.PrimaryActionChanged || change.IntentChanged {
			fd.Changed = append(fd.Changed, change)
		}
	}
	return fd
}

// deriveSignals applies, in order: initial load, navigation, per-form
// submission, error over results, and NoOp when nothing else fired.
func deriveSignals(diff *SemanticStateDiff, after *CanonicalScreenState, initial bool) []Signal {
	if initial {
		return []Signal{ScreenLoaded}
	}

	var signals []Signal
	formGone := len(diff.Forms.Removed) > 0
	outputsAppeared := len(diff.Outputs.Added) > 0

	if formGone && !outputsAppeared {
		signals = append(signals, NavigationOccurred)
	}
	if formGone && outputsAppeared {
		for _, id := range diff.Forms.Removed {
			signals = append(signals, FormSubmitted(id))
		}
	}

	errorAdded := false
	for _, id := range diff.Outputs.Added {
		if isErrorOutput(after, id) {
			errorAdded = true
			break
		}
	}
	switch {
	case errorAdded:
		signals = append(signals, ErrorAppeared)
	case outputsAppeared:
		signals = append(signals, ResultsAppeared)
	}

	if len(signals) == 0 {
		signals = append(signals, NoOp)
	}
	return signals
}

func isErrorOutput(st *CanonicalScreenState, id string) bool {
	el, ok := st.Elements[id]
	if !ok || el.Kind != screen.KindOutput {
		return false
	}
	text := strings.ToLower(el.Label)
	for _, kw := range errorKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func formIDs(st *CanonicalScreenState) []string {
	ids := make([]string, 0, len(st.Forms))
	for id := range st.Forms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
