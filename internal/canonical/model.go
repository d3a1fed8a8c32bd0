// File: internal/canonical/model.go
package canonical

import (
	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/state"
)

// CanonicalElement is the identity keyed view of one element.
type CanonicalElement struct {
	ID    string             `json:"id"`
	Kind  screen.ElementKind `json:"kind"`
	Label string             `json:"label,omitempty"`
	Scope string             `json:"scope"`
}

// CanonicalForm lists a form's members by element id.
type CanonicalForm struct {
	ID            string             `json:"id"`
	Inputs        []string           `json:"inputs"`
	Actions       []string           `json:"actions"`
	PrimaryAction string             `json:"primary_action,omitempty"`
	Intent        *screen.FormIntent `json:"intent,omitempty"`
}

// CanonicalScreenState is the unit of comparison between two snapshots.
type CanonicalScreenState struct {
	URL               string                      `json:"url"`
	Title             string                      `json:"title"`
	Elements          map[string]CanonicalElement `json:"elements"`
	Forms             map[string]CanonicalForm    `json:"forms"`
	StandaloneActions []string                    `json:"standalone_actions"`
	Outputs           []string                    `json:"outputs"`
}

// Empty is the predecessor of the first observation.
func Empty() *CanonicalScreenState {
	return &CanonicalScreenState{
		Elements: map[string]CanonicalElement{},
		Forms:    map[string]CanonicalForm{},
	}
}

// Canonicalize projects a screen state onto its identities. Elements that
// cannot be matched to an identity are dropped.
func Canonicalize(s *state.ScreenState) *CanonicalScreenState {
	out := Empty()
	out.URL = s.URL
	if out.URL == "" {
		out.URL = state.UnknownURL
	}
	out.Title = s.Title

	for id, ident := range s.Identities {
		out.Elements[id] = CanonicalElement{
			ID:    id,
			Kind:  ident.Element.Kind,
			Label: ident.Element.Label,
			Scope: ident.Scope,
		}
	}

	for _, form := range s.Forms {
		cf := CanonicalForm{
			ID:      form.ID,
			Inputs:  resolveAll(s, form.Inputs),
			Actions: resolveAll(s, form.Actions),
			Intent:  form.Intent,
		}
		if form.PrimaryAction != nil {
			if id, ok := s.IDOf(*form.PrimaryAction); ok {
				cf.PrimaryAction = id
			}
		}
		out.Forms[form.ID] = cf
	}

	out.StandaloneActions = resolveAll(s, s.StandaloneActions)
	out.Outputs = resolveAll(s, s.Outputs)
	return out
}

func resolveAll(s *state.ScreenState, elements []screen.Element) []string {
	ids := make([]string, 0, len(elements))
	for _, el := range elements {
		if id, ok := s.IDOf(el); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
