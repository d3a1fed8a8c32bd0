package state

import (
	"sort"

	"github.com/xkilldash9x/uipilot/internal/screen"
)

// UnknownURL stands in for a page whose address could not be read.
const UnknownURL = "<unknown>"

// ScreenState is a classified page together with its identity map.
type ScreenState struct {
	URL               string                       `json:"url"`
	Title             string                       `json:"title"`
	Forms             []screen.Form                `json:"forms"`
	StandaloneActions []screen.Element             `json:"standalone_actions"`
	Outputs           []screen.Element             `json:"outputs"`
	Identities        map[string]IdentifiedElement `json:"identities"`
}

// BuildState resolves identities for a classified page.
func BuildState(url, title string, page screen.Page) *ScreenState {
	if url == "" {
		url = UnknownURL
	}
	return &ScreenState{
		URL:               url,
		Title:             title,
		Forms:             page.Forms,
		StandaloneActions: page.StandaloneActions,
		Outputs:           page.Outputs,
		Identities:        ResolveIdentities(page),
	}
}

// Lookup returns the identity registered under id.
func (s *ScreenState) Lookup(id string) (IdentifiedElement, bool) {
	el, ok := s.Identities[id]
	return el, ok
}

// IDOf finds the id of an element by value. When several ids hold an equal
// element the lexically smallest wins, so repeated calls agree.
func (s *ScreenState) IDOf(el screen.Element) (string, bool) {
	var ids []string
	for id, ident := range s.Identities {
		if ident.Element == el {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// Find returns the first identity, in id order, accepted by match.
func (s *ScreenState) Find(match func(IdentifiedElement) bool) (IdentifiedElement, bool) {
	ids := make([]string, 0, len(s.Identities))
	for id := range s.Identities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if ident := s.Identities[id]; match(ident) {
			return ident, true
		}
	}
	return IdentifiedElement{}, false
}
