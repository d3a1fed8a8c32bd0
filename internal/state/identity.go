package state

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/uipilot/internal/screen"
)

// ScreenScope is the scope of elements that do not belong to a form.
const ScreenScope = "screen"

// IdentifiedElement binds an element to its stable id.
type IdentifiedElement struct {
	ID         string         `json:"id"`
	Element    screen.Element `json:"element"`
	Scope      string         `json:"scope"`
	Region     Region         `json:"region"`
	Volatility Volatility     `json:"volatility"`
}

// FormScope returns the scope string for elements of the given form.
func FormScope(formID string) string {
	return "form:" + formID
}

// ElementID builds the id of an input or action: scope:kind:label with the
// label lower-cased and spaces replaced. A missing label becomes "unknown".
func ElementID(el screen.Element, scope string) string {
	label := el.Label
	if label == "" {
		label = "unknown"
	}
	label = strings.ReplaceAll(strings.ToLower(label), " ", "_")
	return fmt.Sprintf("%s:%s:%s", scope, el.Kind, label)
}

// ResolveIdentities assigns an id to every form element, standalone action
// and output of a page.
//
// Output ids come from a content fingerprint when the text normalizes.
// Otherwise they fall back to screen:output:<region>:idx:<n>, counted per
// region in page order. Those fallback ids are not stable across snapshots.
func ResolveIdentities(page screen.Page) map[string]IdentifiedElement {
	identities := make(map[string]IdentifiedElement)

	for _, form := range page.Forms {
		scope := FormScope(form.ID)
		for _, group := range [][]screen.Element{form.Inputs, form.Actions} {
			for _, el := range group {
				id := ElementID(el, scope)
				identities[id] = IdentifiedElement{
					ID:         id,
					Element:    el,
					Scope:      scope,
					Region:     RegionMain,
					Volatility: Stable,
				}
			}
		}
	}

	for _, el := range page.StandaloneActions {
		id := ElementID(el, ScreenScope)
		identities[id] = IdentifiedElement{
			ID:         id,
			Element:    el,
			Scope:      ScreenScope,
			Region:     RegionMain,
			Volatility: Stable,
		}
	}

	counters := make(map[Region]int)
	for _, el := range page.Outputs {
		region := InferRegion(el)
		var id string
		if text, ok := NormalizeOutputText(el.Label); ok {
			id = fmt.Sprintf("screen:output:%s:%s", region, Fingerprint(text))
		} else {
			id = fmt.Sprintf("screen:output:%s:idx:%d", region, counters[region])
			counters[region]++
		}
		identities[id] = IdentifiedElement{
			ID:         id,
			Element:    el,
			Scope:      ScreenScope,
			Region:     region,
			Volatility: Volatile,
		}
	}

	return identities
}
