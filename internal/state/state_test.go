// File: internal/state/state_test.go
package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uipilot/internal/screen"
)

func TestNormalizeOutputText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"collapses whitespace and lowercases", "  3 Results\n\tFound ", "3 results found", true},
		{"empty", "   ", "", false},
		{"script blob", "window.dataLayer = []", "", false},
		{"var declaration", "var x = 1", "", false},
		{"token noise", "a1b2-c3d4-e5f6-7890", "", false},
		{"too short", " ok ", "", false},
		{"exactly three", "Yes", "yes", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeOutputText(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferRegion(t *testing.T) {
	assert.Equal(t, RegionFooter, InferRegion(screen.Element{Label: "Privacy Policy"}))
	assert.Equal(t, RegionFooter, InferRegion(screen.Element{Label: "Terms of use"}))
	assert.Equal(t, RegionHeader, InferRegion(screen.Element{Label: "Sign in to continue"}))
	assert.Equal(t, RegionMain, InferRegion(screen.Element{Label: "3 results found"}))
	assert.Equal(t, RegionMain, InferRegion(screen.Element{}))
}

func TestElementID(t *testing.T) {
	assert.Equal(t, "form:login:input:email_address",
		ElementID(screen.Element{Kind: screen.KindInput, Label: "Email Address"}, FormScope("login")))
	assert.Equal(t, "screen:action:unknown",
		ElementID(screen.Element{Kind: screen.KindAction}, ScreenScope))
}

func TestResolveIdentities(t *testing.T) {
	page := screen.Page{
		Forms: []screen.Form{{
			ID:      "search",
			Inputs:  []screen.Element{{Kind: screen.KindInput, Label: "Query"}},
			Actions: []screen.Element{{Kind: screen.KindAction, Label: "Search"}},
		}},
		StandaloneActions: []screen.Element{{Kind: screen.KindAction, Label: "Help Center"}},
		Outputs: []screen.Element{
			{Kind: screen.KindOutput, Label: "3 results found"},
			{Kind: screen.KindOutput, Label: "$$$ ### !!!"},
			{Kind: screen.KindOutput, Label: "12345678"},
			{Kind: screen.KindOutput, Label: "Terms"},
		},
	}

	ids := ResolveIdentities(page)
	require.Len(t, ids, 7)

	input, ok := ids["form:search:input:query"]
	require.True(t, ok)
	assert.Equal(t, "form:search", input.Scope)
	assert.Equal(t, Stable, input.Volatility)

	_, ok = ids["form:search:action:search"]
	assert.True(t, ok)

	help, ok := ids["screen:action:help_center"]
	require.True(t, ok)
	assert.Equal(t, ScreenScope, help.Scope)

	fp := "screen:output:Main:" + Fingerprint("3 results found")
	result, ok := ids[fp]
	require.True(t, ok)
	assert.Equal(t, Volatile, result.Volatility)
	assert.Equal(t, RegionMain, result.Region)

	// Noise falls back to a per-region positional counter.
	assert.Contains(t, ids, "screen:output:Main:idx:0")
	assert.Contains(t, ids, "screen:output:Main:idx:1")
	assert.Contains(t, ids, "screen:output:Footer:"+Fingerprint("terms"))
}

func TestResolveIdentities_IsDeterministic(t *testing.T) {
	page := screen.Page{
		Forms: []screen.Form{{ID: "f", Inputs: []screen.Element{{Kind: screen.KindInput, Label: "Name"}}}},
		Outputs: []screen.Element{
			{Kind: screen.KindOutput, Label: "Welcome"},
		},
	}
	assert.Equal(t, ResolveIdentities(page), ResolveIdentities(page))
}

func TestBuildState(t *testing.T) {
	page := screen.Page{Outputs: []screen.Element{{Kind: screen.KindOutput, Label: "Hello world"}}}

	st := BuildState("", "Home", page)
	assert.Equal(t, UnknownURL, st.URL)
	assert.Equal(t, "Home", st.Title)

	id, ok := st.IDOf(page.Outputs[0])
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(id, "screen:output:Main:"))

	_, ok = st.IDOf(screen.Element{Kind: screen.KindOutput, Label: "missing"})
	assert.False(t, ok)

	found, ok := st.Find(func(el IdentifiedElement) bool { return el.Element.Kind == screen.KindOutput })
	require.True(t, ok)
	assert.Equal(t, id, found.ID)
}
