// internal/assertion/selector.go
package assertion

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/uipilot/internal/screen"
)

// Selector picks elements out of a snapshot. Snapshots keep only the visible
// elements and none of their DOM attributes, so a selector is a tag name with
// optional filters on the fields a snapshot does record:
//
//	button
//	input[type=email]
//	*[role=alert]
//	a[text="Next page"]
//	[form=login][label=Email]
//
// Filter keys are role, type, label, form and text. text is a case-insensitive
// substring match, the rest are exact.
type Selector struct {
	Tag     string
	Filters map[string]string
}

var selectorKeys = map[string]bool{"role": true, "type": true, "label": true, "form": true, "text": true}

// ParseSelector parses the selector syntax described on Selector.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}

	sel := Selector{Filters: map[string]string{}}
	tagEnd := strings.IndexByte(s, '[')
	if tagEnd < 0 {
		tagEnd = len(s)
	}
	sel.Tag = strings.ToLower(s[:tagEnd])
	if sel.Tag == "*" {
		sel.Tag = ""
	}
	if strings.ContainsAny(sel.Tag, " .#>:") {
		return Selector{}, fmt.Errorf("unsupported selector %q", s)
	}

	rest := s[tagEnd:]
	for rest != "" {
		if rest[0] != '[' {
			return Selector{}, fmt.Errorf("malformed selector %q", s)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Selector{}, fmt.Errorf("unterminated filter in selector %q", s)
		}
		key, value, ok := strings.Cut(rest[1:end], "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || !selectorKeys[key] {
			return Selector{}, fmt.Errorf("unsupported filter %q in selector %q", rest[:end+1], s)
		}
		sel.Filters[key] = strings.Trim(strings.TrimSpace(value), `"'`)
		rest = rest[end+1:]
	}
	return sel, nil
}

// Matches reports whether el satisfies the tag and every filter.
func (s Selector) Matches(el screen.DomElement) bool {
	if s.Tag != "" && !strings.EqualFold(el.Tag, s.Tag) {
		return false
	}
	for key, want := range s.Filters {
		var ok bool
		switch key {
		case "role":
			ok = strings.EqualFold(el.Role, want)
		case "type":
			ok = strings.EqualFold(el.Type, want)
		case "label":
			ok = el.AriaLabel == want || el.Text == want
		case "form":
			ok = el.FormID == want
		case "text":
			ok = strings.Contains(strings.ToLower(el.Text), strings.ToLower(want))
		}
		if !ok {
			return false
		}
	}
	return true
}
