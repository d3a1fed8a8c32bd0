// internal/assertion/assertion.go
package assertion

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/snapshot"
)

// Kind names a check made against the final page of a run.
type Kind string

const (
	URLContains    Kind = "url_contains"
	URLEquals      Kind = "url_equals"
	TitleContains  Kind = "title_contains"
	TextPresent    Kind = "text_present"
	TextAbsent     Kind = "text_absent"
	ElementText    Kind = "element_text"
	ElementVisible Kind = "element_visible"
	ElementCount   Kind = "element_count"
)

// Assertion is one expectation about a snapshot. Selector is used by the
// element kinds, Count only by element_count.
type Assertion struct {
	Type     Kind   `json:"type" yaml:"type"`
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Count    int    `json:"count,omitempty" yaml:"count,omitempty"`
}

// Validate checks that the assertion carries the fields its kind needs.
func (a Assertion) Validate() error {
	switch a.Type {
	case URLContains, URLEquals, TitleContains, TextPresent, TextAbsent:
		if a.Expected == "" {
			return fmt.Errorf("%s assertion requires 'expected'", a.Type)
		}
	case ElementText:
		if a.Selector == "" || a.Expected == "" {
			return fmt.Errorf("%s assertion requires 'selector' and 'expected'", a.Type)
		}
	case ElementVisible:
		if a.Selector == "" {
			return fmt.Errorf("%s assertion requires 'selector'", a.Type)
		}
	case ElementCount:
		if a.Selector == "" {
			return fmt.Errorf("%s assertion requires 'selector'", a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("%s assertion count must not be negative", a.Type)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	if a.Selector != "" {
		if _, err := ParseSelector(a.Selector); err != nil {
			return err
		}
	}
	return nil
}

// Result is the outcome of one assertion.
type Result struct {
	Assertion Assertion `json:"assertion"`
	Passed    bool      `json:"passed"`
	Actual    string    `json:"actual,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Report collects the results of a whole assertion file.
type Report struct {
	Passed  bool     `json:"passed"`
	Results []Result `json:"results"`
}

// Failed counts the assertions that did not hold.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// Err returns nil when every assertion passed.
func (r *Report) Err() error {
	if r.Passed {
		return nil
	}
	return fmt.Errorf("%d of %d assertions failed", r.Failed(), len(r.Results))
}

type file struct {
	Assertions []Assertion `yaml:"assertions"`
}

// LoadFile reads a YAML or JSON document with a top-level 'assertions' list.
func LoadFile(path string) ([]Assertion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read assertions %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode assertions %s: %w", path, err)
	}
	if len(f.Assertions) == 0 {
		return nil, fmt.Errorf("no assertions in %s", path)
	}
	for i, a := range f.Assertions {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("assertion %d in %s: %w", i, path, err)
		}
	}
	return f.Assertions, nil
}

// Evaluate checks every assertion against snap. A nil snapshot fails them all.
func Evaluate(snap *snapshot.Snapshot, assertions []Assertion) *Report {
	report := &Report{Passed: true, Results: make([]Result, 0, len(assertions))}
	for _, a := range assertions {
		res := evaluate(snap, a)
		if !res.Passed {
			report.Passed = false
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func evaluate(snap *snapshot.Snapshot, a Assertion) Result {
	res := Result{Assertion: a}
	if snap == nil {
		res.Message = "No page was observed"
		return res
	}
	if err := a.Validate(); err != nil {
		res.Message = err.Error()
		return res
	}

	switch a.Type {
	case URLContains:
		res.Actual = snap.URL
		res.Passed = strings.Contains(snap.URL, a.Expected)
		res.Message = failure(res.Passed, "URL does not contain '%s'", a.Expected)
	case URLEquals:
		res.Actual = snap.URL
		res.Passed = snap.URL == a.Expected
		res.Message = failure(res.Passed, "URL does not equal '%s'", a.Expected)
	case TitleContains:
		res.Actual = snap.Title
		res.Passed = strings.Contains(snap.Title, a.Expected)
		res.Message = failure(res.Passed, "Title does not contain '%s'", a.Expected)
	case TextPresent:
		res.Passed = strings.Contains(pageText(snap), strings.ToLower(a.Expected))
		res.Message = failure(res.Passed, "Text '%s' not found on page", a.Expected)
	case TextAbsent:
		res.Passed = !strings.Contains(pageText(snap), strings.ToLower(a.Expected))
		res.Message = failure(res.Passed, "Text '%s' was found on page but should be absent", a.Expected)
	case ElementText:
		matches := match(snap, a.Selector)
		if len(matches) == 0 {
			res.Message = fmt.Sprintf("Element '%s' not found on page", a.Selector)
			break
		}
		res.Actual = matches[0].Text
		want := strings.ToLower(a.Expected)
		for _, el := range matches {
			if strings.Contains(strings.ToLower(el.Text), want) {
				res.Passed = true
				res.Actual = el.Text
				break
			}
		}
		res.Message = failure(res.Passed, "Element '%s' text does not contain '%s'", a.Selector, a.Expected)
	case ElementVisible:
		res.Passed = len(match(snap, a.Selector)) > 0
		res.Message = failure(res.Passed, "Element '%s' not found on page", a.Selector)
	case ElementCount:
		n := len(match(snap, a.Selector))
		res.Actual = fmt.Sprint(n)
		res.Passed = n == a.Count
		res.Message = failure(res.Passed, "Element '%s' count is %d but expected %d", a.Selector, n, a.Count)
	}
	return res
}

func failure(passed bool, format string, args ...any) string {
	if passed {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// pageText is the lowercased text of every element, space separated.
func pageText(snap *snapshot.Snapshot) string {
	parts := make([]string, 0, len(snap.Elements))
	for _, el := range snap.Elements {
		if el.Text != "" {
			parts = append(parts, el.Text)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func match(snap *snapshot.Snapshot, selector string) []screen.DomElement {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil
	}
	var out []screen.DomElement
	for _, el := range snap.Elements {
		if sel.Matches(el) {
			out = append(out, el)
		}
	}
	return out
}
