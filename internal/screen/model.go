// File: internal/screen/model.go
package screen

// ElementKind is the semantic role an element plays on a page.
type ElementKind string

const (
	KindInput  ElementKind = "input"
	KindAction ElementKind = "action"
	KindOutput ElementKind = "output"
)

// Element is a classified page element. An empty Label means the element
// carried no usable text. Elements are values and are compared with ==.
type Element struct {
	Kind      ElementKind `json:"kind" yaml:"kind"`
	Label     string      `json:"label,omitempty" yaml:"label,omitempty"`
	Tag       string      `json:"tag,omitempty" yaml:"tag,omitempty"`
	Role      string      `json:"role,omitempty" yaml:"role,omitempty"`
	InputType string      `json:"input_type,omitempty" yaml:"input_type,omitempty"`
}

// FormIntent is the inferred purpose of a form.
type FormIntent struct {
	Label      string   `json:"label" yaml:"label"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Signals    []string `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// Equal reports whether two intents carry the same label, score and evidence.
func (i *FormIntent) Equal(other *FormIntent) bool {
	if i == nil || other == nil {
		return i == other
	}
	if i.Label != other.Label || i.Confidence != other.Confidence || len(i.Signals) != len(other.Signals) {
		return false
	}
	for idx := range i.Signals {
		if i.Signals[idx] != other.Signals[idx] {
			return false
		}
	}
	return true
}

// Form groups the inputs and actions that share a form id.
type Form struct {
	ID            string      `json:"id" yaml:"id"`
	Inputs        []Element   `json:"inputs" yaml:"inputs"`
	Actions       []Element   `json:"actions" yaml:"actions"`
	PrimaryAction *Element    `json:"primary_action,omitempty" yaml:"primary_action,omitempty"`
	Intent        *FormIntent `json:"intent,omitempty" yaml:"intent,omitempty"`
}

// Page is the classified content of a single snapshot.
type Page struct {
	Forms             []Form    `json:"forms" yaml:"forms"`
	StandaloneActions []Element `json:"standalone_actions" yaml:"standalone_actions"`
	Outputs           []Element `json:"outputs" yaml:"outputs"`
}

// DomElement is the raw element record produced by the DOM extraction script.
type DomElement struct {
	Tag       string `json:"tag" yaml:"tag"`
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
	Role      string `json:"role,omitempty" yaml:"role,omitempty"`
	Type      string `json:"type,omitempty" yaml:"type,omitempty"`
	AriaLabel string `json:"ariaLabel,omitempty" yaml:"ariaLabel,omitempty"`
	Disabled  bool   `json:"disabled" yaml:"disabled"`
	Required  bool   `json:"required" yaml:"required"`
	FormID    string `json:"formId,omitempty" yaml:"formId,omitempty"`
}
