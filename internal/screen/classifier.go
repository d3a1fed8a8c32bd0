// File: internal/screen/classifier.go
package screen

import "strings"

// primaryActionKeywords mark the action a form is most likely submitted with.
var primaryActionKeywords = []string{"submit", "save", "sign", "login", "continue", "next"}

// inputTypes lists the input subtypes that accept typed or chosen values.
// Anything else (submit, button, hidden, file, ...) is not an input.
var inputTypes = map[string]bool{
	"":         true,
	"text":     true,
	"email":    true,
	"password": true,
	"search":   true,
	"number":   true,
	"tel":      true,
	"url":      true,
	"date":     true,
	"time":     true,
	"month":    true,
	"week":     true,
	"range":    true,
	"radio":    true,
	"checkbox": true,
}

// Classify turns raw DOM records into typed elements grouped into forms.
// Forms keep the order in which their first element was seen.
func Classify(elements []DomElement) Page {
	var page Page
	formIndex := make(map[string]int)

	for _, el := range elements {
		if isOutput(el) {
			page.Outputs = append(page.Outputs, toElement(el, KindOutput))
			continue
		}

		if el.FormID == "" {
			if isAction(el) {
				page.StandaloneActions = append(page.StandaloneActions, toElement(el, KindAction))
			}
			continue
		}

		idx, ok := formIndex[el.FormID]
		if !ok {
			idx = len(page.Forms)
			formIndex[el.FormID] = idx
			page.Forms = append(page.Forms, Form{ID: el.FormID})
		}
		form := &page.Forms[idx]
		switch {
		case isInput(el):
			form.Inputs = append(form.Inputs, toElement(el, KindInput))
		case isAction(el):
			form.Actions = append(form.Actions, toElement(el, KindAction))
		}
	}

	for i := range page.Forms {
		form := &page.Forms[i]
		form.PrimaryAction = DetectPrimaryAction(form.Actions)
		form.Intent = InferIntent(*form)
	}
	return page
}

// DetectPrimaryAction returns the first action whose label contains a
// submit-like keyword, or nil.
func DetectPrimaryAction(actions []Element) *Element {
	for _, a := range actions {
		if a.Kind != KindAction || a.Label == "" {
			continue
		}
		lower := strings.ToLower(a.Label)
		for _, kw := range primaryActionKeywords {
			if strings.Contains(lower, kw) {
				found := a
				return &found
			}
		}
	}
	return nil
}

func isInput(el DomElement) bool {
	switch el.Tag {
	case "input", "textarea", "select":
	default:
		return false
	}
	return inputTypes[el.Type]
}

func isAction(el DomElement) bool {
	if el.Disabled {
		return false
	}
	return el.Tag == "button" || el.Tag == "a" || el.Role == "button" || el.Type == "submit"
}

func isOutput(el DomElement) bool {
	if isAction(el) || isInput(el) {
		return false
	}
	switch el.Tag {
	case "label", "legend", "option":
		return false
	}
	return len(strings.TrimSpace(el.Text)) > 2
}

func labelFor(el DomElement) string {
	if el.AriaLabel != "" {
		return strings.TrimSpace(el.AriaLabel)
	}
	return strings.TrimSpace(el.Text)
}

func toElement(el DomElement, kind ElementKind) Element {
	return Element{
		Kind:      kind,
		Label:     labelFor(el),
		Tag:       el.Tag,
		Role:      el.Role,
		InputType: el.Type,
	}
}
