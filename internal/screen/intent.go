package screen

import "strings"

const (
	IntentAuthentication = "Authentication"
	IntentUserInput      = "User Input"
	IntentUnknown        = "Unknown"
)

// InferIntent scores a form on authentication evidence: each password
// input and each sign-in style action adds 0.4.
func InferIntent(form Form) *FormIntent {
	var (
		score   float64
		signals []string
	)

	for _, input := range form.Inputs {
		if strings.Contains(strings.ToLower(input.Label), "password") || input.InputType == "password" {
			score += 0.4
			signals = append(signals, "input_type:password")
		}
	}
	for _, action := range form.Actions {
		lower := strings.ToLower(action.Label)
		if strings.Contains(lower, "sign") || strings.Contains(lower, "login") {
			score += 0.4
			signals = append(signals, "action_label:"+action.Label)
		}
	}

	label := IntentUnknown
	switch {
	case score > 0.7:
		label = IntentAuthentication
	case score > 0.4:
		label = IntentUserInput
	}
	return &FormIntent{
		Label:      label,
		Confidence: min(max(score, 0), 1),
		Signals:    signals,
	}
}
