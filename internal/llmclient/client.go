// internal/llmclient/client.go
package llmclient

import "context"

// GenerationRequest is a single prompt sent to a text generation model.
type GenerationRequest struct {
	Prompt string
	// ForceJSON asks the model to constrain its output to a JSON object.
	ForceJSON bool
}

// Client generates a completion for a prompt.
type Client interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
