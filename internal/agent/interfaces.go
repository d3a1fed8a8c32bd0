// File: internal/agent/interfaces.go
package agent

import (
	"context"

	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/state"
	"github.com/xkilldash9x/uipilot/internal/trace"
)

// Policy proposes the next action. A nil Decision means no opinion.
// Implementations must treat memory as read-only.
type Policy interface {
	Decide(ctx context.Context, screen *state.ScreenState, diff *canonical.SemanticStateDiff, memory *Memory) *Decision
}

// Tracer receives one event per agent step.
type Tracer interface {
	Record(event trace.Event)
}

// Target describes a live element by its semantic hints.
type Target struct {
	Role      string `json:"role,omitempty"`
	Name      string `json:"name,omitempty"`
	Tag       string `json:"tag,omitempty"`
	InputType string `json:"input_type,omitempty"`
	FormID    string `json:"form_id,omitempty"`
}

// Driver performs element level operations against a live page.
type Driver interface {
	Fill(ctx context.Context, target Target, value string) error
	Click(ctx context.Context, target Target) error
}
