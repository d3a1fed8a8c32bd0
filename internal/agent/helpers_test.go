package agent

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/llmclient"
	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/state"
	"github.com/xkilldash9x/uipilot/internal/trace"
)

// -- Mocks --

// MockDriver mocks the Driver interface.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Fill(ctx context.Context, target Target, value string) error {
	return m.Called(ctx, target, value).Error(0)
}

func (m *MockDriver) Click(ctx context.Context, target Target) error {
	return m.Called(ctx, target).Error(0)
}

// MockLLMClient mocks llmclient.Client.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, req llmclient.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// policyFunc adapts a function to the Policy interface.
type policyFunc func(*state.ScreenState, *canonical.SemanticStateDiff, *Memory) *Decision

func (f policyFunc) Decide(_ context.Context, s *state.ScreenState, d *canonical.SemanticStateDiff, m *Memory) *Decision {
	return f(s, d, m)
}

// recordingTracer keeps every event in memory.
type recordingTracer struct {
	mu     sync.Mutex
	events []trace.Event
}

func (r *recordingTracer) Record(e trace.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingTracer) last() trace.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// -- Fixtures --

func loginScreen() *state.ScreenState {
	primary := screen.Element{Kind: screen.KindAction, Label: "Sign in", Tag: "button", InputType: "submit"}
	page := screen.Page{
		Forms: []screen.Form{{
			ID: "login",
			Inputs: []screen.Element{
				{Kind: screen.KindInput, Label: "Email", Tag: "input", InputType: "email"},
				{Kind: screen.KindInput, Label: "Password", Tag: "input", InputType: "password"},
			},
			Actions:       []screen.Element{{Kind: screen.KindAction, Label: "Forgot password", Tag: "a"}, primary},
			PrimaryAction: &primary,
		}},
		StandaloneActions: []screen.Element{{Kind: screen.KindAction, Label: "Help", Tag: "a"}},
	}
	return state.BuildState("https://app.test/login", "Login", page)
}

func diffWith(signals ...canonical.Signal) *canonical.SemanticStateDiff {
	return &canonical.SemanticStateDiff{Signals: signals}
}

func act(a Action, confidence float64) Decision {
	return Decision{Type: DecisionAct, Action: &a, Confidence: confidence}
}
