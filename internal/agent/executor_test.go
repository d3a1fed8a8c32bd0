package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestExecutor(t *testing.T) (*Executor, *MockDriver) {
	t.Helper()
	d := new(MockDriver)
	t.Cleanup(func() { d.AssertExpectations(t) })
	return NewExecutor(d, 0, zaptest.NewLogger(t)), d
}

var (
	emailTarget  = Target{Name: "Email", Tag: "input", InputType: "email", FormID: "login"}
	signInTarget = Target{Name: "Sign in", Tag: "button", InputType: "submit", FormID: "login"}
)

func TestExecute_RequiresURL(t *testing.T) {
	e, _ := newTestExecutor(t)
	st := loginScreen()
	st.URL = ""

	err := e.Execute(context.Background(), Wait("x"), st)
	var execErr *Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ErrCodeMissingState, execErr.Code)
	assert.Equal(t, "Missing state: No URL in screen state", err.Error())

	assert.Error(t, e.Execute(context.Background(), Wait("x"), nil))
}

func TestExecute_FillInputByLabel(t *testing.T) {
	e, d := newTestExecutor(t)
	d.On("Fill", mock.Anything, emailTarget, "a@b.c").Return(nil).Once()

	require.NoError(t, e.Execute(context.Background(), FillInput("login", "Email", "a@b.c", ""), loginScreen()))
}

func TestExecute_IdentityTakesPrecedence(t *testing.T) {
	e, d := newTestExecutor(t)
	password := Target{Name: "Password", Tag: "input", InputType: "password", FormID: "login"}
	d.On("Fill", mock.Anything, password, "x").Return(nil).Once()

	// The identity points at Password even though the label says Email.
	action := FillInput("login", "Email", "x", "form:login:input:password")
	require.NoError(t, e.Execute(context.Background(), action, loginScreen()))
}

func TestExecute_StaleIdentityFallsBackToLabel(t *testing.T) {
	e, d := newTestExecutor(t)
	d.On("Fill", mock.Anything, emailTarget, "x").Return(nil).Once()

	action := FillInput("login", "Email", "x", "form:gone:input:email")
	require.NoError(t, e.Execute(context.Background(), action, loginScreen()))
}

func TestExecute_ElementNotFound(t *testing.T) {
	e, _ := newTestExecutor(t)

	err := e.Execute(context.Background(), FillInput("login", "Phone", "1", ""), loginScreen())
	assert.EqualError(t, err, "Element not found: Phone in form 'login'")

	err = e.Execute(context.Background(), SubmitForm("login", "Register", ""), loginScreen())
	assert.EqualError(t, err, "Element not found: Register in form 'login'")

	// Labels are scoped: an input label never matches an action lookup.
	err = e.Execute(context.Background(), SubmitForm("login", "Email", ""), loginScreen())
	assert.Error(t, err)

	err = e.Execute(context.Background(), ClickAction("Sign in", ""), loginScreen())
	assert.EqualError(t, err, "Element not found: Sign in in screen", "form actions are not standalone")
}

func TestExecute_SubmitAndClick(t *testing.T) {
	e, d := newTestExecutor(t)
	d.On("Click", mock.Anything, signInTarget).Return(nil).Once()
	d.On("Click", mock.Anything, Target{Name: "Help", Tag: "a"}).Return(nil).Once()

	require.NoError(t, e.Execute(context.Background(), SubmitForm("login", "Sign in", ""), loginScreen()))
	require.NoError(t, e.Execute(context.Background(), ClickAction("Help", ""), loginScreen()))
}

func TestExecute_FillAndSubmitForm(t *testing.T) {
	e, d := newTestExecutor(t)
	password := Target{Name: "Password", Tag: "input", InputType: "password", FormID: "login"}
	fillEmail := d.On("Fill", mock.Anything, emailTarget, "user@example.com").Return(nil).Once()
	fillPassword := d.On("Fill", mock.Anything, password, "TestPass123!").Return(nil).Once().NotBefore(fillEmail)
	d.On("Click", mock.Anything, signInTarget).Return(nil).Once().NotBefore(fillPassword)

	action := FillAndSubmitForm("login", []FieldValue{
		{Label: "Email", Value: "user@example.com"},
		{Label: "Password", Value: "TestPass123!"},
	}, "Sign in")
	require.NoError(t, e.Execute(context.Background(), action, loginScreen()))
}

func TestExecute_FillAndSubmitFormDefaultsToFirstAction(t *testing.T) {
	e, d := newTestExecutor(t)
	d.On("Click", mock.Anything, Target{Name: "Forgot password", Tag: "a", FormID: "login"}).Return(nil).Once()

	require.NoError(t, e.Execute(context.Background(), FillAndSubmitForm("login", nil, ""), loginScreen()))
}

func TestExecute_DriverFailureIsBrowserAction(t *testing.T) {
	e, d := newTestExecutor(t)
	d.On("Click", mock.Anything, signInTarget).Return(errors.New("node detached")).Once()

	err := e.Execute(context.Background(), SubmitForm("login", "Sign in", ""), loginScreen())
	var execErr *Error
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, ErrCodeBrowserAction, execErr.Code)
	assert.Equal(t, "Browser action failed: node detached", err.Error())
}

func TestExecute_DriverTypedErrorsPassThrough(t *testing.T) {
	e, d := newTestExecutor(t)
	d.On("Click", mock.Anything, signInTarget).Return(NewSessionIOError("pipe closed")).Once()

	err := e.Execute(context.Background(), SubmitForm("login", "Sign in", ""), loginScreen())
	assert.EqualError(t, err, "Session I/O error: pipe closed")
}

func TestExecute_WaitHonoursContext(t *testing.T) {
	e := NewExecutor(new(MockDriver), time.Hour, zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := e.Execute(ctx, Wait("slow"), loginScreen())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_WaitSleeps(t *testing.T) {
	e := NewExecutor(new(MockDriver), 10*time.Millisecond, zaptest.NewLogger(t))
	start := time.Now()
	require.NoError(t, e.Execute(context.Background(), Wait("short"), loginScreen()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestExecute_FormSubmittedIsNotDispatched(t *testing.T) {
	e, _ := newTestExecutor(t)
	require.NoError(t, e.Execute(context.Background(), FormSubmitted("login"), loginScreen()))
}

func TestExecute_UnknownKind(t *testing.T) {
	e, _ := newTestExecutor(t)
	assert.Error(t, e.Execute(context.Background(), Action{Kind: "Scroll"}, loginScreen()))
}
