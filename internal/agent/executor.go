// File: internal/agent/executor.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/state"
)

// Executor resolves actions against the current screen and drives them
// through a Driver.
type Executor struct {
	driver Driver
	wait   time.Duration
	logger *zap.Logger
}

// NewExecutor creates an executor. wait is how long a Wait action pauses.
func NewExecutor(driver Driver, wait time.Duration, logger *zap.Logger) *Executor {
	return &Executor{
		driver: driver,
		wait:   wait,
		logger: logger.Named("executor"),
	}
}

// Execute performs one action. Elements are found by identity first and
// then by label within the action's scope.
func (e *Executor) Execute(ctx context.Context, action Action, st *state.ScreenState) (err error) {
	ctx, span := tracer.Start(ctx, "Executor.Execute")
	span.SetAttributes(attribute.String("action.kind", string(action.Kind)))
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
			var execErr *Error
			if errors.As(err, &execErr) {
				result = string(execErr.Code)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		observability.RecordExecution(string(action.Kind), result)
		span.End()
	}()

	if st == nil || st.URL == "" {
		return NewMissingStateError("No URL in screen state")
	}

	switch action.Kind {
	case ActionFillInput:
		return e.fill(ctx, st, action.FormID, action.InputLabel, action.Value, action.Identity)

	case ActionSubmitForm:
		target, err := e.formAction(st, action.FormID, action.ActionLabel, action.Identity)
		if err != nil {
			return err
		}
		e.logger.Info("Submitting form", zap.String("form_id", action.FormID), zap.String("action_label", action.ActionLabel))
		return e.click(ctx, target)

	case ActionFillAndSubmitForm:
		for _, fv := range action.Values {
			if err := e.fill(ctx, st, action.FormID, fv.Label, fv.Value, ""); err != nil {
				return err
			}
		}
		label := action.SubmitLabel
		if label == "" {
			label = firstFormAction(st, action.FormID)
		}
		target, err := e.formAction(st, action.FormID, label, "")
		if err != nil {
			return err
		}
		e.logger.Info("Submitting form", zap.String("form_id", action.FormID), zap.String("action_label", label))
		return e.click(ctx, target)

	case ActionClick:
		ident, ok := resolve(st, action.Identity, func(el state.IdentifiedElement) bool {
			return el.Scope == state.ScreenScope && el.Element.Kind == screen.KindAction && el.Element.Label == action.Label
		})
		if !ok {
			return NewElementNotFoundError(action.Label, "screen")
		}
		e.logger.Info("Clicking standalone action", zap.String("id", ident.ID), zap.String("label", action.Label))
		return e.click(ctx, targetFor(ident, ""))

	case ActionWait:
		e.logger.Info("Waiting", zap.String("reason", action.Reason), zap.Duration("duration", e.wait))
		if e.wait <= 0 {
			return nil
		}
		timer := time.NewTimer(e.wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}

	case ActionFormSubmitted:
		e.logger.Debug("Form submission confirmed, nothing to execute", zap.String("form_id", action.FormID))
		return nil

	default:
		return fmt.Errorf("unsupported action kind %q", action.Kind)
	}
}

func (e *Executor) fill(ctx context.Context, st *state.ScreenState, formID, label, value, identity string) error {
	scope := state.FormScope(formID)
	ident, ok := resolve(st, identity, func(el state.IdentifiedElement) bool {
		return el.Scope == scope && el.Element.Kind == screen.KindInput && el.Element.Label == label
	})
	if !ok {
		return NewElementNotFoundError(label, fmt.Sprintf("form '%s'", formID))
	}
	e.logger.Info("Filling input", zap.String("id", ident.ID), zap.String("label", label))
	if err := e.driver.Fill(ctx, targetFor(ident, formID), value); err != nil {
		return wrapDriverError(err)
	}
	return nil
}

func (e *Executor) formAction(st *state.ScreenState, formID, label, identity string) (Target, error) {
	scope := state.FormScope(formID)
	ident, ok := resolve(st, identity, func(el state.IdentifiedElement) bool {
		return el.Scope == scope && el.Element.Kind == screen.KindAction && el.Element.Label == label
	})
	if !ok {
		return Target{}, NewElementNotFoundError(label, fmt.Sprintf("form '%s'", formID))
	}
	return targetFor(ident, formID), nil
}

func (e *Executor) click(ctx context.Context, target Target) error {
	if err := e.driver.Click(ctx, target); err != nil {
		return wrapDriverError(err)
	}
	return nil
}

// resolve prefers the identity when it is still on screen.
func resolve(st *state.ScreenState, identity string, match func(state.IdentifiedElement) bool) (state.IdentifiedElement, bool) {
	if identity != "" {
		if ident, ok := st.Lookup(identity); ok {
			return ident, true
		}
	}
	return st.Find(match)
}

func firstFormAction(st *state.ScreenState, formID string) string {
	for _, f := range st.Forms {
		if f.ID == formID && len(f.Actions) > 0 {
			return f.Actions[0].Label
		}
	}
	return ""
}

func targetFor(ident state.IdentifiedElement, formID string) Target {
	return Target{
		Role:      ident.Element.Role,
		Name:      ident.Element.Label,
		Tag:       ident.Element.Tag,
		InputType: ident.Element.InputType,
		FormID:    formID,
	}
}

// wrapDriverError keeps typed errors and context errors intact.
func wrapDriverError(err error) error {
	var execErr *Error
	if errors.As(err, &execErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewBrowserActionError(err.Error())
}
