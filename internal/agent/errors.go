// internal/agent/errors.go
package agent

import "fmt"

// ErrorCode classifies failures of the execution layer.
type ErrorCode string

const (
	// -- Subprocess and transport --
	ErrCodeSubprocessSpawn  ErrorCode = "SUBPROCESS_SPAWN"
	ErrCodeSubprocessFailed ErrorCode = "SUBPROCESS_FAILED"

	// -- Serialization --
	ErrCodeJSONParse     ErrorCode = "JSON_PARSE"
	ErrCodeJSONSerialize ErrorCode = "JSON_SERIALIZE"

	// -- Browser/DOM --
	ErrCodeBrowserAction   ErrorCode = "BROWSER_ACTION"
	ErrCodeDOMStructure    ErrorCode = "DOM_STRUCTURE"
	ErrCodeElementNotFound ErrorCode = "ELEMENT_NOT_FOUND"

	// -- State and session --
	ErrCodeMissingState    ErrorCode = "MISSING_STATE"
	ErrCodeSessionIO       ErrorCode = "SESSION_IO"
	ErrCodeSessionProtocol ErrorCode = "SESSION_PROTOCOL"
)

// Error is a typed execution failure. Only JSON errors carry a cause.
type Error struct {
	Code    ErrorCode
	Detail  string
	Element string // ELEMENT_NOT_FOUND: what was looked for.
	Context string // ELEMENT_NOT_FOUND and JSON errors: where.
	Command string // SESSION_PROTOCOL: the failing command.
	Err     error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeSubprocessSpawn:
		return "Failed to spawn subprocess: " + e.Detail
	case ErrCodeSubprocessFailed:
		return "Subprocess failed: " + e.Detail
	case ErrCodeJSONParse:
		return fmt.Sprintf("JSON parse error (%s): %v", e.Context, e.Err)
	case ErrCodeJSONSerialize:
		return fmt.Sprintf("JSON serialize error (%s): %v", e.Context, e.Err)
	case ErrCodeBrowserAction:
		return "Browser action failed: " + e.Detail
	case ErrCodeDOMStructure:
		return "Unexpected DOM structure: " + e.Detail
	case ErrCodeElementNotFound:
		return fmt.Sprintf("Element not found: %s in %s", e.Element, e.Context)
	case ErrCodeMissingState:
		return "Missing state: " + e.Detail
	case ErrCodeSessionIO:
		return "Session I/O error: " + e.Detail
	case ErrCodeSessionProtocol:
		return fmt.Sprintf("Session protocol error in %s: %s", e.Command, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func NewSubprocessSpawnError(detail string) *Error {
	return &Error{Code: ErrCodeSubprocessSpawn, Detail: detail}
}

func NewSubprocessFailedError(detail string) *Error {
	return &Error{Code: ErrCodeSubprocessFailed, Detail: detail}
}

func NewJSONParseError(context string, err error) *Error {
	return &Error{Code: ErrCodeJSONParse, Context: context, Err: err}
}

func NewJSONSerializeError(context string, err error) *Error {
	return &Error{Code: ErrCodeJSONSerialize, Context: context, Err: err}
}

// NewBrowserActionError reports a fill or click the browser could not perform.
func NewBrowserActionError(detail string) *Error {
	return &Error{Code: ErrCodeBrowserAction, Detail: detail}
}

func NewDOMStructureError(detail string) *Error {
	return &Error{Code: ErrCodeDOMStructure, Detail: detail}
}

func NewElementNotFoundError(element, context string) *Error {
	return &Error{Code: ErrCodeElementNotFound, Element: element, Context: context}
}

func NewMissingStateError(detail string) *Error {
	return &Error{Code: ErrCodeMissingState, Detail: detail}
}

func NewSessionIOError(detail string) *Error {
	return &Error{Code: ErrCodeSessionIO, Detail: detail}
}

func NewSessionProtocolError(command, detail string) *Error {
	return &Error{Code: ErrCodeSessionProtocol, Command: command, Detail: detail}
}
