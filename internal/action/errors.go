package action

import (
	"errors"
	"fmt"

	"github.com/roach88/symbolic/internal/symbolic"
)

// CallErrorCode categorizes user input errors.
type CallErrorCode string

const (
	// ErrCodeActionNotFound indicates no action schema has the requested name.
	ErrCodeActionNotFound CallErrorCode = "ACTION_NOT_FOUND"

	// ErrCodeArityMismatch indicates the call has the wrong number of arguments.
	ErrCodeArityMismatch CallErrorCode = "ARITY_MISMATCH"

	// ErrCodeTypeMismatch indicates an argument is not a subtype of its
	// parameter's declared type.
	ErrCodeTypeMismatch CallErrorCode = "TYPE_MISMATCH"

	// ErrCodeUnknownObject indicates an argument names no registered object.
	ErrCodeUnknownObject CallErrorCode = "UNKNOWN_OBJECT"

	// ErrCodeSyntax indicates the call text could not be parsed.
	ErrCodeSyntax CallErrorCode = "SYNTAX"
)

// CallError reports a malformed action call. The caller should reject the
// request; the domain itself is fine.
type CallError struct {
	Code CallErrorCode

	// Action is the action name from the call.
	Action string

	// Parameter is the offending formal parameter, when there is one.
	Parameter string

	// Argument is the offending argument token, when there is one.
	Argument string

	// Call is the original call text.
	Call string

	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// SchemaError reports a malformed action schema or domain. It is a defect in
// the domain data, not in the caller's request.
type SchemaError struct {
	Action  string
	Field   string
	Message string
	Err     error
}

func (e *SchemaError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("action %s: %s: %s", e.Action, e.Field, msg)
	}
	return fmt.Sprintf("action %s: %s", e.Action, msg)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsCallError returns true if err is (or wraps) a CallError.
func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}

// IsSchemaError returns true if err is (or wraps) a SchemaError from this
// package or from the symbolic runtime.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se) || symbolic.IsSchemaError(err)
}

// CallErrorCodeOf returns the code of a wrapped CallError, or "".
func CallErrorCodeOf(err error) CallErrorCode {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func wrapSchema(action, field string, err error) *SchemaError {
	return &SchemaError{Action: action, Field: field, Err: err}
}
