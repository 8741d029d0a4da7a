package symbolic

import (
	"errors"
	"fmt"
)

// SchemaError reports an internal consistency failure in domain or problem
// data: the schema itself is malformed, not the caller's request.
//
// Schema errors include:
//   - Undeclared parameter: an atom references a formal not in scope
//   - Unknown type/object/predicate: a name that was never declared
//   - Arity mismatch: an atom with the wrong number of terms
//   - Type cycle: a type that is its own ancestor
//   - Invalid name: an object or predicate name that is not a plain symbol
type SchemaError struct {
	// Code identifies the error category.
	Code SchemaErrorCode

	// Field locates the problem, e.g. "actions.move.effects.add[0]".
	Field string

	// Message is a human-readable description.
	Message string
}

// SchemaErrorCode categorizes schema errors.
type SchemaErrorCode string

const (
	ErrCodeMissingDomain       SchemaErrorCode = "MISSING_DOMAIN"
	ErrCodeNoActions           SchemaErrorCode = "NO_ACTIONS"
	ErrCodeUndeclaredParameter SchemaErrorCode = "UNDECLARED_PARAMETER"
	ErrCodeUnknownObject       SchemaErrorCode = "UNKNOWN_OBJECT"
	ErrCodeUnknownType         SchemaErrorCode = "UNKNOWN_TYPE"
	ErrCodeUnknownPredicate    SchemaErrorCode = "UNKNOWN_PREDICATE"
	ErrCodeArityMismatch       SchemaErrorCode = "ARITY_MISMATCH"
	ErrCodeTypeMismatch        SchemaErrorCode = "TYPE_MISMATCH"
	ErrCodeTypeCycle           SchemaErrorCode = "TYPE_CYCLE"
	ErrCodeDuplicate           SchemaErrorCode = "DUPLICATE"
	ErrCodeInvalidCondition    SchemaErrorCode = "INVALID_CONDITION"
	ErrCodeInvalidName         SchemaErrorCode = "INVALID_NAME"
)

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// newSchemaError creates a SchemaError with a formatted message.
func newSchemaError(code SchemaErrorCode, field, format string, args ...any) *SchemaError {
	return &SchemaError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsSchemaError returns true if err is (or wraps) a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// SchemaErrorCodeOf returns the code of a wrapped SchemaError, or "".
func SchemaErrorCodeOf(err error) SchemaErrorCode {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// SyntaxError reports malformed call or proposition text supplied by a user.
type SyntaxError struct {
	Text    string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in %q: %s", e.Text, e.Message)
}
