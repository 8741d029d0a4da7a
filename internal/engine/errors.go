package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a call that parsed and grounded correctly but was
// refused by the executor.
//
// Runtime errors include:
//   - Precondition failed: strict mode and the precondition is false
//   - Quota exceeded: the run reached its max steps
//   - Cycle detected: the step would revisit an earlier state
//
// Parse and grounding failures are reported as *action.CallError instead.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Call is the grounded call that was refused.
	Call string

	// Seq is the step number the call would have taken.
	Seq int64

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodePreconditionFailed indicates a strict run refused a call whose
	// precondition does not hold.
	ErrCodePreconditionFailed RuntimeErrorCode = "PRECONDITION_FAILED"

	// ErrCodeQuotaExceeded indicates the run exceeded max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeCycleDetected indicates the step would return to a visited state.
	ErrCodeCycleDetected RuntimeErrorCode = "CYCLE_DETECTED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.RunID != "" && e.Call != "" {
		return fmt.Sprintf("%s: %s (run=%s, call=%s)", e.Code, e.Message, e.RunID, e.Call)
	}
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRuntimeError reports whether err is or wraps a *RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}

// RuntimeErrorCodeOf returns the code of a wrapped *RuntimeError, or "".
func RuntimeErrorCodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsPreconditionError returns true if the error is a failed precondition.
func IsPreconditionError(err error) bool {
	return RuntimeErrorCodeOf(err) == ErrCodePreconditionFailed
}

// IsCycleError returns true if the error is a cycle detection error.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return RuntimeErrorCodeOf(err) == ErrCodeCycleDetected
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
func IsQuotaError(err error) bool {
	if RuntimeErrorCodeOf(err) == ErrCodeQuotaExceeded {
		return true
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// NewPreconditionError creates a RuntimeError for a refused strict call.
func NewPreconditionError(runID, call, precondition string, seq int64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodePreconditionFailed,
		Message: "precondition does not hold",
		RunID:   runID,
		Call:    call,
		Seq:     seq,
		Details: map[string]string{"precondition": precondition},
	}
}

// NewCycleError creates a RuntimeError for a revisited state.
func NewCycleError(runID, call, stateHash string, seq int64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeCycleDetected,
		Message: "step would revisit an earlier state of the run",
		RunID:   runID,
		Call:    call,
		Seq:     seq,
		Details: map[string]string{"state_hash": stateHash},
	}
}

// NewQuotaError creates a RuntimeError for quota exceeded.
func NewQuotaError(runID string, steps, maxSteps int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeQuotaExceeded,
		Message: fmt.Sprintf("run exceeded max steps (%d > %d)", steps, maxSteps),
		RunID:   runID,
		Details: map[string]string{
			"steps":     fmt.Sprintf("%d", steps),
			"max_steps": fmt.Sprintf("%d", maxSteps),
		},
	}
}
