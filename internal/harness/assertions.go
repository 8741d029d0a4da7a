package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/symbolic/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			if event.Failed() {
				fmt.Fprintf(&buf, "  [%d] %s refused: %s\n", i+1, event.Call, event.Error)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] %s +%v -%v\n", i+1, event.Call, event.Added, event.Removed)
		}
	}

	return buf.String()
}

// appliedCalls returns the calls of the steps that succeeded, in order.
func appliedCalls(trace []TraceEvent) []string {
	calls := make([]string, 0, len(trace))
	for _, event := range trace {
		if !event.Failed() {
			calls = append(calls, event.Call)
		}
	}
	return calls
}

// assertTraceContains checks that a step applied the given grounded call.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	if slices.Contains(appliedCalls(trace), assertion.Call) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("call %s", assertion.Call),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if calls were applied in the specified order.
// Calls don't need to be consecutive (intervening calls are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	calls := appliedCalls(trace)

	// Step 1: Find first position of each expected call
	positions := make(map[string]int)
	for i, call := range calls {
		if _, seen := positions[call]; !seen {
			positions[call] = i + 1 // 1-indexed for readability
		}
	}

	// Step 2: Verify all calls found
	for _, call := range assertion.Calls {
		if positions[call] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all calls present: %v", assertion.Calls),
				Actual:   fmt.Sprintf("missing call: %s", call),
				Trace:    trace,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Calls); i++ {
		prev := assertion.Calls[i-1]
		curr := assertion.Calls[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("calls in order: %v", assertion.Calls),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks the action was applied exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if !event.Failed() && event.Action == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertStateContains checks every listed proposition holds in the final state.
func assertStateContains(final []string, assertion Assertion) error {
	var missing []string
	for _, prop := range assertion.Props {
		if _, found := slices.BinarySearch(final, prop); !found {
			missing = append(missing, prop)
		}
	}
	if len(missing) > 0 {
		return &AssertionError{
			Type:     AssertStateContains,
			Expected: fmt.Sprintf("final state contains %v", assertion.Props),
			Actual:   fmt.Sprintf("missing %v from %v", missing, final),
		}
	}
	return nil
}

// assertStateAbsent checks no listed proposition holds in the final state.
func assertStateAbsent(final []string, assertion Assertion) error {
	var present []string
	for _, prop := range assertion.Props {
		if _, found := slices.BinarySearch(final, prop); found {
			present = append(present, prop)
		}
	}
	if len(present) > 0 {
		return &AssertionError{
			Type:     AssertStateAbsent,
			Expected: fmt.Sprintf("final state excludes %v", assertion.Props),
			Actual:   fmt.Sprintf("present %v", present),
		}
	}
	return nil
}

// assertRecordedSteps counts the steps the run log holds for the run.
// Refused calls are never recorded, so this can differ from the trace length.
func assertRecordedSteps(ctx context.Context, st *store.Store, runID string, assertion Assertion) error {
	rows, err := st.Query(ctx, "SELECT COUNT(*) FROM steps WHERE run_id = ?", runID)
	if err != nil {
		return &AssertionError{
			Type:     AssertRecordedSteps,
			Expected: fmt.Sprintf("query steps of run %s", runID),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return fmt.Errorf("scan step count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("count steps: %w", err)
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertRecordedSteps,
			Expected: fmt.Sprintf("%d recorded steps", assertion.Count),
			Actual:   fmt.Sprintf("%d recorded steps", count),
		}
	}
	return nil
}

// AssertionContext provides the run log for assertions that query it.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
	RunID string
}

// EvaluateAssertions runs all assertions and returns the failure messages.
// Every assertion is evaluated; failures do not short-circuit.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertStateContains:
			err = assertStateContains(result.FinalState, assertion)
		case AssertStateAbsent:
			err = assertStateAbsent(result.FinalState, assertion)
		case AssertRecordedSteps:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("recorded_steps assertion requires a run log")
			} else {
				ctx := actx.Ctx
				if ctx == nil {
					ctx = context.Background()
				}
				err = assertRecordedSteps(ctx, actx.Store, actx.RunID, assertion)
			}
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}

		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d (%s): %v", i, assertion.Type, err))
		}
	}

	return errors
}
