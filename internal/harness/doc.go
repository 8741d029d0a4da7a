// Package harness runs YAML scenarios against a domain and problem and checks
// the resulting trace and final state.
//
// # Scenario Format
//
//	name: tower_unstack
//	description: "Unstacking leaves every block on the table"
//	specs:
//	  - ../specs/blocks.cue
//	problem: tower
//	strict: true
//	run_id: run-tower-1
//	steps:
//	  - call: move(B, A, C)
//	    changed: true
//	  - call: move(A, table, C)
//	    error: PRECONDITION_FAILED
//	final_state:
//	  - clear(A)
//	  - on(A, table)
//	assertions:
//	  - type: trace_contains
//	    call: move(B, A, C)
//	  - type: state_absent
//	    props: [on(B, A)]
//
// Spec paths are resolved relative to the scenario file. A step's error is the
// code of the error it must fail with: a call error code such as
// ARITY_MISMATCH or a runtime code such as PRECONDITION_FAILED.
//
// # Assertion Types
//
//   - trace_contains: a step applied the given grounded call
//   - trace_order: the given calls were applied in this order
//   - trace_count: an action was applied exactly N times
//   - state_contains: every listed proposition holds at the end
//   - state_absent: no listed proposition holds at the end
//   - recorded_steps: the run log holds exactly N steps
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory SQLite run log with a fixed run ID
// (scenario run_id, or "test-run-default"), so the same scenario always
// produces the same trace. RunWithGolden compares that trace, serialised as
// canonical JSON, against testdata/golden/<name>.golden.
package harness
