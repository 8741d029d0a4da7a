// Package engine executes grounded action calls against a world state.
//
// An Executor owns one run: a compiled domain and problem, the current state
// and a logical clock. Each call to Execute parses a textual call such as
// "move(A, C)", optionally checks the action's precondition, applies its
// effects and, when a store is configured, appends the step to the run log.
//
// ORDERING:
//
// Steps are stamped with a per-run seq from Clock. Wall time is never used,
// so a run replayed from its log reproduces the same states and hashes.
//
// TERMINATION GUARDS:
//
//   - Max-steps quota: a run may apply at most N steps (WithMaxSteps).
//   - Cycle detection: with WithCycleDetection, a step that returns the run to
//     a state it already visited is rejected.
//
// Failed calls leave the state, the clock and the log untouched.
package engine
