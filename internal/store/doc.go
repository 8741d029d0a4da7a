// Package store provides SQLite-backed durable storage for run logs.
//
// A run log is append-only and has two tables:
//   - Runs: one header per execution (domain, problem, initial state, versions)
//   - Steps: one row per applied action with the propositions it added and
//     removed and the hash of the resulting state
//
// # Ordering
//
// Steps are ordered by seq, a per-run logical clock. Wall time is never
// stored, so a replayed run produces byte-identical output.
//
// # Idempotency
//
// Rewriting a run ID or a (run_id, seq) pair is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Proposition lists are stored as canonical JSON arrays and state hashes are
// computed via internal/ir/hash.go.
package store
