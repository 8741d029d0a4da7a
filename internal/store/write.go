package store

import (
	"context"
	"fmt"

	"github.com/roach88/symbolic/internal/ir"
)

// WriteRun inserts a run header.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	initial, err := marshalProps(run.InitialState)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, domain, problem, domain_hash, problem_hash, initial_state, initial_hash, strict, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Domain,
		run.Problem,
		run.DomainHash,
		run.ProblemHash,
		initial,
		run.InitialHash,
		boolToInt(run.Strict),
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteStep inserts one applied step.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting (run_id, seq) is a no-op.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteStep(ctx context.Context, step ir.Step) error {
	added, err := marshalProps(step.Added)
	if err != nil {
		return fmt.Errorf("write step: %w", err)
	}
	removed, err := marshalProps(step.Removed)
	if err != nil {
		return fmt.Errorf("write step: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO steps
		(run_id, seq, call, action, changed, added, removed, state_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		step.RunID,
		step.Seq,
		step.Call,
		step.Action,
		boolToInt(step.Changed),
		added,
		removed,
		step.StateHash,
	)
	if err != nil {
		return fmt.Errorf("write step: %w", err)
	}

	return nil
}
