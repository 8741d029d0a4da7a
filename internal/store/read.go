package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/symbolic/internal/ir"
)

// ReadRun retrieves a run header by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, domain, problem, domain_hash, problem_hash, initial_state, initial_hash, strict, engine_version, ir_version
		FROM runs
		WHERE id = ?
	`, id)

	var (
		run     ir.Run
		initial string
		strict  int
	)
	err := row.Scan(
		&run.ID,
		&run.Domain,
		&run.Problem,
		&run.DomainHash,
		&run.ProblemHash,
		&initial,
		&run.InitialHash,
		&strict,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return ir.Run{}, err
		}
		return ir.Run{}, fmt.Errorf("read run: %w", err)
	}

	run.InitialState, err = unmarshalProps(initial)
	if err != nil {
		return ir.Run{}, fmt.Errorf("read run: %w", err)
	}
	run.Strict = strict != 0
	return run, nil
}

// ReadSteps returns all steps of a run ordered by seq.
// Returns an empty slice (not nil) if the run has no steps.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]ir.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, call, action, changed, added, removed, state_hash
		FROM steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []ir.Step{}
	for rows.Next() {
		var (
			step           ir.Step
			changed        int
			added, removed string
		)
		if err := rows.Scan(
			&step.RunID,
			&step.Seq,
			&step.Call,
			&step.Action,
			&changed,
			&added,
			&removed,
			&step.StateHash,
		); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Changed = changed != 0
		if step.Added, err = unmarshalProps(added); err != nil {
			return nil, err
		}
		if step.Removed, err = unmarshalProps(removed); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}

	return steps, nil
}

// ListRuns returns the IDs of all recorded runs in ID order. UUIDv7 IDs sort
// by creation time.
func (s *Store) ListRuns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return ids, nil
}
