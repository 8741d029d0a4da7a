package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/symbolic/internal/ir"
)

// ReplayedStep is a recorded step together with the state it produced.
type ReplayedStep struct {
	Step  ir.Step
	State []string // sorted propositions after the step
}

// Replay is a run rebuilt from its stored deltas.
type Replay struct {
	Run   ir.Run
	Steps []ReplayedStep
}

// Final returns the state after the last step, or the initial state when the
// run has no steps.
func (r Replay) Final() []string {
	if len(r.Steps) == 0 {
		return r.Run.InitialState
	}
	return r.Steps[len(r.Steps)-1].State
}

// ErrRunNotFound is returned by ReplayRun when no run has the given ID.
var ErrRunNotFound = errors.New("run not found")

// HashMismatchError reports a step whose recorded state hash does not match
// the state rebuilt from its deltas.
type HashMismatchError struct {
	RunID    string
	Seq      int64
	Expected string
	Actual   string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("run %s step %d: state hash %s does not match recorded %s",
		e.RunID, e.Seq, e.Actual, e.Expected)
}

// ReplayRun rebuilds every state of a run by applying the recorded deltas to
// the initial state, verifying each step's state hash along the way.
func (s *Store) ReplayRun(ctx context.Context, runID string) (Replay, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Replay{}, fmt.Errorf("replay %s: %w", runID, ErrRunNotFound)
		}
		return Replay{}, fmt.Errorf("replay %s: %w", runID, err)
	}

	initialHash, err := ir.StateHash(run.InitialState)
	if err != nil {
		return Replay{}, fmt.Errorf("replay %s: %w", runID, err)
	}
	if initialHash != run.InitialHash {
		return Replay{}, &HashMismatchError{RunID: runID, Seq: 0, Expected: run.InitialHash, Actual: initialHash}
	}

	steps, err := s.ReadSteps(ctx, runID)
	if err != nil {
		return Replay{}, fmt.Errorf("replay %s: %w", runID, err)
	}

	current := make(map[string]struct{}, len(run.InitialState))
	for _, p := range run.InitialState {
		current[p] = struct{}{}
	}

	replay := Replay{Run: run, Steps: make([]ReplayedStep, 0, len(steps))}
	for _, step := range steps {
		for _, p := range step.Added {
			current[p] = struct{}{}
		}
		for _, p := range step.Removed {
			delete(current, p)
		}

		state := make([]string, 0, len(current))
		for p := range current {
			state = append(state, p)
		}
		slices.Sort(state)

		hash, err := ir.StateHash(state)
		if err != nil {
			return Replay{}, fmt.Errorf("replay %s: %w", runID, err)
		}
		if hash != step.StateHash {
			return Replay{}, &HashMismatchError{RunID: runID, Seq: step.Seq, Expected: step.StateHash, Actual: hash}
		}

		replay.Steps = append(replay.Steps, ReplayedStep{Step: step, State: state})
	}

	return replay, nil
}

// FindRunsByState returns the steps across all runs whose resulting state has
// the given hash, ordered by run ID then seq.
func (s *Store) FindRunsByState(ctx context.Context, stateHash string) ([]ir.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, call, action, changed, added, removed, state_hash
		FROM steps
		WHERE state_hash = ?
		ORDER BY run_id COLLATE BINARY ASC, seq ASC
	`, stateHash)
	if err != nil {
		return nil, fmt.Errorf("find runs by state: %w", err)
	}
	defer rows.Close()

	steps := []ir.Step{}
	for rows.Next() {
		var (
			step           ir.Step
			changed        int
			added, removed string
		)
		if err := rows.Scan(&step.RunID, &step.Seq, &step.Call, &step.Action, &changed, &added, &removed, &step.StateHash); err != nil {
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
