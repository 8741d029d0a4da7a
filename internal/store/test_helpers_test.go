package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/symbolic/internal/ir"
)

// createTestStore creates a new store in a temporary directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run header with the given initial state.
func createTestRun(id string, initial ...string) ir.Run {
	if initial == nil {
		initial = []string{}
	}
	return ir.Run{
		ID:            id,
		Domain:        "blocks",
		Problem:       "three",
		DomainHash:    "domain-hash",
		ProblemHash:   "problem-hash",
		InitialState:  initial,
		InitialHash:   ir.MustStateHash(initial),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

// createTestStep creates a step whose state hash matches the given resulting
// state.
func createTestStep(runID string, seq int64, call string, added, removed, after []string) ir.Step {
	if added == nil {
		added = []string{}
	}
	if removed == nil {
		removed = []string{}
	}
	action, _, _ := strings.Cut(call, "(")
	return ir.Step{
		RunID:     runID,
		Seq:       seq,
		Call:      call,
		Action:    action,
		Changed:   len(added)+len(removed) > 0,
		Added:     added,
		Removed:   removed,
		StateHash: ir.MustStateHash(after),
	}
}

func mustWriteRun(t *testing.T, s *Store, run ir.Run) {
	t.Helper()
	if err := s.WriteRun(context.Background(), run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
}

func mustWriteStep(t *testing.T, s *Store, step ir.Step) {
	t.Helper()
	if err := s.WriteStep(context.Background(), step); err != nil {
		t.Fatalf("WriteStep() failed: %v", err)
	}
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
