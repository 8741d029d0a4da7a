package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symbolic/internal/engine"
)

var (
	specsDir     = filepath.Join("testdata", "specs")
	invalidDir   = filepath.Join("testdata", "invalid")
	scenariosDir = filepath.Join("testdata", "scenarios")
)

// execute runs cmd with args and returns stdout and the command error.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// executeRoot runs the full command tree with a fixed configuration.
func executeRoot(t *testing.T, cfg Config, args ...string) (string, error) {
	t.Helper()
	return execute(t, NewRootCommandWithConfig(cfg), args...)
}

func defaultConfig() Config {
	return Config{Format: "text", LogLevel: "warn"}
}

// applyWithRunID runs apply with a fixed run id.
func applyWithRunID(t *testing.T, format, runID string, args ...string) (string, error) {
	t.Helper()
	cmd := newApplyCommand(&ApplyOptions{
		RootOptions:    &RootOptions{Format: format, LogLevel: "warn"},
		RunIDGenerator: engine.NewFixedGenerator(runID),
	})
	return execute(t, cmd, args...)
}

// recordRun applies calls to the tower problem in a fresh database and
// returns its path.
func recordRun(t *testing.T, runID string, calls ...string) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	args := append([]string{specsDir, "--db", db, "--strict"}, calls...)
	_, err := applyWithRunID(t, "text", runID, args...)
	require.NoError(t, err)
	return db
}
