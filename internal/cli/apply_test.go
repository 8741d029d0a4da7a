package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyText(t *testing.T) {
	output, err := applyWithRunID(t, "text", "run-1", specsDir, "move(B, A, C)", "move(B,C,table)")
	require.NoError(t, err)

	assert.Contains(t, output, "Run run-1 (problem tower, lenient)")
	assert.Contains(t, output, "[1] move(B, A, C)  +clear(A) +on(B, C) -clear(C) -on(B, A)")
	assert.Contains(t, output, "[2] move(B, C, table)  +clear(C) +on(B, table) -on(B, C)")
	assert.Contains(t, output, "  on(B, table)\n")
}

func TestApplyJSON(t *testing.T) {
	output, err := applyWithRunID(t, "json", "run-1", specsDir, "--problem", "tower", "unstack-all()", "unstack-all()")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		RunID  string      `json:"run_id"`
		Data   ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.RunID)

	require.Len(t, resp.Data.Steps, 2)
	assert.True(t, resp.Data.Steps[0].Changed)
	assert.False(t, resp.Data.Steps[1].Changed)
	assert.Empty(t, resp.Data.Steps[1].Added)
	assert.Equal(t, resp.Data.Steps[0].StateHash, resp.Data.Steps[1].StateHash)
	assert.Equal(t, resp.Data.Steps[1].StateHash, resp.Data.StateHash)
	assert.Equal(t, []string{
		"clear(A)", "clear(B)", "clear(C)", "clear(table)",
		"on(A, table)", "on(B, table)", "on(C, table)",
	}, resp.Data.FinalState)
}

func TestApplyNoCallsShowsInitialState(t *testing.T) {
	output, err := applyWithRunID(t, "text", "run-1", specsDir)
	require.NoError(t, err)
	assert.Contains(t, output, "State 9f4d0ab3da4b:")
	assert.Contains(t, output, "  on(B, A)\n")
}

func TestApplyApplicable(t *testing.T) {
	output, err := applyWithRunID(t, "json", "run-1", specsDir, "--applicable")
	require.NoError(t, err)

	var resp struct {
		Data ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, []string{
		"move(B, A, table)",
		"move(B, A, C)",
		"move(C, table, table)",
		"move(C, table, B)",
		"unstack-all()",
	}, resp.Data.Applicable)
}

func TestApplyRefusedCalls(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode string
		applied  int
	}{
		{"precondition", []string{"--strict", "move(B, A, C)", "move(A, table, C)"}, "PRECONDITION_FAILED", 1},
		{"unknown action", []string{"stack(A, B)"}, "ACTION_NOT_FOUND", 0},
		{"arity", []string{"move(A, B)"}, "ARITY_MISMATCH", 0},
		{"type", []string{"move(table, A, B)"}, "TYPE_MISMATCH", 0},
		{"unknown object", []string{"move(D, A, B)"}, "UNKNOWN_OBJECT", 0},
		{"quota", []string{"--max-steps", "1", "unstack-all()", "unstack-all()"}, "QUOTA_EXCEEDED", 1},
		{"cycle", []string{"--cycle-detection", "move(B, A, C)", "move(B, C, A)"}, "CYCLE_DETECTED", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{specsDir}, tt.args...)
			output, err := applyWithRunID(t, "json", "run-1", args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp struct {
				Status string      `json:"status"`
				Data   ApplyResult `json:"data"`
				Error  *CLIError   `json:"error"`
			}
			require.NoError(t, json.Unmarshal([]byte(output), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Len(t, resp.Data.Steps, tt.applied)
		})
	}
}

func TestApplyRefusedCallText(t *testing.T) {
	output, err := applyWithRunID(t, "text", "run-1", specsDir, "--strict", "move(A, table, C)")
	require.Error(t, err)
	assert.Contains(t, output, "Run run-1 (problem tower, strict)")
	assert.Contains(t, output, "✗ move(A, table, C) refused: PRECONDITION_FAILED")
}

func TestApplyCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown problem", []string{specsDir, "--problem", "nope"}, "failed to load problem"},
		{"invalid specs", []string{invalidDir}, "failed to load problem"},
		{"resume without db", []string{specsDir, "--resume", "run-1"}, "--resume requires --db"},
		{"resume unknown run", []string{specsDir, "--db", filepath.Join(t.TempDir(), "x.db"), "--resume", "nope"}, "failed to resume run"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyWithRunID(t, "text", "run-1", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyResume(t *testing.T) {
	db := recordRun(t, "run-1", "move(B, A, C)")

	output, err := applyWithRunID(t, "json", "unused", specsDir, "--db", db, "--resume", "run-1", "move(B, C, table)")
	require.NoError(t, err)

	var resp struct {
		Data ApplyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.True(t, resp.Data.Strict, "strict mode is restored from the run")
	require.Len(t, resp.Data.Steps, 1)
	assert.Equal(t, int64(2), resp.Data.Steps[0].Seq)
}
