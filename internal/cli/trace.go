package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/symbolic/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Action string // optional - filter to specific action
	States bool   // print the full state after each step
}

// TraceStep is a single step in the trace timeline.
type TraceStep struct {
	Seq       int64    `json:"seq"`
	Call      string   `json:"call"`
	Action    string   `json:"action"`
	Changed   bool     `json:"changed"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	StateHash string   `json:"state_hash"`
	State     []string `json:"state,omitempty"`
}

// RunVisit is a step of another run that reached the same state.
type RunVisit struct {
	RunID string `json:"run_id"`
	Seq   int64  `json:"seq"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID        string      `json:"run_id"`
	Domain       string      `json:"domain"`
	Problem      string      `json:"problem"`
	Strict       bool        `json:"strict"`
	InitialState []string    `json:"initial_state"`
	InitialHash  string      `json:"initial_hash"`
	Timeline     []TraceStep `json:"timeline"`
	FinalState   []string    `json:"final_state"`
	SharedFinal  []RunVisit  `json:"shared_final,omitempty"`
	Stats        TraceStats  `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Steps   int            `json:"steps"`
	Changed int            `json:"changed"`
	NoOps   int            `json:"no_ops"`
	Actions map[string]int `json:"actions"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [db] <run-id>",
		Short: "Show the recorded steps of a run",
		Long: `Show the recorded steps of a run, rebuilt from the run log.

Every step's state is rebuilt from the initial state and the recorded deltas,
and checked against the recorded state hash. The database defaults to
SYMBOLIC_DB when only the run id is given.

The output includes:
- Timeline: each step's call and its added and removed propositions
- Final state, and other runs that reached the same state
- Stats: step counts per action

Examples:
  symbolic trace ./runs.db 0190f5c2-...
  symbolic trace ./runs.db 0190f5c2-... --action move --states
  symbolic trace ./runs.db 0190f5c2-... --format json`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, runID := opts.Database, args[0]
			if len(args) == 2 {
				db, runID = args[0], args[1]
			}
			if db == "" {
				return NewExitError(ExitCommandError, "no database given and SYMBOLIC_DB is not set")
			}
			return runTrace(opts, db, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "filter timeline to one action")
	cmd.Flags().BoolVar(&opts.States, "states", false, "include the full state after each step")

	return cmd
}

func runTrace(opts *TraceOptions, db, runID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(db)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", nil, err)
	}
	defer st.Close()

	replay, err := st.ReplayRun(ctx, runID)
	if err != nil {
		return outputReplayError(formatter, runID, err)
	}

	result := buildTraceResult(replay, opts)

	visits, err := st.FindRunsByState(ctx, lastHash(replay))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query run log", err)
	}
	for _, v := range visits {
		if v.RunID != runID {
			result.SharedFinal = append(result.SharedFinal, RunVisit{RunID: v.RunID, Seq: v.Seq})
		}
	}

	if formatter.JSON() {
		return outputTraceJSON(formatter, result)
	}
	outputTraceText(formatter, result)
	return nil
}

// outputReplayError reports a run that could not be rebuilt.
func outputReplayError(formatter *OutputFormatter, runID string, err error) error {
	var mismatch *store.HashMismatchError
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		return formatter.Fail(ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run %s not found", runID), nil, err)
	case errors.As(err, &mismatch):
		return formatter.Fail(ExitFailure, ErrCodeHashMismatch, "run log is inconsistent", map[string]any{
			"seq":      mismatch.Seq,
			"expected": mismatch.Expected,
			"actual":   mismatch.Actual,
		}, err)
	default:
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", nil, err)
	}
}

func lastHash(replay store.Replay) string {
	if len(replay.Steps) == 0 {
		return replay.Run.InitialHash
	}
	return replay.Steps[len(replay.Steps)-1].Step.StateHash
}

func buildTraceResult(replay store.Replay, opts *TraceOptions) TraceResult {
	run := replay.Run
	result := TraceResult{
		RunID:        run.ID,
		Domain:       run.Domain,
		Problem:      run.Problem,
		Strict:       run.Strict,
		InitialState: run.InitialState,
		InitialHash:  run.InitialHash,
		Timeline:     []TraceStep{},
		FinalState:   replay.Final(),
		Stats:        TraceStats{Actions: map[string]int{}},
	}

	for _, rs := range replay.Steps {
		step := rs.Step
		result.Stats.Steps++
		result.Stats.Actions[step.Action]++
		if step.Changed {
			result.Stats.Changed++
		} else {
			result.Stats.NoOps++
		}

		if opts.Action != "" && step.Action != opts.Action {
			continue
		}
		ts := TraceStep{
			Seq:       step.Seq,
			Call:      step.Call,
			Action:    step.Action,
			Changed:   step.Changed,
			Added:     step.Added,
			Removed:   step.Removed,
			StateHash: step.StateHash,
		}
		if opts.States {
			ts.State = rs.State
		}
		result.Timeline = append(result.Timeline, ts)
	}

	return result
}

func outputTraceText(formatter *OutputFormatter, result TraceResult) {
	w := formatter.Writer
	mode := "lenient"
	if result.Strict {
		mode = "strict"
	}

	fmt.Fprintf(w, "Run %s\n", result.RunID)
	fmt.Fprintf(w, "  domain %s, problem %s, %s\n\n", result.Domain, result.Problem, mode)

	fmt.Fprintf(w, "Initial state %s:\n", shortHash(result.InitialHash))
	for _, prop := range result.InitialState {
		fmt.Fprintf(w, "  %s\n", prop)
	}

	fmt.Fprintln(w, "\nTimeline:")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no steps)")
	}
	for _, step := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s%s  %s\n", step.Seq, step.Call, formatDelta(step.Added, step.Removed), shortHash(step.StateHash))
		for _, prop := range step.State {
			fmt.Fprintf(w, "        %s\n", prop)
		}
	}

	fmt.Fprintln(w, "\nFinal state:")
	for _, prop := range result.FinalState {
		fmt.Fprintf(w, "  %s\n", prop)
	}

	if len(result.SharedFinal) > 0 {
		fmt.Fprintln(w, "\nAlso reached by:")
		for _, v := range result.SharedFinal {
			fmt.Fprintf(w, "  %s at step %d\n", v.RunID, v.Seq)
		}
	}

	fmt.Fprintf(w, "\nStats: %d step(s), %d changed, %d no-op\n", result.Stats.Steps, result.Stats.Changed, result.Stats.NoOps)
	for _, name := range slices.Sorted(maps.Keys(result.Stats.Actions)) {
		fmt.Fprintf(w, "  %s: %d\n", name, result.Stats.Actions[name])
	}
}

func outputTraceJSON(formatter *OutputFormatter, result TraceResult) error {
	return formatter.Respond(CLIResponse{Status: "ok", Data: result, RunID: result.RunID})
}
