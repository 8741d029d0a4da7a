package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/symbolic/internal/engine"
	"github.com/roach88/symbolic/internal/ir"
	"github.com/roach88/symbolic/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	RunID string // optional - specific run only
	Specs string // optional - re-execute recorded calls against these specs
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Problem       string `json:"problem"`
	Steps         int    `json:"steps"`
	FinalHash     string `json:"final_hash,omitempty"`
	Consistent    bool   `json:"consistent"`       // recorded deltas reproduce recorded hashes
	Reexecuted    bool   `json:"reexecuted"`       // recorded calls were applied again
	Deterministic bool   `json:"deterministic"`    // re-execution reproduced every hash
	Detail        string `json:"detail,omitempty"` // first discrepancy, if any
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs      []ReplayRunResult `json:"runs"`
	TotalRuns int               `json:"total_runs"`
	AllValid  bool              `json:"all_valid"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [db]",
		Short: "Replay the run log and verify it",
		Long: `Replay every run in the run log and verify it.

Each run's states are rebuilt from the recorded deltas and checked against
the recorded state hashes. With --specs the recorded calls are also applied
again to a freshly grounded problem, and each resulting state hash must
match the recorded one.

Exit codes:
  0 - All runs verified
  1 - A run is inconsistent or not reproducible
  2 - Command error (database not found, etc.)

Examples:
  symbolic replay ./runs.db
  symbolic replay ./runs.db --run 0190f5c2-...
  symbolic replay ./runs.db --specs ./specs --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db := opts.Database
			if len(args) == 1 {
				db = args[0]
			}
			if db == "" {
				return NewExitError(ExitCommandError, "no database given and SYMBOLIC_DB is not set")
			}
			return runReplay(opts, db, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().StringVar(&opts.Specs, "specs", "", "re-execute recorded calls against this specs directory")

	return cmd
}

func runReplay(opts *ReplayOptions, db string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(db)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runIDs []string
	if opts.RunID != "" {
		runIDs = []string{opts.RunID}
	} else {
		runIDs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:      make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns: len(runIDs),
		AllValid:  true,
	}

	for _, runID := range runIDs {
		runResult, err := replayAndVerifyRun(ctx, st, runID, opts, cmd)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", runID), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Consistent || (runResult.Reexecuted && !runResult.Deterministic) {
			result.AllValid = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerifyRun rebuilds a run from its deltas and, when specs are
// given, applies its calls again.
func replayAndVerifyRun(ctx context.Context, st *store.Store, runID string, opts *ReplayOptions, cmd *cobra.Command) (ReplayRunResult, error) {
	replay, err := st.ReplayRun(ctx, runID)
	var mismatch *store.HashMismatchError
	switch {
	case errors.As(err, &mismatch):
		return ReplayRunResult{RunID: runID, Detail: mismatch.Error()}, nil
	case err != nil:
		return ReplayRunResult{}, err
	}

	result := ReplayRunResult{
		RunID:         runID,
		Problem:       replay.Run.Problem,
		Steps:         len(replay.Steps),
		FinalHash:     lastHash(replay),
		Consistent:    true,
		Deterministic: true,
	}

	if opts.Specs == "" {
		return result, nil
	}

	result.Reexecuted = true
	detail, err := reexecute(ctx, replay, opts, cmd)
	if err != nil {
		return ReplayRunResult{}, err
	}
	if detail != "" {
		result.Deterministic = false
		result.Detail = detail
	}
	return result, nil
}

// reexecute applies the recorded calls to a freshly grounded problem and
// returns the first discrepancy, or "" when every hash matches.
func reexecute(ctx context.Context, replay store.Replay, opts *ReplayOptions, cmd *cobra.Command) (string, error) {
	run := replay.Run
	p, err := loadPddl(opts.Specs, run.Problem)
	if err != nil {
		return "", err
	}

	domainHash, err := ir.DomainHash(*p.Domain())
	if err != nil {
		return "", err
	}
	if domainHash != run.DomainHash {
		return fmt.Sprintf("domain %s has changed since the run was recorded", run.Domain), nil
	}

	exec, err := engine.New(ctx, p,
		engine.WithLogger(opts.Logger(cmd)),
		engine.WithStrict(run.Strict),
		engine.WithMaxSteps(0),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(run.ID)),
	)
	if err != nil {
		return "", err
	}
	if exec.StateHash() != run.InitialHash {
		return fmt.Sprintf("initial state hash %s, recorded %s", exec.StateHash(), run.InitialHash), nil
	}

	for _, rs := range replay.Steps {
		res, err := exec.Execute(ctx, rs.Step.Call)
		if err != nil {
			return fmt.Sprintf("step %d %s: %v", rs.Step.Seq, rs.Step.Call, err), nil
		}
		if res.StateHash != rs.Step.StateHash {
			return fmt.Sprintf("step %d %s: state hash %s, recorded %s",
				rs.Step.Seq, rs.Step.Call, res.StateHash, rs.Step.StateHash), nil
		}
	}
	return "", nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllValid {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeHashMismatch,
			Message: "replay verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllValid {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)

	for _, run := range result.Runs {
		ok := run.Consistent && (!run.Reexecuted || run.Deterministic)
		status := "✓"
		if !ok {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunID)
		if verbose || !ok {
			fmt.Fprintf(w, "  Problem: %s\n", run.Problem)
			fmt.Fprintf(w, "  Steps: %d\n", run.Steps)
			if run.FinalHash != "" {
				fmt.Fprintf(w, "  Final state: %s\n", run.FinalHash)
			}
		} else {
			fmt.Fprintf(w, "  %s, %d step(s)\n", run.Problem, run.Steps)
		}
		if run.Detail != "" {
			fmt.Fprintf(w, "  Warning: %s\n", run.Detail)
		}
		fmt.Fprintln(w)
	}

	if result.AllValid {
		fmt.Fprintln(w, "✓ All runs verified")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
