package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/symbolic/internal/action"
	"github.com/roach88/symbolic/internal/engine"
	"github.com/roach88/symbolic/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Problem        string
	Strict         bool
	Database       string
	MaxSteps       int
	CycleDetection bool
	Resume         string // run id to continue
	Applicable     bool   // list applicable calls after the last step

	// RunIDGenerator allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator engine.RunIDGenerator
}

// AppliedStep is one successful step in the apply output.
type AppliedStep struct {
	Seq       int64    `json:"seq"`
	Call      string   `json:"call"`
	Action    string   `json:"action"`
	Changed   bool     `json:"changed"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	StateHash string   `json:"state_hash"`
}

// ApplyResult holds the outcome of an apply command.
type ApplyResult struct {
	RunID      string        `json:"run_id"`
	Problem    string        `json:"problem"`
	Strict     bool          `json:"strict"`
	Steps      []AppliedStep `json:"steps"`
	FinalState []string      `json:"final_state"`
	StateHash  string        `json:"state_hash"`
	Applicable []string      `json:"applicable,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return newApplyCommand(&ApplyOptions{RootOptions: rootOpts})
}

func newApplyCommand(opts *ApplyOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <specs-dir> [call...]",
		Short: "Apply grounded actions to a problem",
		Long: `Ground a problem and apply calls to its initial state in order.

Each call names an action and its objects, e.g. "move(B, A, table)". With
--strict a call whose precondition does not hold is refused. With --db every
step is recorded in a SQLite run log that trace and replay can read, and
--resume continues a recorded run.

Application stops at the first refused call; the steps before it are kept.

Exit codes:
  0 - All calls applied
  1 - A call was refused
  2 - Command error (invalid specs, database not found, etc.)

Examples:
  symbolic apply ./specs --problem tower "move(B, A, C)"
  symbolic apply ./specs --strict --db ./runs.db "move(B, A, C)" "unstack-all()"
  symbolic apply ./specs --db ./runs.db --resume <run-id> "move(B, C, table)"
  symbolic apply ./specs --applicable`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Problem, "problem", "", "problem to ground (optional when specs define one)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "refuse calls whose precondition does not hold")
	cmd.Flags().StringVar(&opts.Database, "db", opts.RootOptions.Database, "path to SQLite run log")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum steps per run (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.CycleDetection, "cycle-detection", false, "refuse steps that revisit an earlier state")
	cmd.Flags().StringVar(&opts.Resume, "resume", "", "continue the recorded run with this id (requires --db)")
	cmd.Flags().BoolVar(&opts.Applicable, "applicable", false, "list calls applicable in the final state")

	return cmd
}

func runApply(opts *ApplyOptions, specsDir string, calls []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.Logger(cmd)

	if opts.Resume != "" && opts.Database == "" {
		return NewExitError(ExitCommandError, "--resume requires --db")
	}

	p, err := loadPddl(specsDir, opts.Problem)
	if err != nil {
		_ = formatter.Error(errorCode(err), describe(err), nil)
		return WrapExitError(ExitCommandError, "failed to load problem", err)
	}
	formatter.VerboseLog("Grounded problem %s of domain %s", p.Problem().Name, p.Domain().Name)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMaxSteps(opts.MaxSteps),
	}
	if cmd.Flags().Changed("strict") || opts.Resume == "" {
		engineOpts = append(engineOpts, engine.WithStrict(opts.Strict))
	}
	if opts.CycleDetection {
		engineOpts = append(engineOpts, engine.WithCycleDetection(nil))
	}
	if opts.RunIDGenerator != nil {
		engineOpts = append(engineOpts, engine.WithRunIDGenerator(opts.RunIDGenerator))
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithStore(st))
	}

	var exec *engine.Executor
	if opts.Resume != "" {
		exec, err = engine.Resume(ctx, p, st, opts.Resume, engineOpts...)
		if errors.Is(err, store.ErrRunNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeRunNotFound, "failed to resume run",
				map[string]any{"run_id": opts.Resume}, err)
		}
	} else {
		exec, err = engine.New(ctx, p, engineOpts...)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start run", err)
	}

	result := ApplyResult{
		RunID:   exec.RunID(),
		Problem: p.Problem().Name,
		Strict:  exec.Strict(),
		Steps:   make([]AppliedStep, 0, len(calls)),
	}

	applied, stepErr := exec.ExecuteAll(ctx, calls)
	for _, res := range applied {
		result.Steps = append(result.Steps, AppliedStep{
			Seq:       res.Seq,
			Call:      res.Call,
			Action:    res.Action,
			Changed:   res.Changed,
			Added:     res.Added,
			Removed:   res.Removed,
			StateHash: res.StateHash,
		})
	}

	result.FinalState = exec.State().Keys()
	if result.FinalState == nil {
		result.FinalState = []string{}
	}
	result.StateHash = exec.StateHash()

	if opts.Applicable {
		applicable, err := exec.Applicable()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list applicable calls", err)
		}
		result.Applicable = applicable
	}

	var failure *engine.CallFailure
	if errors.As(stepErr, &failure) {
		return outputApplyFailure(formatter, result, failure.Call, failure.Err)
	}
	if stepErr != nil {
		return WrapExitError(ExitCommandError, "failed to apply calls", stepErr)
	}
	return outputApplySuccess(formatter, result)
}

// stepErrorCode maps a refused call to its stable code.
func stepErrorCode(err error) string {
	if code := action.CallErrorCodeOf(err); code != "" {
		return string(code)
	}
	if code := engine.RuntimeErrorCodeOf(err); code != "" {
		return string(code)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "CANCELED"
	}
	return ErrCodeGeneric
}

func outputApplySuccess(formatter *OutputFormatter, result ApplyResult) error {
	if formatter.JSON() {
		return formatter.Respond(CLIResponse{
			Status: "ok",
			Data:   result,
			RunID:  result.RunID,
		})
	}
	writeApplyText(formatter, result)
	return nil
}

func outputApplyFailure(formatter *OutputFormatter, result ApplyResult, call string, err error) error {
	code := stepErrorCode(err)
	if formatter.JSON() {
		if encErr := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   result,
			RunID:  result.RunID,
			Error: &CLIError{
				Code:    code,
				Message: err.Error(),
				Details: map[string]any{"call": call},
			},
		}); encErr != nil {
			return encErr
		}
	} else {
		writeApplyText(formatter, result)
		fmt.Fprintf(formatter.Writer, "\n✗ %s refused: %v\n", call, err)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("%s: call %q refused", code, call), err)
}

func writeApplyText(formatter *OutputFormatter, result ApplyResult) {
	w := formatter.Writer
	mode := "lenient"
	if result.Strict {
		mode = "strict"
	}
	fmt.Fprintf(w, "Run %s (problem %s, %s)\n", result.RunID, result.Problem, mode)

	for _, step := range result.Steps {
		fmt.Fprintf(w, "  [%d] %s%s\n", step.Seq, step.Call, formatDelta(step.Added, step.Removed))
	}

	fmt.Fprintf(w, "\nState %s:\n", shortHash(result.StateHash))
	for _, prop := range result.FinalState {
		fmt.Fprintf(w, "  %s\n", prop)
	}

	if len(result.Applicable) > 0 {
		fmt.Fprintln(w, "\nApplicable:")
		for _, call := range result.Applicable {
			fmt.Fprintf(w, "  %s\n", call)
		}
	}
}

// formatDelta renders added and removed propositions as "  +a -b", or
// "  (no change)".
func formatDelta(added, removed []string) string {
	if len(added) == 0 && len(removed) == 0 {
		return "  (no change)"
	}
	parts := make([]string, 0, len(added)+len(removed))
	for _, a := range added {
		parts = append(parts, "+"+a)
	}
	for _, r := range removed {
		parts = append(parts, "-"+r)
	}
	return "  " + strings.Join(parts, " ")
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
