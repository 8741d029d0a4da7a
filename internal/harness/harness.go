package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/symbolic/internal/action"
	"github.com/roach88/symbolic/internal/compiler"
	"github.com/roach88/symbolic/internal/engine"
	"github.com/roach88/symbolic/internal/store"
	"github.com/roach88/symbolic/internal/symbolic"
	"github.com/roach88/symbolic/internal/testutil"
)

// Option configures a scenario run.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger routes executor logs to l. Scenario runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a fixed
// run ID so traces are reproducible.
//
// Execution flow:
// 1. Load, compile and validate the scenario's specs
// 2. Ground the selected problem
// 3. Execute steps, comparing each outcome with its expectation
// 4. Replay the run log and cross-check the final state
// 5. Evaluate final_state and assertions
//
// A returned error means the scenario could not be run at all. Expectation
// and assertion failures are reported through Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: testutil.DiscardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p, err := loadPddl(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	engineOpts := []engine.Option{
		engine.WithStore(st),
		engine.WithLogger(cfg.logger),
		engine.WithStrict(scenario.Strict),
		engine.WithRunIDGenerator(testutil.NewFixedRunID(scenario.RunID)),
	}
	if scenario.MaxSteps > 0 {
		engineOpts = append(engineOpts, engine.WithMaxSteps(scenario.MaxSteps))
	}
	if scenario.CycleDetection {
		engineOpts = append(engineOpts, engine.WithCycleDetection(nil))
	}

	exec, err := engine.New(ctx, p, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	result := NewResult()
	result.RunID = exec.RunID()

	for i, step := range scenario.Steps {
		executeStep(ctx, exec, i, step, result)
	}

	replay, err := st.ReplayRun(ctx, exec.RunID())
	if err != nil {
		return nil, fmt.Errorf("failed to replay run: %w", err)
	}

	final := exec.State().Keys()
	if final == nil {
		final = []string{}
	}
	result.FinalState = final

	if !slices.Equal(replay.Final(), final) {
		result.AddError(fmt.Sprintf("replayed state %v does not match executed state %v", replay.Final(), final))
	}

	if scenario.FinalState != nil {
		expected := slices.Clone(scenario.FinalState)
		slices.Sort(expected)
		if !slices.Equal(expected, final) {
			result.AddError(fmt.Sprintf("final_state: expected %v, got %v", expected, final))
		}
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
		RunID: exec.RunID(),
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// loadPddl compiles the scenario's specs and grounds the selected problem.
func loadPddl(scenario *Scenario) (*symbolic.Pddl, error) {
	loaded, errs := compiler.LoadPaths(scenario.Specs, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load specs: %w", errs[0])
	}

	domain, problem, err := loaded.SelectProblem(scenario.Problem)
	if err != nil {
		return nil, err
	}

	if verrs := compiler.Validate(domain); len(verrs) > 0 {
		return nil, fmt.Errorf("domain %s: %w", domain.Name, verrs[0])
	}
	if verrs := compiler.ValidateProblem(domain, problem); len(verrs) > 0 {
		return nil, fmt.Errorf("problem %s: %w", problem.Name, verrs[0])
	}

	p, err := symbolic.NewPddl(*domain, *problem)
	if err != nil {
		return nil, fmt.Errorf("failed to ground problem %s: %w", problem.Name, err)
	}
	return p, nil
}

// executeStep runs one call and checks it against the step's expectation.
// Failed calls leave the run untouched, so later steps still execute.
func executeStep(ctx context.Context, exec *engine.Executor, i int, step Step, result *Result) {
	res, err := exec.Execute(ctx, step.Call)
	if err != nil {
		code := errorCode(err)
		result.AddFailureTrace(step.Call, code)
		switch {
		case step.Error == "":
			result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Call, err))
		case step.Error != code:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %s", i, step.Call, step.Error, code))
		}
		return
	}

	result.AddStepTrace(TraceEvent{
		Seq:       res.Seq,
		Call:      res.Call,
		Action:    res.Action,
		Changed:   res.Changed,
		Added:     res.Added,
		Removed:   res.Removed,
		StateHash: res.StateHash,
	})

	if step.Error != "" {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, call succeeded", i, step.Call, step.Error))
		return
	}
	if step.Changed != nil && *step.Changed != res.Changed {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected changed=%t, got %t", i, step.Call, *step.Changed, res.Changed))
	}
}

// errorCode maps an executor error to its stable code.
func errorCode(err error) string {
	if code := action.CallErrorCodeOf(err); code != "" {
		return string(code)
	}
	if code := engine.RuntimeErrorCodeOf(err); code != "" {
		return string(code)
	}
	if engine.IsStepsExceededError(err) {
		return string(engine.ErrCodeQuotaExceeded)
	}
	return "ERROR"
}
