package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/symbolic/internal/action"
	"github.com/roach88/symbolic/internal/ir"
	"github.com/roach88/symbolic/internal/store"
	"github.com/roach88/symbolic/internal/symbolic"
)

// DefaultMaxSteps is the default maximum number of steps per run.
const DefaultMaxSteps = 1000

// StepResult describes one applied step.
type StepResult struct {
	Seq       int64
	Call      string // grounded call, e.g. "move(A, C)"
	Action    string
	Changed   bool
	Added     []string
	Removed   []string
	State     symbolic.State // state after the step
	StateHash string
}

// Executor applies grounded calls to the state of a single run.
//
// Thread-safety: Execute and the accessors may be called from any goroutine;
// steps are serialised by an internal mutex.
type Executor struct {
	mu sync.Mutex

	pddl   *symbolic.Pddl
	state  symbolic.State
	hash   string
	clock  *Clock
	runID  string
	runGen RunIDGenerator
	store  *store.Store
	logger *slog.Logger
	strict bool

	maxSteps int
	quota    *QuotaEnforcer
	cycles   *CycleDetector
}

// Option configures an Executor.
type Option func(*Executor)

// WithStore records the run and every applied step in s.
func WithStore(s *store.Store) Option {
	return func(e *Executor) {
		e.store = s
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStrict refuses calls whose precondition does not hold in the current
// state. Without it preconditions are not checked and effects apply anyway.
func WithStrict(strict bool) Option {
	return func(e *Executor) {
		e.strict = strict
	}
}

// WithMaxSteps sets the maximum steps quota per run.
//
// Default: 1000 steps (DefaultMaxSteps). Zero disables the quota.
func WithMaxSteps(maxSteps int) Option {
	return func(e *Executor) {
		e.maxSteps = maxSteps
	}
}

// WithCycleDetection refuses steps that return the run to a visited state.
// A nil detector gets a fresh one.
func WithCycleDetection(d *CycleDetector) Option {
	return func(e *Executor) {
		if d == nil {
			d = NewCycleDetector()
		}
		e.cycles = d
	}
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Executor) {
		if g != nil {
			e.runGen = g
		}
	}
}

func newExecutor(p *symbolic.Pddl, opts []Option) *Executor {
	e := &Executor{
		pddl:     p,
		runGen:   UUIDv7Generator{},
		logger:   slog.Default(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.quota = NewQuotaEnforcer(e.maxSteps)
	return e
}

// New starts a run at p's initial state. When a store is configured the run
// header is written before New returns.
func New(ctx context.Context, p *symbolic.Pddl, opts ...Option) (*Executor, error) {
	if p == nil {
		return nil, errors.New("engine: pddl is nil")
	}

	e := newExecutor(p, opts)
	e.runID = e.runGen.Generate()
	e.clock = NewClock()
	e.state = p.InitialState()

	hash, err := ir.StateHash(e.state.Keys())
	if err != nil {
		return nil, fmt.Errorf("engine: initial state: %w", err)
	}
	e.hash = hash

	if e.store != nil {
		run, err := e.runHeader()
		if err != nil {
			return nil, err
		}
		if err := e.store.WriteRun(ctx, run); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	if e.cycles != nil {
		e.cycles.Record(e.runID, e.hash)
	}

	e.logger.Info("run started",
		"run_id", e.runID,
		"domain", p.Domain().Name,
		"problem", p.Problem().Name,
		"strict", e.strict,
		"state_hash", e.hash,
	)
	return e, nil
}

// Resume continues a recorded run. The run's steps are replayed from s and
// verified, the clock and quota continue from the last step, and new steps
// are appended to the same run. The run's strict flag is restored unless an
// option overrides it.
func Resume(ctx context.Context, p *symbolic.Pddl, s *store.Store, runID string, opts ...Option) (*Executor, error) {
	if p == nil {
		return nil, errors.New("engine: pddl is nil")
	}
	if s == nil {
		return nil, errors.New("engine: store is nil")
	}

	replay, err := s.ReplayRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("engine: resume: %w", err)
	}

	domainHash, err := ir.DomainHash(*p.Domain())
	if err != nil {
		return nil, fmt.Errorf("engine: resume: %w", err)
	}
	if domainHash != replay.Run.DomainHash {
		return nil, fmt.Errorf("engine: resume: run %s was recorded against a different version of domain %s", runID, replay.Run.Domain)
	}
	problemHash, err := ir.ProblemHash(*p.Problem())
	if err != nil {
		return nil, fmt.Errorf("engine: resume: %w", err)
	}
	if problemHash != replay.Run.ProblemHash {
		return nil, fmt.Errorf("engine: resume: run %s was recorded against problem %s, not this version of %s",
			runID, replay.Run.Problem, p.Problem().Name)
	}

	state, err := p.ParseState(replay.Final())
	if err != nil {
		return nil, fmt.Errorf("engine: resume: %w", err)
	}

	opts = append([]Option{WithStrict(replay.Run.Strict)}, opts...)
	opts = append(opts, WithStore(s))
	e := newExecutor(p, opts)
	e.runID = runID
	e.state = state
	e.hash = replay.Run.InitialHash

	var last int64
	if e.cycles != nil {
		e.cycles.Record(runID, replay.Run.InitialHash)
	}
	for _, rs := range replay.Steps {
		last = rs.Step.Seq
		e.hash = rs.Step.StateHash
		if e.cycles != nil {
			e.cycles.Record(runID, rs.Step.StateHash)
		}
	}
	e.clock = NewClockAt(last)
	e.quota.current = len(replay.Steps)

	e.logger.Info("run resumed",
		"run_id", runID,
		"seq", last,
		"state_hash", e.hash,
	)
	return e, nil
}

func (e *Executor) runHeader() (ir.Run, error) {
	domainHash, err := ir.DomainHash(*e.pddl.Domain())
	if err != nil {
		return ir.Run{}, fmt.Errorf("engine: %w", err)
	}
	problemHash, err := ir.ProblemHash(*e.pddl.Problem())
	if err != nil {
		return ir.Run{}, fmt.Errorf("engine: %w", err)
	}
	return ir.Run{
		ID:            e.runID,
		Domain:        e.pddl.Domain().Name,
		Problem:       e.pddl.Problem().Name,
		DomainHash:    domainHash,
		ProblemHash:   problemHash,
		InitialState:  e.state.Keys(),
		InitialHash:   e.hash,
		Strict:        e.strict,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}, nil
}

// Execute parses call, grounds it against the run's objects, and applies it.
//
// Errors:
//   - *action.CallError: the call is malformed or does not ground
//   - *RuntimeError: strict precondition, quota, or cycle refusal
//   - context and store errors, wrapped
//
// On any error the state, clock and log are unchanged.
func (e *Executor) Execute(ctx context.Context, call string) (StepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}

	act, args, err := action.ParseAction(e.pddl, call)
	if err != nil {
		e.logger.Warn("call rejected", "run_id", e.runID, "call", call, "error", err)
		return StepResult{}, err
	}
	grounded := act.Call(args)
	seq := e.clock.Current() + 1

	if e.strict && !act.IsValid(e.state, args) {
		err := NewPreconditionError(e.runID, grounded, act.Preconditions().String(), seq)
		e.logger.Warn("precondition failed", "run_id", e.runID, "call", grounded, "seq", seq)
		return StepResult{}, err
	}

	if err := e.quota.Check(e.runID); err != nil {
		e.quota.Release()
		e.logger.Error("max steps quota exceeded",
			"run_id", e.runID,
			"call", grounded,
			"max_steps", e.quota.MaxSteps(),
		)
		qe := NewQuotaError(e.runID, e.quota.Current()+1, e.quota.MaxSteps())
		qe.Call = grounded
		qe.Seq = seq
		return StepResult{}, qe
	}

	next := e.state.Clone()
	changed := act.ApplyInPlace(args, &next)
	added, removed := e.state.Diff(next)
	if added == nil {
		added = []string{}
	}
	if removed == nil {
		removed = []string{}
	}

	hash, err := ir.StateHash(next.Keys())
	if err != nil {
		e.quota.Release()
		return StepResult{}, fmt.Errorf("engine: step %d: %w", seq, err)
	}

	if e.cycles != nil && changed && e.cycles.WouldCycle(e.runID, hash) {
		e.quota.Release()
		e.logger.Warn("cycle detected", "run_id", e.runID, "call", grounded, "state_hash", hash)
		return StepResult{}, NewCycleError(e.runID, grounded, hash, seq)
	}

	if e.store != nil {
		step := ir.Step{
			RunID:     e.runID,
			Seq:       seq,
			Call:      grounded,
			Action:    act.Name(),
			Changed:   changed,
			Added:     added,
			Removed:   removed,
			StateHash: hash,
		}
		if err := e.store.WriteStep(ctx, step); err != nil {
			e.quota.Release()
			return StepResult{}, fmt.Errorf("engine: record step %d: %w", seq, err)
		}
	}

	e.clock.Next()
	e.state = next
	e.hash = hash
	if e.cycles != nil {
		e.cycles.Record(e.runID, hash)
	}

	e.logger.Info("step applied",
		"run_id", e.runID,
		"seq", seq,
		"call", grounded,
		"changed", changed,
	)
	e.logger.Debug("step delta",
		"run_id", e.runID,
		"seq", seq,
		"added", added,
		"removed", removed,
		"state_hash", hash,
	)

	return StepResult{
		Seq:       seq,
		Call:      grounded,
		Action:    act.Name(),
		Changed:   changed,
		Added:     added,
		Removed:   removed,
		State:     next.Clone(),
		StateHash: hash,
	}, nil
}

// CallFailure is returned by ExecuteAll when a call in the sequence fails.
// Index is 1-based.
type CallFailure struct {
	Index int
	Call  string
	Err   error
}

func (f *CallFailure) Error() string {
	return fmt.Sprintf("call %d %q: %v", f.Index, f.Call, f.Err)
}

func (f *CallFailure) Unwrap() error { return f.Err }

// ExecuteAll executes calls in order and stops at the first error, returned
// as a *CallFailure. The results of the steps applied before the error are
// returned with it.
func (e *Executor) ExecuteAll(ctx context.Context, calls []string) ([]StepResult, error) {
	results := make([]StepResult, 0, len(calls))
	for i, call := range calls {
		res, err := e.Execute(ctx, call)
		if err != nil {
			return results, &CallFailure{Index: i + 1, Call: call, Err: err}
		}
		results = append(results, res)
	}
	return results, nil
}

// Applicable returns every grounded call whose precondition holds in the
// current state, in action declaration order then argument order. Actions
// sharing a name with an earlier action are skipped, matching Execute's
// first-match lookup.
func (e *Executor) Applicable() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	calls := []string{}
	seen := make(map[string]bool)
	for i := range e.pddl.ActionSymbols() {
		schema := &e.pddl.ActionSymbols()[i]
		if seen[schema.Name] {
			continue
		}
		seen[schema.Name] = true

		act, err := action.New(e.pddl, schema)
		if err != nil {
			return nil, err
		}
		for args := range act.Arguments().All() {
			if act.IsValid(e.state, args) {
				calls = append(calls, act.Call(args))
			}
		}
	}
	return calls, nil
}

// RunID returns the identifier of the run.
func (e *Executor) RunID() string { return e.runID }

// Strict reports whether preconditions are enforced.
func (e *Executor) Strict() bool { return e.strict }

// MaxSteps returns the configured max steps quota.
func (e *Executor) MaxSteps() int { return e.maxSteps }

// Pddl returns the domain and problem the run executes against.
func (e *Executor) Pddl() *symbolic.Pddl { return e.pddl }

// State returns a copy of the current state.
func (e *Executor) State() symbolic.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// StateHash returns the content hash of the current state.
func (e *Executor) StateHash() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hash
}

// Seq returns the seq of the last applied step, 0 before the first.
func (e *Executor) Seq() int64 {
	return e.clock.Current()
}
