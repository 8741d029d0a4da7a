package harness

// TraceEvent is one scenario step as the executor saw it. Failed steps carry
// the error code and no seq.
type TraceEvent struct {
	Seq       int64    `json:"seq,omitempty"`
	Call      string   `json:"call"`
	Action    string   `json:"action,omitempty"`
	Changed   bool     `json:"changed"`
	Added     []string `json:"added,omitempty"`
	Removed   []string `json:"removed,omitempty"`
	StateHash string   `json:"state_hash,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Failed reports whether the step was refused.
func (e TraceEvent) Failed() bool { return e.Error != "" }

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step matched its expectation and every assertion held.
	Pass bool `json:"pass"`

	// RunID identifies the run in the scenario's run log.
	RunID string `json:"run_id"`

	// Trace contains one event per scenario step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalState is the sorted list of propositions after the last step.
	FinalState []string `json:"final_state"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Trace:      []TraceEvent{},
		Errors:     []string{},
		FinalState: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace appends an applied step to the trace.
func (r *Result) AddStepTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}

// AddFailureTrace appends a refused step to the trace.
func (r *Result) AddFailureTrace(call, code string) {
	r.Trace = append(r.Trace, TraceEvent{Call: call, Error: code})
}
