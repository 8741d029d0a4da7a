package ir

// Run is the header of one recorded execution: which domain and problem it
// ran against and the state it started from.
type Run struct {
	ID            string   `json:"id"`
	Domain        string   `json:"domain"`
	Problem       string   `json:"problem"`
	DomainHash    string   `json:"domain_hash"`
	ProblemHash   string   `json:"problem_hash"`
	InitialState  []string `json:"initial_state"`
	InitialHash   string   `json:"initial_hash"`
	Strict        bool     `json:"strict"`
	EngineVersion string   `json:"engine_version"`
	IRVersion     string   `json:"ir_version"`
}

// Step is one applied action within a run. Added and Removed are the
// rendered propositions that changed; StateHash identifies the state after
// the step.
type Step struct {
	RunID     string   `json:"run_id"`
	Seq       int64    `json:"seq"`
	Call      string   `json:"call"`
	Action    string   `json:"action"`
	Changed   bool     `json:"changed"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	StateHash string   `json:"state_hash"`
}
