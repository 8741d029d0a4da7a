package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a test scenario: a problem, a sequence of calls with
// their expected outcomes, and assertions on the trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE files or directories defining the domain and problem.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// Problem selects a problem by name. May be empty when the specs define
	// exactly one problem.
	Problem string `yaml:"problem,omitempty"`

	// Strict refuses calls whose precondition does not hold.
	Strict bool `yaml:"strict,omitempty"`

	// MaxSteps overrides the executor's max steps quota when positive.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// CycleDetection refuses steps that revisit an earlier state.
	CycleDetection bool `yaml:"cycle_detection,omitempty"`

	// RunID is an optional fixed run ID for deterministic traces.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Steps are executed in order. A failing step does not stop the scenario.
	Steps []Step `yaml:"steps"`

	// FinalState, when present, must equal the final state exactly (order
	// does not matter). An empty list expects an empty state.
	FinalState []string `yaml:"final_state,omitempty"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one call with its expected outcome.
type Step struct {
	// Call is the textual call, e.g. "move(A, table, B)".
	Call string `yaml:"call"`

	// Changed, if set, must match whether the step changed the state.
	Changed *bool `yaml:"changed,omitempty"`

	// Error, if set, is the error code the call must fail with.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check a grounded call was applied
	// - "trace_order": Check calls were applied in order
	// - "trace_count": Check an action was applied exactly N times
	// - "state_contains": Check propositions hold at the end
	// - "state_absent": Check propositions do not hold at the end
	// - "recorded_steps": Check the run log holds exactly N steps
	Type string `yaml:"type"`

	// Call is the grounded call (used by trace_contains).
	Call string `yaml:"call,omitempty"`

	// Calls is the expected call order (used by trace_order).
	Calls []string `yaml:"calls,omitempty"`

	// Action is the action name (used by trace_count).
	Action string `yaml:"action,omitempty"`

	// Count is the expected number of occurrences (used by trace_count and
	// recorded_steps).
	Count int `yaml:"count,omitempty"`

	// Props are rendered propositions (used by state_contains and state_absent).
	Props []string `yaml:"props,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertStateContains = "state_contains"
	AssertStateAbsent   = "state_absent"
	AssertRecordedSteps = "recorded_steps"
)

// LoadScenario reads and parses a scenario YAML file, resolving spec paths
// relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve spec paths relative to base path BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or validating spec
// paths.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, step := range s.Steps {
		if strings.TrimSpace(step.Call) == "" {
			return fmt.Errorf("steps[%d]: call is required", i)
		}
		if step.Error != "" && step.Changed != nil {
			return fmt.Errorf("steps[%d]: changed cannot be set on a step that expects an error", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertStateContains, AssertStateAbsent:
		if len(a.Props) == 0 {
			return fmt.Errorf("assertions[%d]: props list is required for %s", index, a.Type)
		}
	case AssertRecordedSteps:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for recorded_steps", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
