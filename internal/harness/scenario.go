package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a layout scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Flow is the sequence of operations to execute.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation in a scenario flow.
type Step struct {
	// Op is one of load, update, get, bootstrap, advance.
	Op string `yaml:"op"`

	// User, Path and Device select the layout context. Empty values take
	// the layout package defaults.
	User   string `yaml:"user,omitempty"`
	Path   string `yaml:"path,omitempty"`
	Device string `yaml:"device,omitempty"`

	// Settings is the partial document for update.
	Settings map[string]any `yaml:"settings,omitempty"`

	// Advance is the clock step for advance.
	Advance time.Duration `yaml:"advance,omitempty"`

	// Expect validates the step's outcome. If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected error class: validation, not_found or
	// unavailable. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`

	// Seeded is the expected bootstrap result.
	Seeded *bool `yaml:"seeded,omitempty"`

	// ID is the expected record ID.
	ID string `yaml:"id,omitempty"`

	// Settings is a subset match against the returned document.
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of record_count, final_state, trace_count, same_record.
	Type string `yaml:"type"`

	// Count is the expected number (record_count, trace_count).
	Count int `yaml:"count,omitempty"`

	// Op is the operation counted by trace_count.
	Op string `yaml:"op,omitempty"`

	// User, Path and Device select the record for final_state.
	User   string `yaml:"user,omitempty"`
	Path   string `yaml:"path,omitempty"`
	Device string `yaml:"device,omitempty"`

	// Expect is a subset match against the stored settings (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Steps lists flow indices that must share one record ID (same_record).
	Steps []int `yaml:"steps,omitempty"`
}

// Operation names.
const (
	OpLoad      = "load"
	OpUpdate    = "update"
	OpGet       = "get"
	OpBootstrap = "bootstrap"
	OpAdvance   = "advance"
)

// Assertion type constants.
const (
	AssertRecordCount = "record_count"
	AssertFinalState  = "final_state"
	AssertTraceCount  = "trace_count"
	AssertSameRecord  = "same_record"
)

// Error classes used by Expect.Error and TraceEvent.Error.
const (
	ErrClassValidation  = "validation"
	ErrClassNotFound    = "not_found"
	ErrClassUnavailable = "unavailable"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields (typos) and missing required fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
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

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Flow)); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	switch step.Op {
	case OpLoad, OpGet, OpBootstrap:
	case OpUpdate:
		if step.Settings == nil {
			return fmt.Errorf("flow[%d]: settings is required for update (use {} for none)", index)
		}
	case OpAdvance:
		if step.Advance <= 0 {
			return fmt.Errorf("flow[%d]: advance must be positive", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	if step.Expect != nil {
		switch step.Expect.Error {
		case "", ErrClassValidation, ErrClassNotFound, ErrClassUnavailable:
		default:
			return fmt.Errorf("flow[%d].expect: unknown error class %q", index, step.Expect.Error)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, flowLen int) error {
	switch a.Type {
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertSameRecord:
		if len(a.Steps) < 2 {
			return fmt.Errorf("assertions[%d]: same_record needs at least two steps", index)
		}
		for _, i := range a.Steps {
			if i < 0 || i >= flowLen {
				return fmt.Errorf("assertions[%d]: step %d out of range", index, i)
			}
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
