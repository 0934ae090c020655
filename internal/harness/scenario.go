package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: a flow of ledger operations
// with expected outcomes, run against a fresh in-memory ledger.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Bootstrap is the principal granted every capability before the
	// flow starts.
	Bootstrap string `yaml:"bootstrap"`

	// Setup contains steps run before the main flow. Setup steps are
	// assumed to succeed; a failing one aborts the scenario.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the main steps, each with an expected outcome.
	Flow []Step `yaml:"flow"`

	// Assertions validate final state after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one ledger operation invocation.
type Step struct {
	// Op names the operation: register_act, validate_act, reject_act,
	// create_override, approve_override, register_version, audit_note,
	// grant, revoke.
	Op string `yaml:"op"`

	// As is the acting principal.
	As string `yaml:"as"`

	// Args are the operation arguments. Keys depend on the op; id
	// arguments reference acts and overrides by the order they were
	// created in the scenario (1 = first).
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Expect is the expected outcome code: "ok" (default) or a ledger
	// error code such as UNAUTHORIZED or ALREADY_CLOSED.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of act_state, trail_count, chain_ok, totals.
	Type string `yaml:"type"`

	// ActID references an act by creation order (used by act_state,
	// trail_count).
	ActID int64 `yaml:"act_id,omitempty"`

	// State is the expected lifecycle state (act_state).
	State string `yaml:"state,omitempty"`

	// Code is the expected suggested code (act_state, optional).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of trail entries (trail_count).
	Count int `yaml:"count,omitempty"`

	// Totals are the expected ledger counts (totals).
	Acts         int64 `yaml:"acts,omitempty"`
	AuditEntries int64 `yaml:"audit_entries,omitempty"`
}

// Assertion type constants.
const (
	AssertActState   = "act_state"
	AssertTrailCount = "trail_count"
	AssertChainOK    = "chain_ok"
	AssertTotals     = "totals"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Bootstrap == "" {
		return fmt.Errorf("bootstrap principal is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(&step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != "" && step.Expect != "ok" {
			return fmt.Errorf("setup[%d]: setup steps must succeed, expect %q not allowed", i, step.Expect)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(&step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(&a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if _, known := stepRunners[step.Op]; !known {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.As == "" {
		return fmt.Errorf("as is required")
	}
	return nil
}

func validateAssertion(a *Assertion) error {
	switch a.Type {
	case AssertActState:
		if a.ActID <= 0 {
			return fmt.Errorf("act_id is required for act_state")
		}
		if a.State == "" {
			return fmt.Errorf("state is required for act_state")
		}
	case AssertTrailCount:
		if a.ActID <= 0 {
			return fmt.Errorf("act_id is required for trail_count")
		}
		if a.Count <= 0 {
			return fmt.Errorf("count is required for trail_count")
		}
	case AssertChainOK, AssertTotals:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
