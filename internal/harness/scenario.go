// Package harness provides a conformance testing framework for the
// resolution engine.
//
// Scenarios are YAML documents declaring a rule set, initial given
// facts, and a sequence of steps (ask / assert / forget / reset) with
// expectations on answers, dependency sets, and error codes. The
// harness runs each scenario against a real Facts instance - nothing
// is stubbed - collects the resolution trace through the engine's
// recorder hook, and compares it against golden files.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Rules holds rule declarations in the textual line syntax,
	// registered in order (registration order is the priority tie-break).
	Rules []string `yaml:"rules"`

	// Given seeds the fact store: question -> scalar value.
	Given map[string]any `yaml:"given,omitempty"`

	// Steps is the scripted interaction with the fact store.
	Steps []Step `yaml:"steps"`
}

// Step is one scripted action. Exactly one of Ask, Assert, Forget, or
// Reset must be set.
type Step struct {
	// Ask resolves a question.
	Ask string `yaml:"ask,omitempty"`

	// Expect is the answer Ask must produce. Scalar, matched by
	// variant and value.
	Expect any `yaml:"expect,omitempty"`

	// ExpectDeps is the exact dependency set Ask must report.
	// Nil skips the check; an empty list requires an empty set.
	ExpectDeps []string `yaml:"expect_deps,omitempty"`

	// ExpectError names the error the Ask must fail with:
	// "no_matching_rule" or "cycle_detected".
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assert sets a given fact.
	Assert *FactStep `yaml:"assert,omitempty"`

	// Forget removes a given fact.
	Forget string `yaml:"forget,omitempty"`

	// Reset drops the inferred cache.
	Reset bool `yaml:"reset,omitempty"`
}

// FactStep names a question/value pair for an assert step.
type FactStep struct {
	Question string `yaml:"question"`
	Value    any    `yaml:"value"`
}

// Validate checks scenario well-formedness before execution.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q: at least one step is required", s.Name)
	}
	for i, step := range s.Steps {
		set := 0
		if step.Ask != "" {
			set++
		}
		if step.Assert != nil {
			set++
		}
		if step.Forget != "" {
			set++
		}
		if step.Reset {
			set++
		}
		if set != 1 {
			return fmt.Errorf("scenario %q: step %d must set exactly one of ask, assert, forget, reset", s.Name, i)
		}
		if step.Ask == "" && (step.Expect != nil || step.ExpectDeps != nil || step.ExpectError != "") {
			return fmt.Errorf("scenario %q: step %d: expectations are only valid on ask steps", s.Name, i)
		}
		if step.Expect != nil && step.ExpectError != "" {
			return fmt.Errorf("scenario %q: step %d: expect and expect_error are mutually exclusive", s.Name, i)
		}
	}
	return nil
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}
