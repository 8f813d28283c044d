// Package harness provides a conformance testing framework for the
// wheelhouse sequencer.
//
// Scenarios are YAML files describing one invocation: its inputs, the
// stubbed outcome of each step's external effect, and the expected run
// result and per-step statuses. The harness executes the real sequencer
// against fake effects, so guard evaluation, short-circuiting and result
// accumulation are all exercised for real; only the external world is
// stubbed.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are stored
	// under testdata/golden/{Name}.golden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Inputs are the invocation inputs.
	Inputs ScenarioInputs `yaml:"inputs"`

	// Stubs scripts step outcomes by step name. Steps without a stub
	// succeed. Skipped steps never consult their stub.
	Stubs []StepStub `yaml:"stubs,omitempty"`

	// Expect validates the run result and per-step statuses.
	Expect Expectation `yaml:"expect"`

	// RunToken is an optional fixed run token for deterministic golden
	// file comparison. Defaults to "test-run-default".
	RunToken string `yaml:"run_token,omitempty"`
}

// ScenarioInputs mirrors plan.Inputs in YAML form.
type ScenarioInputs struct {
	SHA    string `yaml:"sha"`
	Arch   string `yaml:"arch"`
	RunsOn string `yaml:"runs_on"`
}

// StepStub scripts the outcome of one step's effect.
type StepStub struct {
	// Step is the plan step name (e.g., "test common wheels").
	Step string `yaml:"step"`

	// ExitCode is the scripted exit code for command effects.
	ExitCode int `yaml:"exit_code,omitempty"`

	// Error, when non-empty, makes the effect fail before producing an
	// exit code (the action could not run at all).
	Error string `yaml:"error,omitempty"`
}

// Expectation validates the run outcome.
type Expectation struct {
	// Status is the expected run status: "pass", "fail" or "error".
	Status string `yaml:"status"`

	// FailedStep is the expected failing step name, if any.
	FailedStep string `yaml:"failed_step,omitempty"`

	// Steps lists expected per-step statuses. Subset match: steps not
	// listed are not checked.
	Steps []StepExpectation `yaml:"steps,omitempty"`
}

// StepExpectation is one expected per-step status.
type StepExpectation struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"` // "success", "failed", "skipped"
}

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks scenario completeness.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.Inputs.SHA == "" || s.Inputs.Arch == "" || s.Inputs.RunsOn == "" {
		return fmt.Errorf("inputs sha, arch and runs_on are all required")
	}
	switch s.Expect.Status {
	case "pass", "fail", "error":
	default:
		return fmt.Errorf("expect.status must be pass, fail or error (got %q)", s.Expect.Status)
	}
	for _, se := range s.Expect.Steps {
		switch se.Status {
		case "success", "failed", "skipped":
		default:
			return fmt.Errorf("step %q: unknown expected status %q", se.Name, se.Status)
		}
	}
	return nil
}
