package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/plan"
	"github.com/magentaqin/wheelhouse/internal/testutil"
)

// Result holds the outcome of executing one scenario.
type Result struct {
	// RunResult is the sequencer's result.
	RunResult *engine.Result

	// Trace is the recorded step trace, in seq order.
	Trace []engine.StepResult

	// Failures lists expectation mismatches. Empty means the scenario
	// passed.
	Failures []string
}

// Passed reports whether all expectations held.
func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

// Run executes a scenario against the real sequencer with fake effects.
//
// Execution flow:
//  1. Build the default plan sequence for the scenario inputs
//  2. Stub each scripted step outcome on the fake effects
//  3. Run the sequencer with a fixed run token and recording trace
//  4. Evaluate the scenario's expectations against the result
func Run(scenario *Scenario) (*Result, error) {
	inputs := plan.Inputs{
		SHA:    scenario.Inputs.SHA,
		Arch:   scenario.Inputs.Arch,
		RunsOn: scenario.Inputs.RunsOn,
	}
	if err := inputs.Validate(); err != nil {
		return nil, fmt.Errorf("scenario inputs: %w", err)
	}

	bindings, err := plan.DeriveBindings("/work")
	if err != nil {
		return nil, fmt.Errorf("derive bindings: %w", err)
	}
	steps := plan.Sequence(plan.DefaultProfile(), inputs, bindings)

	effects := testutil.NewFakeEffects()
	byName := make(map[string]plan.Step, len(steps))
	for _, s := range steps {
		byName[s.Name] = s
	}
	for _, stub := range scenario.Stubs {
		step, ok := byName[stub.Step]
		if !ok {
			return nil, fmt.Errorf("stub references unknown step %q", stub.Step)
		}
		out := testutil.Outcome{ExitCode: stub.ExitCode}
		if stub.Error != "" {
			out.Err = errors.New(stub.Error)
		}
		effects.Stub(testutil.DetailKey(step), out)
	}

	token := scenario.RunToken
	if token == "" {
		token = "test-run-default"
	}

	trace := &testutil.RecordingTrace{}
	sequencer := engine.New(inputs, steps, effects, trace,
		engine.WithRunTokenGenerator(engine.NewFixedGenerator(token)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	runResult, err := sequencer.Run(context.Background())
	if err != nil {
		return nil, fmt.Errorf("run scenario: %w", err)
	}

	result := &Result{RunResult: runResult, Trace: trace.Steps}
	evaluate(scenario, result)
	return result, nil
}

// evaluate checks the scenario expectations and records mismatches.
func evaluate(scenario *Scenario, result *Result) {
	got := result.RunResult

	if string(got.Status) != scenario.Expect.Status {
		result.Failures = append(result.Failures,
			fmt.Sprintf("status: expected %q, got %q", scenario.Expect.Status, got.Status))
	}
	if scenario.Expect.FailedStep != "" && got.FailedStep != scenario.Expect.FailedStep {
		result.Failures = append(result.Failures,
			fmt.Sprintf("failed_step: expected %q, got %q", scenario.Expect.FailedStep, got.FailedStep))
	}

	byName := make(map[string]engine.StepResult, len(result.Trace))
	for _, sr := range result.Trace {
		byName[sr.Name] = sr
	}
	for _, se := range scenario.Expect.Steps {
		sr, ok := byName[se.Name]
		if !ok {
			result.Failures = append(result.Failures,
				fmt.Sprintf("step %q: no trace entry", se.Name))
			continue
		}
		if string(sr.Status) != se.Status {
			result.Failures = append(result.Failures,
				fmt.Sprintf("step %q: expected status %q, got %q", se.Name, se.Status, sr.Status))
		}
	}
}
