package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/magentaqin/wheelhouse/internal/engine"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Durations are stripped so the snapshot is byte-deterministic.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	RunToken     string         `json:"run_token,omitempty"`
	Status       string         `json:"status"`
	FailedStep   string         `json:"failed_step,omitempty"`
	Trace        []SnapshotStep `json:"trace"`
}

// SnapshotStep is one trace entry without timing noise.
type SnapshotStep struct {
	Seq      int64  `json:"seq"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

// Snapshot builds a deterministic snapshot from a scenario result.
func Snapshot(scenario *Scenario, result *Result) TraceSnapshot {
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		RunToken:     result.RunResult.RunID,
		Status:       string(result.RunResult.Status),
		FailedStep:   result.RunResult.FailedStep,
	}
	for _, sr := range result.Trace {
		snap.Trace = append(snap.Trace, SnapshotStep{
			Seq:      sr.Seq,
			Name:     sr.Name,
			Role:     string(sr.Role),
			Status:   string(sr.Status),
			ExitCode: sr.ExitCode,
			Error:    sr.Error,
		})
	}
	return snap
}

// RunWithGolden executes a scenario and compares the trace against its
// golden file under testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snap := Snapshot(scenario, result)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, append(data, '\n'))

	return result, nil
}

// statusOf is a small helper for assertions on a result's trace.
func statusOf(trace []engine.StepResult, name string) engine.StepStatus {
	for _, sr := range trace {
		if sr.Name == name {
			return sr.Status
		}
	}
	return ""
}
