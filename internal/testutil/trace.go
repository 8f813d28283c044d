package testutil

import (
	"context"
	"sync"

	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/plan"
)

// RecordingTrace is an in-memory engine.TraceWriter.
//
// It captures the exact write sequence the sequencer produces, so tests can
// assert on trace ordering without a database.
type RecordingTrace struct {
	mu         sync.Mutex
	RunID      string
	Inputs     plan.Inputs
	Steps      []engine.StepResult
	Finished   bool
	Status     engine.RunStatus
	FailedStep string

	// FailOn, when non-empty, makes the write for that step name fail.
	// Used to exercise trace-persistence error paths.
	FailOn string
	// Err is returned when FailOn triggers.
	Err error
}

// BeginRun implements engine.TraceWriter.
func (r *RecordingTrace) BeginRun(ctx context.Context, runID string, in plan.Inputs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RunID = runID
	r.Inputs = in
	return nil
}

// WriteStepResult implements engine.TraceWriter.
func (r *RecordingTrace) WriteStepResult(ctx context.Context, runID string, sr engine.StepResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailOn != "" && sr.Name == r.FailOn {
		return r.Err
	}
	r.Steps = append(r.Steps, sr)
	return nil
}

// FinishRun implements engine.TraceWriter.
func (r *RecordingTrace) FinishRun(ctx context.Context, runID string, status engine.RunStatus, failedStep string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = true
	r.Status = status
	r.FailedStep = failedStep
	return nil
}

// StatusOf returns the recorded status for a step name, or "" if the step
// never produced a result.
func (r *RecordingTrace) StatusOf(name string) engine.StepStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sr := range r.Steps {
		if sr.Name == name {
			return sr.Status
		}
	}
	return ""
}
