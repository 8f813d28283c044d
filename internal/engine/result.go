package engine

import "github.com/magentaqin/wheelhouse/internal/plan"

// StepStatus records the outcome of one step within a run.
type StepStatus string

const (
	// StatusSuccess means the step ran and succeeded.
	StatusSuccess StepStatus = "success"

	// StatusFailed means the step ran and failed.
	StatusFailed StepStatus = "failed"

	// StatusSkipped means the step's platform guard did not match, or a
	// required upstream step had already failed and the step is not
	// always()-gated.
	StatusSkipped StepStatus = "skipped"
)

// StepResult is one entry in the run's trace.
type StepResult struct {
	// Seq is the logical clock stamp; strictly increasing within a run.
	Seq int64 `json:"seq"`

	// Name is the step name from the plan.
	Name string `json:"name"`

	// Role is carried into the trace so replay can re-derive the result
	// without the plan.
	Role plan.Role `json:"role"`

	// Status is the step outcome.
	Status StepStatus `json:"status"`

	// ExitCode is the external command's exit code; 0 for non-process
	// effects that succeeded, -1 when the step never produced one.
	ExitCode int `json:"exit_code"`

	// Error holds the failure message for failed steps.
	Error string `json:"error,omitempty"`

	// DurationMS is informational only and excluded from golden traces.
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// RunStatus is the overall outcome of one invocation.
type RunStatus string

const (
	// RunPass means every required step succeeded.
	RunPass RunStatus = "pass"

	// RunFail means the test step exited non-zero.
	RunFail RunStatus = "fail"

	// RunError means a required setup step failed before the test ran.
	RunError RunStatus = "error"
)

// Result is the accumulator for one invocation's outcome.
//
// It is initialized to pass and downgraded only by required (non-always)
// steps: a setup failure produces RunError, a test failure RunFail.
// Report steps never change the status, whatever their own outcome.
type Result struct {
	// RunID identifies the invocation.
	RunID string `json:"run_id"`

	// Status is the accumulated outcome.
	Status RunStatus `json:"status"`

	// FailedStep names the step that downgraded the status, if any.
	FailedStep string `json:"failed_step,omitempty"`

	// Steps is the ordered trace of all step results.
	Steps []StepResult `json:"steps"`
}

// newResult returns a Result in its initial pass state.
func newResult(runID string) *Result {
	return &Result{RunID: runID, Status: RunPass}
}

// record appends a step result and folds it into the accumulated status.
func (r *Result) record(sr StepResult) {
	r.Steps = append(r.Steps, sr)
	if sr.Status != StatusFailed {
		return
	}
	switch sr.Role {
	case plan.RoleSetup:
		// First failure wins; later always() steps cannot overwrite it.
		if r.Status == RunPass {
			r.Status = RunError
			r.FailedStep = sr.Name
		}
	case plan.RoleTest:
		if r.Status == RunPass {
			r.Status = RunFail
			r.FailedStep = sr.Name
		}
	case plan.RoleReport:
		// Best-effort: observed, never authoritative.
	}
}

// Failed reports whether a required step has already failed, which gates
// every remaining non-always() step.
func (r *Result) Failed() bool {
	return r.Status != RunPass
}

// Passed reports whether the invocation is (still) passing.
func (r *Result) Passed() bool {
	return r.Status == RunPass
}

// Fold recomputes the overall status from an ordered step trace. Replay
// uses it to verify that the stored status matches what the trace implies.
func Fold(runID string, steps []StepResult) *Result {
	res := newResult(runID)
	for _, sr := range steps {
		res.record(sr)
	}
	return res
}
