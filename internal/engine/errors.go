package engine

import (
	"errors"
	"fmt"
)

// StepError represents a failure detected while executing one step.
//
// Step errors include:
//   - Setup failure: materialization, provisioning or artifact retrieval
//     failed, aborting the remaining required steps
//   - Test failure: the test subcommand exited non-zero
//   - Report failure: summary append or logs upload failed (best-effort)
//
// StepError includes structured fields for diagnostics and for mapping to
// the invocation's reported result.
type StepError struct {
	// Code identifies the error category.
	Code StepErrorCode

	// Step is the name of the failing step.
	Step string

	// RunID identifies the affected invocation.
	RunID string

	// ExitCode is the process exit code, when the failure came from an
	// external command (-1 otherwise).
	ExitCode int

	// Err is the underlying cause, if any.
	Err error
}

// StepErrorCode categorizes step failures.
type StepErrorCode string

const (
	// ErrCodeSetupFailed indicates a required setup step failed.
	ErrCodeSetupFailed StepErrorCode = "SETUP_FAILED"

	// ErrCodeTestFailed indicates the test step exited non-zero.
	ErrCodeTestFailed StepErrorCode = "TEST_FAILED"

	// ErrCodeReportFailed indicates a best-effort report step failed.
	ErrCodeReportFailed StepErrorCode = "REPORT_FAILED"

	// ErrCodeAborted indicates the run's context was cancelled mid-sequence.
	ErrCodeAborted StepErrorCode = "ABORTED"
)

// Error implements the error interface.
func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s: step %q", e.Code, e.Step)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" exited %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.RunID != "" {
		msg += fmt.Sprintf(" (run=%s)", e.RunID)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *StepError) Unwrap() error {
	return e.Err
}

// IsAborted reports whether err is a mid-sequence cancellation.
// Uses errors.As to handle wrapped errors.
func IsAborted(err error) bool {
	var se *StepError
	if errors.As(err, &se) {
		return se.Code == ErrCodeAborted
	}
	return false
}

// NewSetupError wraps a setup step failure.
func NewSetupError(runID, step string, exitCode int, err error) *StepError {
	return &StepError{Code: ErrCodeSetupFailed, RunID: runID, Step: step, ExitCode: exitCode, Err: err}
}

// NewTestError wraps a test step failure.
func NewTestError(runID, step string, exitCode int, err error) *StepError {
	return &StepError{Code: ErrCodeTestFailed, RunID: runID, Step: step, ExitCode: exitCode, Err: err}
}

// NewReportError wraps a best-effort report step failure.
func NewReportError(runID, step string, exitCode int, err error) *StepError {
	return &StepError{Code: ErrCodeReportFailed, RunID: runID, Step: step, ExitCode: exitCode, Err: err}
}

// NewAbortError wraps a cancellation observed before the named step ran.
func NewAbortError(runID, step string, err error) *StepError {
	return &StepError{Code: ErrCodeAborted, RunID: runID, Step: step, ExitCode: -1, Err: err}
}
