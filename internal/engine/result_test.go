package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magentaqin/wheelhouse/internal/plan"
)

func TestResult_InitializedToPass(t *testing.T) {
	r := newResult("run-1")
	assert.Equal(t, RunPass, r.Status)
	assert.True(t, r.Passed())
	assert.False(t, r.Failed())
}

func TestResult_SetupFailureDowngradesToError(t *testing.T) {
	r := newResult("run-1")
	r.record(StepResult{Seq: 1, Name: "checkout", Role: plan.RoleSetup, Status: StatusFailed})

	assert.Equal(t, RunError, r.Status)
	assert.Equal(t, "checkout", r.FailedStep)
}

func TestResult_TestFailureDowngradesToFail(t *testing.T) {
	r := newResult("run-1")
	r.record(StepResult{Seq: 1, Name: "checkout", Role: plan.RoleSetup, Status: StatusSuccess})
	r.record(StepResult{Seq: 2, Name: "test common wheels", Role: plan.RoleTest, Status: StatusFailed, ExitCode: 1})

	assert.Equal(t, RunFail, r.Status)
	assert.Equal(t, "test common wheels", r.FailedStep)
}

func TestResult_ReportFailureNeverDowngrades(t *testing.T) {
	r := newResult("run-1")
	r.record(StepResult{Seq: 1, Name: "test common wheels", Role: plan.RoleTest, Status: StatusSuccess})
	r.record(StepResult{Seq: 2, Name: "upload logs", Role: plan.RoleReport, Status: StatusFailed})

	assert.Equal(t, RunPass, r.Status, "report failures must not flip a pass")
	assert.Empty(t, r.FailedStep)
}

func TestResult_FirstFailureWins(t *testing.T) {
	r := newResult("run-1")
	r.record(StepResult{Seq: 1, Name: "checkout", Role: plan.RoleSetup, Status: StatusFailed})
	r.record(StepResult{Seq: 2, Name: "download binary", Role: plan.RoleSetup, Status: StatusFailed})

	assert.Equal(t, RunError, r.Status)
	assert.Equal(t, "checkout", r.FailedStep, "the first required failure is authoritative")
}

func TestResult_SkippedStepsDoNotAffectStatus(t *testing.T) {
	r := newResult("run-1")
	r.record(StepResult{Seq: 1, Name: "create dev drive", Role: plan.RoleSetup, Status: StatusSkipped})
	r.record(StepResult{Seq: 2, Name: "test common wheels", Role: plan.RoleTest, Status: StatusSuccess})

	assert.Equal(t, RunPass, r.Status)
}

func TestFold_MatchesIncrementalAccumulation(t *testing.T) {
	steps := []StepResult{
		{Seq: 1, Name: "checkout", Role: plan.RoleSetup, Status: StatusSuccess},
		{Seq: 2, Name: "test common wheels", Role: plan.RoleTest, Status: StatusFailed, ExitCode: 2},
		{Seq: 3, Name: "upload logs", Role: plan.RoleReport, Status: StatusFailed},
	}

	folded := Fold("run-1", steps)
	assert.Equal(t, RunFail, folded.Status)
	assert.Equal(t, "test common wheels", folded.FailedStep)
	assert.Len(t, folded.Steps, 3)
}
