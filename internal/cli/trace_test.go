package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/plan"
	"github.com/magentaqin/wheelhouse/internal/store"
)

// seedRun writes a finished run with the given step trace into a fresh
// database and returns its path.
func seedRun(t *testing.T, runID string, in plan.Inputs, status engine.RunStatus, failedStep string, steps []engine.StepResult) string {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.BeginRun(ctx, runID, in))
	for _, sr := range steps {
		require.NoError(t, st.WriteStepResult(ctx, runID, sr))
	}
	require.NoError(t, st.FinishRun(ctx, runID, status, failedStep))
	return dbPath
}

func passTrace() []engine.StepResult {
	return []engine.StepResult{
		{Seq: 1, Name: plan.StepCheckout, Role: plan.RoleSetup, Status: engine.StatusSuccess},
		{Seq: 2, Name: plan.StepDevDrive, Role: plan.RoleSetup, Status: engine.StatusSkipped, ExitCode: -1},
		{Seq: 3, Name: plan.StepDriveCopy, Role: plan.RoleSetup, Status: engine.StatusSkipped, ExitCode: -1},
		{Seq: 4, Name: plan.StepFetchBinary, Role: plan.RoleSetup, Status: engine.StatusSuccess},
		{Seq: 5, Name: plan.StepChmod, Role: plan.RoleSetup, Status: engine.StatusSuccess},
		{Seq: 6, Name: plan.StepTest, Role: plan.RoleTest, Status: engine.StatusSuccess},
		{Seq: 7, Name: plan.StepSummaryPosix, Role: plan.RoleReport, Status: engine.StatusSuccess},
		{Seq: 8, Name: plan.StepSummaryPwsh, Role: plan.RoleReport, Status: engine.StatusSkipped, ExitCode: -1},
		{Seq: 9, Name: plan.StepUploadLogs, Role: plan.RoleReport, Status: engine.StatusSuccess},
	}
}

func linuxInputs() plan.Inputs {
	return plan.Inputs{SHA: "abc1234", Arch: "linux-64", RunsOn: "ubuntu-latest"}
}

func traceCommandOutput(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTrace_ShowRun(t *testing.T) {
	dbPath := seedRun(t, "run-1", linuxInputs(), engine.RunPass, "", passTrace())

	out, err := traceCommandOutput(t, "text", "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)

	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "status=pass")
	assert.Contains(t, out, plan.StepCheckout)
	assert.Contains(t, out, plan.StepUploadLogs)
}

func TestTrace_ShowRunJSON(t *testing.T) {
	dbPath := seedRun(t, "run-1", linuxInputs(), engine.RunPass, "", passTrace())

	out, err := traceCommandOutput(t, "json", "--db", dbPath, "--run", "run-1")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.Data.Run.ID)
	assert.Equal(t, engine.RunPass, resp.Data.Run.Status)
	assert.Len(t, resp.Data.Steps, 9)
	assert.Equal(t, plan.StepCheckout, resp.Data.Steps[0].Name)
}

func TestTrace_ShowFailedStep(t *testing.T) {
	steps := passTrace()
	steps[5].Status = engine.StatusFailed
	steps[5].ExitCode = 1
	steps[5].Error = "test task exited 1"
	dbPath := seedRun(t, "run-f", linuxInputs(), engine.RunFail, plan.StepTest, steps)

	out, err := traceCommandOutput(t, "text", "--db", dbPath, "--run", "run-f")
	require.NoError(t, err)

	assert.Contains(t, out, "status=fail")
	assert.Contains(t, out, "failed step: "+plan.StepTest)
	assert.Contains(t, out, "exit=1")
}

func TestTrace_ListRuns(t *testing.T) {
	dbPath := seedRun(t, "run-1", linuxInputs(), engine.RunPass, "", passTrace())

	out, err := traceCommandOutput(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "linux-64")
}

func TestTrace_ListRunsEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := traceCommandOutput(t, "text", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no recorded runs")
}

func TestTrace_ListRunsArchFilter(t *testing.T) {
	dbPath := seedRun(t, "run-1", linuxInputs(), engine.RunPass, "", passTrace())

	out, err := traceCommandOutput(t, "text", "--db", dbPath, "--arch", "win-64")
	require.NoError(t, err)
	assert.Contains(t, out, "no recorded runs")
}

func TestTrace_UnknownRun(t *testing.T) {
	dbPath := seedRun(t, "run-1", linuxInputs(), engine.RunPass, "", passTrace())

	_, err := traceCommandOutput(t, "text", "--db", dbPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_HonorsCommandContext(t *testing.T) {
	dbPath := seedRun(t, "run-1", linuxInputs(), engine.RunPass, "", passTrace())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, "--run", "run-1"})

	err := cmd.ExecuteContext(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
