package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/plan"
)

var _ engine.Effects = (*FakeEffects)(nil)

func TestFakeEffects_DefaultsSucceed(t *testing.T) {
	ctx := context.Background()
	fx := NewFakeEffects()

	code, err := fx.Exec(ctx, []string{"pixi", "run"}, "/work", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	code, err = fx.RunScript(ctx, plan.ShellPosix, "echo hi", "/work", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	require.NoError(t, fx.Fetch(ctx, "pixi-linux-64-abc", "/work/release"))
	require.NoError(t, fx.Publish(ctx, "wheel-logs-linux-64", "/work/logs", true, nil))
	require.NoError(t, fx.Chmod(ctx, "/work/release"))

	assert.Equal(t, []string{"pixi", "echo hi", "pixi-linux-64-abc", "wheel-logs-linux-64", "/work/release"}, fx.CallNames())
}

func TestFakeEffects_StubbedOutcomes(t *testing.T) {
	ctx := context.Background()
	fx := NewFakeEffects()
	fx.Stub("pixi", Outcome{ExitCode: 1})
	fx.Stub("pixi-linux-64-abc", Outcome{Err: errors.New("artifact not found")})

	code, err := fx.Exec(ctx, []string{"pixi", "run"}, "/work", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	err = fx.Fetch(ctx, "pixi-linux-64-abc", "/work/release")
	assert.EqualError(t, err, "artifact not found")
}

func TestFakeEffects_EmptyArgv(t *testing.T) {
	fx := NewFakeEffects()
	code, err := fx.Exec(context.Background(), nil, "/work", nil)
	require.Error(t, err)
	assert.Equal(t, -1, code)
}

func TestFakeEffects_RecordsPublishFlags(t *testing.T) {
	ctx := context.Background()
	fx := NewFakeEffects()
	require.NoError(t, fx.Publish(ctx, "wheel-logs-win-64", "/work/logs", true, []string{"**/*.log"}))

	calls := fx.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "publish", calls[0].Kind)
	assert.True(t, calls[0].IncludeHidden)
	assert.Equal(t, []string{"**/*.log"}, calls[0].Patterns)
}

func TestDetailKey(t *testing.T) {
	assert.Equal(t, "pixi", DetailKey(plan.Step{Kind: plan.KindExec, Argv: []string{"pixi", "run"}}))
	assert.Equal(t, "", DetailKey(plan.Step{Kind: plan.KindExec}))
	assert.Equal(t, "echo hi", DetailKey(plan.Step{Kind: plan.KindScript, Script: "echo hi"}))
	assert.Equal(t, "pixi-linux-64-abc", DetailKey(plan.Step{Kind: plan.KindFetch, Artifact: "pixi-linux-64-abc"}))
	assert.Equal(t, "wheel-logs-win-64", DetailKey(plan.Step{Kind: plan.KindPublish, Artifact: "wheel-logs-win-64"}))
	assert.Equal(t, "/work/release", DetailKey(plan.Step{Kind: plan.KindChmod, Dir: "/work/release"}))
}

func TestRecordingTrace_CapturesRun(t *testing.T) {
	ctx := context.Background()
	tr := &RecordingTrace{}

	require.NoError(t, tr.BeginRun(ctx, "run-1", plan.Inputs{SHA: "abc", Arch: "linux-64", RunsOn: "ubuntu-latest"}))
	require.NoError(t, tr.WriteStepResult(ctx, "run-1", engine.StepResult{Seq: 1, Name: "checkout", Status: engine.StatusSuccess}))
	require.NoError(t, tr.FinishRun(ctx, "run-1", engine.RunPass, ""))

	assert.Equal(t, "run-1", tr.RunID)
	assert.True(t, tr.Finished)
	assert.Equal(t, engine.RunPass, tr.Status)
	assert.Equal(t, engine.StatusSuccess, tr.StatusOf("checkout"))
	assert.Equal(t, engine.StepStatus(""), tr.StatusOf("missing"))
}

func TestRecordingTrace_FaultInjection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	tr := &RecordingTrace{FailOn: "checkout", Err: boom}

	err := tr.WriteStepResult(ctx, "run-1", engine.StepResult{Seq: 1, Name: "checkout"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, tr.Steps)
}
