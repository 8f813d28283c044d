package engine

import (
	"context"

	"github.com/magentaqin/wheelhouse/internal/plan"
)

// Effects is the boundary between the sequencer and the outside world.
//
// Every step executes through exactly one of these methods. The sequencer
// never touches the filesystem, spawns processes or moves artifacts
// directly, so its control flow can be exercised in tests with a fake.
//
// All methods block until the external action finishes and honor context
// cancellation. Exit-code-returning methods report the external command's
// exit status; a non-nil error means the action could not be run at all
// (not that it ran and failed).
type Effects interface {
	// Exec runs argv (no shell) in dir with extra environment env.
	Exec(ctx context.Context, argv []string, dir string, env []string) (int, error)

	// RunScript runs an inline script through the given shell in dir.
	RunScript(ctx context.Context, shell plan.Shell, script, dir string, env []string) (int, error)

	// Fetch retrieves the named artifact into dest.
	Fetch(ctx context.Context, artifact, dest string) error

	// Publish uploads dir as the named artifact. includeHidden also
	// uploads dot-prefixed files; patterns, when given, restrict the
	// upload to matching relative paths.
	Publish(ctx context.Context, artifact, dir string, includeHidden bool, patterns []string) error

	// Chmod marks all regular files under dir executable.
	Chmod(ctx context.Context, dir string) error
}

// TraceWriter persists the run trace as it is produced.
//
// Implemented by the SQLite store in production and by no-op or recording
// fakes in tests. Writes are ordered: BeginRun, then one WriteStepResult
// per step in seq order, then FinishRun exactly once.
type TraceWriter interface {
	BeginRun(ctx context.Context, runID string, in plan.Inputs) error
	WriteStepResult(ctx context.Context, runID string, sr StepResult) error
	FinishRun(ctx context.Context, runID string, status RunStatus, failedStep string) error
}

// NopTrace discards the trace. Used when the caller runs without a database.
type NopTrace struct{}

func (NopTrace) BeginRun(context.Context, string, plan.Inputs) error { return nil }

func (NopTrace) WriteStepResult(context.Context, string, StepResult) error { return nil }

func (NopTrace) FinishRun(context.Context, string, RunStatus, string) error { return nil }
