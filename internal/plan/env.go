package plan

import (
	"fmt"
	"path/filepath"
)

// Bindings holds the derived paths and flags shared by all steps of one
// invocation. Derived exactly once from the workspace root; never mutated.
type Bindings struct {
	// Workspace is the root the invocation operates in.
	Workspace string `json:"workspace"`

	// ReleaseDir receives the fetched binary artifact.
	ReleaseDir string `json:"release_dir"`

	// LogsDir collects test output. Published as the logs artifact.
	LogsDir string `json:"logs_dir"`

	// SummaryFile is the human-readable run summary the test tool writes.
	SummaryFile string `json:"summary_file"`

	// SummarySink is the file the summary is appended to for the run
	// overview (the standalone analogue of a CI step-summary mechanism).
	SummarySink string `json:"summary_sink"`

	// EnvFile is the step-env handoff file. Steps append KEY=VALUE lines
	// to it (exposed as $WHEELHOUSE_ENV) and every later step sees those
	// pairs in its environment.
	EnvFile string `json:"env_file"`

	// IOEncoding forces text I/O encoding for the test tool's subprocesses.
	IOEncoding string `json:"io_encoding"`

	// TestOptions is the fixed option string passed to the test subcommand.
	TestOptions string `json:"test_options"`
}

// DeriveBindings computes the environment bindings for a workspace root.
// Pure and deterministic: the same root always yields the same bindings.
func DeriveBindings(workspace string) (Bindings, error) {
	if workspace == "" {
		return Bindings{}, &FieldError{Field: "workspace", Message: "workspace root is required"}
	}
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return Bindings{}, fmt.Errorf("resolve workspace root: %w", err)
	}
	logs := filepath.Join(abs, "tests", "wheel_tests", ".logs")
	return Bindings{
		Workspace:   abs,
		ReleaseDir:  filepath.Join(abs, "release"),
		LogsDir:     logs,
		SummaryFile: filepath.Join(logs, "summary.md"),
		SummarySink: filepath.Join(logs, "step_summary.md"),
		EnvFile:     filepath.Join(abs, ".wheelhouse_env"),
		IOEncoding:  "utf-8",
		TestOptions: "--locked",
	}, nil
}

// Environ renders the bindings as KEY=VALUE pairs for step subprocesses.
func (b Bindings) Environ() []string {
	return []string{
		"WHEELHOUSE_WORKSPACE=" + b.Workspace,
		"WHEELHOUSE_RELEASE=" + b.ReleaseDir,
		"WHEELHOUSE_LOGS=" + b.LogsDir,
		"SUMMARY_FILE=" + b.SummaryFile,
		"WHEELHOUSE_STEP_SUMMARY=" + b.SummarySink,
		"WHEELHOUSE_ENV=" + b.EnvFile,
		"PYTHONIOENCODING=" + b.IOEncoding,
	}
}
