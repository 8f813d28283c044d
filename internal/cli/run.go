package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/magentaqin/wheelhouse/internal/artifact"
	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/plan"
	"github.com/magentaqin/wheelhouse/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SHA          string
	Arch         string
	RunsOn       string
	Workspace    string
	Database     string
	Profile      string
	ArtifactsCfg string
	ArtifactsDir string
	Timeout      time.Duration
	DryRun       bool

	// RunGenerator allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunGenerator engine.RunTokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one invocation of the wheel-test sequence",
		Long: `Execute the fixed step sequence for one (commit, architecture, runner)
triple: materialize the source tree, fetch the built binary, run its
wheel-test task, then append the summary and upload logs regardless of
the outcome.

Exit codes:
  0 - invocation passed
  1 - test step failed
  2 - setup failed or command error

Examples:
  wheelhouse run --sha abc123 --arch linux-64 --runs-on ubuntu-latest --workspace .
  wheelhouse run --sha abc123 --arch win-64 --runs-on windows-latest --workspace . --db runs.db
  wheelhouse run --sha abc123 --arch linux-64 --runs-on ubuntu-latest --workspace . --dry-run`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvocation(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SHA, "sha", "", "commit reference to test (required)")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "target architecture label (required)")
	cmd.Flags().StringVar(&opts.RunsOn, "runs-on", "", "runner OS label (required)")
	cmd.Flags().StringVar(&opts.Workspace, "workspace", ".", "workspace root")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database (optional)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "CUE plan profile file or directory (optional)")
	cmd.Flags().StringVar(&opts.ArtifactsCfg, "artifacts-config", "", "YAML artifact store config (optional)")
	cmd.Flags().StringVar(&opts.ArtifactsDir, "artifacts-dir", "artifacts", "local artifact directory (when no config given)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "abort the whole invocation after this duration (0 = no ceiling)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the resolved step sequence without executing")
	_ = cmd.MarkFlagRequired("sha")
	_ = cmd.MarkFlagRequired("arch")
	_ = cmd.MarkFlagRequired("runs-on")

	return cmd
}

func runInvocation(opts *RunOptions, cmd *cobra.Command) error {
	inputs := plan.Inputs{SHA: opts.SHA, Arch: opts.Arch, RunsOn: opts.RunsOn}
	if err := inputs.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid inputs", err)
	}

	bindings, err := plan.DeriveBindings(opts.Workspace)
	if err != nil {
		return WrapExitError(ExitCommandError, "derive bindings", err)
	}

	profile := plan.DefaultProfile()
	if opts.Profile != "" {
		profile, err = LoadProfile(opts.Profile)
		if err != nil {
			return WrapExitError(ExitCommandError, "load profile", err)
		}
	}

	steps := plan.Sequence(profile, inputs, bindings)
	if err := plan.ValidateSequence(steps); err != nil {
		return WrapExitError(ExitCommandError, "invalid step sequence", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.DryRun {
		return explainSequence(formatter, inputs, steps)
	}

	// The logs directory must exist before the test step writes into it
	// and before the summary steps append.
	if err := os.MkdirAll(bindings.LogsDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create logs directory", err)
	}
	// Exports from a previous invocation must not leak into this one.
	if err := os.Remove(bindings.EnvFile); err != nil && !os.IsNotExist(err) {
		return WrapExitError(ExitCommandError, "clear step env file", err)
	}

	// Trace persistence: SQLite when a database is given, discard otherwise.
	var trace engine.TraceWriter = engine.NopTrace{}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		trace = st
	}

	artifacts, err := openArtifacts(cmd.Context(), opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "open artifact store", err)
	}

	effects := &engine.ExecEffects{
		Artifacts: artifacts,
		BaseEnv:   bindings.Environ(),
		EnvFile:   bindings.EnvFile,
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
	}

	seqOpts := []engine.Option{}
	if opts.RunGenerator != nil {
		seqOpts = append(seqOpts, engine.WithRunTokenGenerator(opts.RunGenerator))
	}
	sequencer := engine.New(inputs, steps, effects, trace, seqOpts...)

	ctx, cancel := runContext(cmd, opts.Timeout)
	defer cancel()

	result, err := sequencer.Run(ctx)
	if err != nil {
		if engine.IsAborted(err) {
			return WrapExitError(ExitCommandError, "run aborted", err)
		}
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if outErr := writeRunSummary(formatter, result); outErr != nil {
		return WrapExitError(ExitCommandError, "write output", outErr)
	}

	switch result.Status {
	case engine.RunPass:
		return nil
	case engine.RunFail:
		return NewExitError(ExitFailure, fmt.Sprintf("test step %q failed", result.FailedStep))
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("setup step %q failed", result.FailedStep))
	}
}

// runContext combines the command context, signal handling and the
// optional per-run timeout ceiling.
func runContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, aborting run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func openArtifacts(ctx context.Context, opts *RunOptions) (artifact.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.ArtifactsCfg != "" {
		cfg, err := artifact.LoadConfig(opts.ArtifactsCfg)
		if err != nil {
			return nil, err
		}
		return artifact.Open(ctx, cfg)
	}
	return artifact.NewLocalStore(opts.ArtifactsDir)
}

// explainSequence prints each step with its resolved guard outcome, without
// executing anything.
func explainSequence(f *OutputFormatter, in plan.Inputs, steps []plan.Step) error {
	type explained struct {
		Name   string `json:"name"`
		Role   string `json:"role"`
		Kind   string `json:"kind"`
		Always bool   `json:"always"`
		Runs   bool   `json:"runs"`
	}

	rows := make([]explained, 0, len(steps))
	for _, s := range steps {
		rows = append(rows, explained{
			Name:   s.Name,
			Role:   string(s.Role),
			Kind:   string(s.Kind),
			Always: s.Guard.Always,
			Runs:   s.Guard.Matches(in.Arch),
		})
	}

	if f.Format == "json" {
		return f.Success(rows)
	}
	for _, r := range rows {
		mark := "skip"
		if r.Runs {
			mark = "run "
		}
		always := ""
		if r.Always {
			always = " [always]"
		}
		fmt.Fprintf(f.Writer, "%s  %-28s %s/%s%s\n", mark, r.Name, r.Role, r.Kind, always)
	}
	return nil
}

// writeRunSummary prints the invocation outcome: the JSON envelope in
// json mode, a single human-readable line otherwise.
func writeRunSummary(f *OutputFormatter, r *engine.Result) error {
	if f.Format == "json" {
		return f.Success(resultSummary(r))
	}

	line := fmt.Sprintf("run %s  status=%s steps=%d", r.RunID, r.Status, len(r.Steps))
	if r.FailedStep != "" {
		line += fmt.Sprintf(" failed_step=%q", r.FailedStep)
	}
	_, err := fmt.Fprintln(f.Writer, line)
	return err
}

// resultSummary shapes an engine result for CLI output.
func resultSummary(r *engine.Result) map[string]any {
	out := map[string]any{
		"run_id": r.RunID,
		"status": string(r.Status),
		"steps":  len(r.Steps),
	}
	if r.FailedStep != "" {
		out["failed_step"] = r.FailedStep
	}
	return out
}
