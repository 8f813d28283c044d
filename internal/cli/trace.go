package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Arch     string
	Limit    int
}

// TraceResult holds the complete trace output for one run.
type TraceResult struct {
	Run   store.RunRecord     `json:"run"`
	Steps []engine.StepResult `json:"steps"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the step timeline of a recorded run",
		Long: `Show the recorded step timeline for a run, or list recorded runs
when no run ID is given.

Examples:
  wheelhouse trace --db runs.db
  wheelhouse trace --db runs.db --arch win-64
  wheelhouse trace --db runs.db --run 0190c7a2-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (omit to list runs)")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "filter run listing by architecture")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "max runs to list")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.RunID == "" {
		return listRuns(ctx, st, opts, formatter)
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "read run", err)
	}
	steps, err := st.ReadStepResults(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitCommandError, "read step results", err)
	}

	if opts.Format == "json" {
		return formatter.Success(TraceResult{Run: *run, Steps: steps})
	}

	fmt.Fprintf(formatter.Writer, "run %s  %s/%s @ %s  status=%s\n",
		run.ID, run.Inputs.Arch, run.Inputs.RunsOn, run.Inputs.SHA, run.Status)
	if run.FailedStep != "" {
		fmt.Fprintf(formatter.Writer, "failed step: %s\n", run.FailedStep)
	}
	for _, sr := range steps {
		line := fmt.Sprintf("%3d  %-28s %-7s", sr.Seq, sr.Name, sr.Status)
		if sr.Status == engine.StatusFailed {
			line += fmt.Sprintf("  exit=%d  %s", sr.ExitCode, sr.Error)
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	return nil
}

func listRuns(ctx context.Context, st *store.Store, opts *TraceOptions, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx, opts.Arch, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		return formatter.Success("no recorded runs")
	}
	for _, r := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %-10s %-16s %s  %s\n",
			r.ID, r.Inputs.Arch, r.Inputs.RunsOn, r.Inputs.SHA, r.Status)
	}
	return nil
}
