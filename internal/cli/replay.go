package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay verdict for a single run.
type ReplayRunResult struct {
	RunID          string `json:"run_id"`
	StoredStatus   string `json:"stored_status"`
	ReplayedStatus string `json:"replayed_status"`
	StoredFailed   string `json:"stored_failed_step,omitempty"`
	ReplayedFailed string `json:"replayed_failed_step,omitempty"`
	Steps          int    `json:"steps"`
	Deterministic  bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay outcome.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-derive run results from recorded traces and verify them",
		Long: `Re-fold every recorded step trace through the result accumulator and
verify that the derived status matches the status stamped on the run.

A mismatch means the trace and the stored result disagree - either the
database was modified or the run was interrupted between its last step
and FinishRun.

Exit codes:
  0 - All runs replay to their stored status
  1 - At least one run replays differently
  2 - Command error (database not found, etc.)

Examples:
  wheelhouse replay --db runs.db
  wheelhouse replay --db runs.db --run 0190c7a2-...
  wheelhouse replay --db runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var records []store.RunRecord
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "read run", err)
		}
		records = []store.RunRecord{*run}
	} else {
		records, err = st.ListRuns(ctx, "", 0)
		if err != nil {
			return WrapExitError(ExitCommandError, "list runs", err)
		}
	}

	result := ReplayResult{AllDeterministic: true}
	for _, run := range records {
		steps, err := st.ReadStepResults(ctx, run.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "read step results", err)
		}

		replayed := engine.Fold(run.ID, steps)
		rr := ReplayRunResult{
			RunID:          run.ID,
			StoredStatus:   string(run.Status),
			ReplayedStatus: string(replayed.Status),
			StoredFailed:   run.FailedStep,
			ReplayedFailed: replayed.FailedStep,
			Steps:          len(steps),
		}
		rr.Deterministic = rr.StoredStatus == rr.ReplayedStatus && rr.StoredFailed == rr.ReplayedFailed
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
		result.Runs = append(result.Runs, rr)
	}
	result.TotalRuns = len(result.Runs)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return WrapExitError(ExitCommandError, "write output", err)
		}
	} else {
		for _, rr := range result.Runs {
			verdict := "ok"
			if !rr.Deterministic {
				verdict = "MISMATCH"
			}
			formatter.VerboseLog("run %s: stored=%s replayed=%s", rr.RunID, rr.StoredStatus, rr.ReplayedStatus)
			fmt.Fprintf(formatter.Writer, "%s  %s (%d steps)\n", rr.RunID, verdict, rr.Steps)
		}
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay mismatch detected")
	}
	return nil
}
