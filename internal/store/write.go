package store

import (
	"context"
	"fmt"

	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/plan"
)

// Store implements engine.TraceWriter.
var _ engine.TraceWriter = (*Store)(nil)

// BeginRun inserts the run row in its initial "running" state.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a crashed run that is
// retried under the same token does not error here.
func (s *Store) BeginRun(ctx context.Context, runID string, in plan.Inputs) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, sha, arch, runs_on, engine_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		runID,
		in.SHA,
		in.Arch,
		in.RunsOn,
		EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteStepResult inserts one step result row.
// Uses ON CONFLICT DO NOTHING for idempotency - duplicate (run, seq) writes
// are silently ignored. Other constraint violations still return errors.
func (s *Store) WriteStepResult(ctx context.Context, runID string, sr engine.StepResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO step_results
		(run_id, seq, name, role, status, exit_code, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		runID,
		sr.Seq,
		sr.Name,
		string(sr.Role),
		string(sr.Status),
		sr.ExitCode,
		sr.Error,
		sr.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("write step result: %w", err)
	}
	return nil
}

// FinishRun stamps the run's final status. The status is written exactly
// once per run; finishing an already-finished run is a no-op so the trace
// stays append-only.
func (s *Store) FinishRun(ctx context.Context, runID string, status engine.RunStatus, failedStep string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, failed_step = ?, finished_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ? AND status = 'running'
	`,
		string(status),
		failedStep,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Already finished or never started; either way nothing to stamp.
		return nil
	}
	return nil
}
