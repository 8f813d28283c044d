package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magentaqin/wheelhouse/internal/engine"
	"github.com/magentaqin/wheelhouse/internal/plan"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID            string           `json:"id"`
	Inputs        plan.Inputs      `json:"inputs"`
	Status        engine.RunStatus `json:"status"`
	FailedStep    string           `json:"failed_step,omitempty"`
	EngineVersion string           `json:"engine_version"`
	StartedAt     string           `json:"started_at"`
	FinishedAt    string           `json:"finished_at,omitempty"`
}

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = sql.ErrNoRows

// ReadRun fetches a single run by ID.
func (s *Store) ReadRun(ctx context.Context, runID string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sha, arch, runs_on, status, failed_step, engine_version,
		       started_at, COALESCE(finished_at, '')
		FROM runs WHERE id = ?
	`, runID)

	var r RunRecord
	err := row.Scan(
		&r.ID,
		&r.Inputs.SHA,
		&r.Inputs.Arch,
		&r.Inputs.RunsOn,
		&r.Status,
		&r.FailedStep,
		&r.EngineVersion,
		&r.StartedAt,
		&r.FinishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	return &r, nil
}

// ReadStepResults fetches a run's step results in seq order.
func (s *Store) ReadStepResults(ctx context.Context, runID string) ([]engine.StepResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, name, role, status, exit_code, error, duration_ms
		FROM step_results
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read step results: %w", err)
	}
	defer rows.Close()

	var results []engine.StepResult
	for rows.Next() {
		var sr engine.StepResult
		if err := rows.Scan(&sr.Seq, &sr.Name, &sr.Role, &sr.Status, &sr.ExitCode, &sr.Error, &sr.DurationMS); err != nil {
			return nil, fmt.Errorf("scan step result: %w", err)
		}
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate step results: %w", err)
	}
	return results, nil
}

// ListRuns returns runs newest-first, optionally filtered by architecture.
// limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, arch string, limit int) ([]RunRecord, error) {
	query := `
		SELECT id, sha, arch, runs_on, status, failed_step, engine_version,
		       started_at, COALESCE(finished_at, '')
		FROM runs
	`
	var args []any
	if arch != "" {
		query += " WHERE arch = ?"
		args = append(args, arch)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(
			&r.ID,
			&r.Inputs.SHA,
			&r.Inputs.Arch,
			&r.Inputs.RunsOn,
			&r.Status,
			&r.FailedStep,
			&r.EngineVersion,
			&r.StartedAt,
			&r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
