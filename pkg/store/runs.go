package store

import (
	"context"
	"fmt"
	"time"
)

// Run statuses
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is one row of the pipeline_runs history
type Run struct {
	RunID       string    `db:"run_id"`
	SourcePath  string    `db:"source_path"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
	CacheHit    bool      `db:"cache_hit"`
	RowsRead    int       `db:"rows_read"`
	RowsWritten int       `db:"rows_written"`
	Habitable   int       `db:"habitable"`
	Status      string    `db:"status"`
	Error       string    `db:"error"`
}

// RecordRun inserts or replaces a run in the history
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO pipeline_runs
		(run_id, source_path, started_at, finished_at, cache_hit,
		 rows_read, rows_written, habitable, status, error)
		VALUES (:run_id, :source_path, :started_at, :finished_at, :cache_hit,
		 :rows_read, :rows_written, :habitable, :status, :error)
	`, run)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}
	return nil
}

// LatestRuns returns up to n runs, newest first
func (s *Store) LatestRuns(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}
	var runs []Run
	err := s.db.SelectContext(ctx, &runs, `
		SELECT run_id, source_path, started_at, finished_at, cache_hit,
		       rows_read, rows_written, habitable, status, error
		FROM pipeline_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline runs: %w", err)
	}
	return runs, nil
}
