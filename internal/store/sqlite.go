package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements RunReader over a cronbat runs database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenReadOnly opens the SQLite database at dbPath without write access and
// checks that it has a runs table.
func OpenReadOnly(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, err
	}
	dsn := (&url.URL{
		Scheme:   "file",
		Path:     abs,
		RawQuery: "mode=ro&_pragma=busy_timeout(5000)",
	}).String()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	var n int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'runs'").Scan(&n)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	if n == 0 {
		db.Close()
		return nil, fmt.Errorf("open %s: no runs table", dbPath)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const timeFormat = time.RFC3339Nano

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

func parseTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LastRun returns the start time of the job's most recent run. It satisfies
// deadjob.LastRunSource. Timestamps are compared parsed, not as text, since
// RFC3339Nano strings drop trailing zeros and do not sort chronologically.
func (s *SQLiteStore) LastRun(ctx context.Context, jobName string) (time.Time, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT started_at FROM runs WHERE job_name = ?", jobName)
	if err != nil {
		return time.Time{}, false, err
	}
	defer rows.Close()

	var last time.Time
	found := false
	for rows.Next() {
		var startedAt string
		if err := rows.Scan(&startedAt); err != nil {
			return time.Time{}, false, err
		}
		t, err := parseTime(startedAt)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("parse started_at: %w", err)
		}
		if !found || t.After(last) {
			last, found = t, true
		}
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, false, err
	}
	return last, found, nil
}

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var r Run
	var startedAt string
	var finishedAt sql.NullString
	var exitCode, durationMs sql.NullInt64

	err := row.Scan(
		&r.ID,
		&r.JobName,
		&r.Status,
		&exitCode,
		&startedAt,
		&finishedAt,
		&durationMs,
		&r.Trigger,
	)
	if err != nil {
		return nil, err
	}

	r.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	r.FinishedAt, err = parseTimePtr(finishedAt)
	if err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	if exitCode.Valid {
		r.ExitCode = int(exitCode.Int64)
	}
	if durationMs.Valid {
		r.DurationMs = durationMs.Int64
	}
	return &r, nil
}

// RecentRuns returns up to limit runs of a job, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, jobName string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_name, status, exit_code, started_at, finished_at,
			duration_ms, trigger_type
		FROM runs
		WHERE job_name = ?
		ORDER BY started_at DESC
		LIMIT ?`, jobName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetJobStats returns aggregate statistics for a given job.
func (s *SQLiteStore) GetJobStats(ctx context.Context, jobName string) (*JobStats, error) {
	var stats JobStats
	var avgDuration sql.NullFloat64
	var successes, failures sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS total_runs,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) AS successes,
			SUM(CASE WHEN status = 'failure' THEN 1 ELSE 0 END) AS failures,
			AVG(duration_ms) AS avg_duration_ms
		FROM runs
		WHERE job_name = ?`, jobName).Scan(
		&stats.TotalRuns,
		&successes,
		&failures,
		&avgDuration,
	)
	if err != nil {
		return nil, err
	}
	if successes.Valid {
		stats.Successes = int(successes.Int64)
	}
	if failures.Valid {
		stats.Failures = int(failures.Int64)
	}
	last, ok, err := s.LastRun(ctx, jobName)
	if err != nil {
		return nil, err
	}
	if ok {
		stats.LastRun = &last
	}
	if avgDuration.Valid {
		stats.AvgDurationMs = avgDuration.Float64
	}

	return &stats, nil
}
