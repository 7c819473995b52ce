// Package store reads job run history written by a cronbat daemon. CronHive
// only ever opens the database read-only.
package store

import (
	"context"
	"time"
)

// Run is a single recorded execution of a job.
type Run struct {
	ID         string     `json:"id"`
	JobName    string     `json:"job_name"`
	Status     string     `json:"status"` // "running", "success", "failure"
	ExitCode   int        `json:"exit_code"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	Trigger    string     `json:"trigger"`
}

// JobStats holds aggregate statistics for a job.
type JobStats struct {
	TotalRuns     int        `json:"total_runs"`
	Successes     int        `json:"successes"`
	Failures      int        `json:"failures"`
	LastRun       *time.Time `json:"last_run,omitempty"`
	AvgDurationMs float64    `json:"avg_duration_ms"`
}

// RunReader is the read side of a run history.
type RunReader interface {
	LastRun(ctx context.Context, jobName string) (time.Time, bool, error)
	RecentRuns(ctx context.Context, jobName string, limit int) ([]*Run, error)
	GetJobStats(ctx context.Context, jobName string) (*JobStats, error)
}
