package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

// cronbatSchema is the runs table as a cronbat daemon creates it.
const cronbatSchema = `
CREATE TABLE runs (
    id TEXT PRIMARY KEY,
    job_name TEXT NOT NULL,
    status TEXT NOT NULL,
    exit_code INTEGER,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    duration_ms INTEGER,
    stdout_tail TEXT,
    stderr_tail TEXT,
    error_msg TEXT,
    trigger_type TEXT NOT NULL DEFAULT 'schedule',
    llm_analysis TEXT,
    llm_tokens_used INTEGER,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
`

func seedRunsDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cronbat.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(cronbatSchema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	rows := []struct {
		id, job, status, started string
		exit                     int
	}{
		{"01A", "backup", "success", "2024-06-14T02:00:00Z", 0},
		{"01B", "backup", "failure", "2024-06-15T02:00:00Z", 1},
		{"01C", "rotate", "success", "2024-06-15T03:00:00.5Z", 0},
		{"01D", "rotate", "success", "2024-06-15T03:00:00Z", 0},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO runs (id, job_name, status, exit_code, started_at, finished_at, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, r.id, r.job, r.status, r.exit, r.started, r.started, 1500)
		if err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}
	return path
}

func TestLastRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := OpenReadOnly(ctx, seedRunsDB(t))
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	defer s.Close()

	got, ok, err := s.LastRun(ctx, "backup")
	if err != nil || !ok {
		t.Fatalf("LastRun(backup): ok=%v err=%v", ok, err)
	}
	if want := time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	// "...00Z" sorts after "...00.5Z" as text but is earlier.
	got, ok, err = s.LastRun(ctx, "rotate")
	if err != nil || !ok {
		t.Fatalf("LastRun(rotate): ok=%v err=%v", ok, err)
	}
	if want := time.Date(2024, 6, 15, 3, 0, 0, 5e8, time.UTC); !got.Equal(want) {
		t.Fatalf("expected sub-second run %s, got %s", want, got)
	}

	if _, ok, err := s.LastRun(ctx, "never-ran"); err != nil || ok {
		t.Fatalf("LastRun(never-ran): ok=%v err=%v", ok, err)
	}
}

func TestRecentRunsAndStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := OpenReadOnly(ctx, seedRunsDB(t))
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	defer s.Close()

	runs, err := s.RecentRuns(ctx, "backup", 0)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "01B" || runs[0].ExitCode != 1 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].FinishedAt == nil || runs[0].DurationMs != 1500 || runs[0].Trigger != "schedule" {
		t.Fatalf("unexpected run detail: %+v", runs[0])
	}

	stats, err := s.GetJobStats(ctx, "backup")
	if err != nil {
		t.Fatalf("GetJobStats: %v", err)
	}
	if stats.TotalRuns != 2 || stats.Successes != 1 || stats.Failures != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.LastRun == nil || stats.LastRun.Day() != 15 {
		t.Fatalf("unexpected last run: %v", stats.LastRun)
	}

	empty, err := s.GetJobStats(ctx, "never-ran")
	if err != nil {
		t.Fatalf("GetJobStats(never-ran): %v", err)
	}
	if empty.TotalRuns != 0 || empty.LastRun != nil {
		t.Fatalf("unexpected empty stats: %+v", empty)
	}
}

func TestOpenReadOnlyRejectsWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := OpenReadOnly(ctx, seedRunsDB(t))
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	defer s.Close()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM runs"); err == nil {
		t.Fatal("expected write to a read-only database to fail")
	}
}

func TestOpenReadOnlyMissingTable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE other (id INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	db.Close()

	if _, err := OpenReadOnly(context.Background(), path); err == nil {
		t.Fatal("expected error for database without runs table")
	}
	if _, err := OpenReadOnly(context.Background(), filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatal("expected error for missing database")
	}
}
