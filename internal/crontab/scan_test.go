package crontab

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickspencer/cronhive/internal/runner"
)

func TestScanFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "crontab")
	body := "SHELL=/bin/sh\n17 * * * * root cd / && run-parts --report /etc/cron.hourly\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write crontab: %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(path, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	jobs, err := ScanFile(link, true)
	if err != nil {
		t.Fatalf("ScanFile: %v", err)
	}
	if got, want := len(jobs), 1; got != want {
		t.Fatalf("expected %d job, got %d", want, got)
	}
	resolved, _ := filepath.EvalSymlinks(path)
	if jobs[0].Source != resolved {
		t.Fatalf("expected source %q, got %q", resolved, jobs[0].Source)
	}
	if jobs[0].User != "root" || jobs[0].Command != "cd / && run-parts --report /etc/cron.hourly" {
		t.Fatalf("unexpected job: %+v", jobs[0])
	}
}

func TestScanFilePathTraversal(t *testing.T) {
	t.Parallel()

	jobs, err := ScanFile("../../etc/shadow", false)
	if !errors.Is(err, ErrPathTraversal) {
		t.Fatalf("expected ErrPathTraversal, got %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

func TestScanFileNonexistent(t *testing.T) {
	t.Parallel()

	jobs, err := ScanFile("/nonexistent/crontab", false)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

type fakeRunner struct {
	result *runner.Result
	err    error
	called []string
}

func (f *fakeRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) (*runner.Result, error) {
	f.called = append([]string{name}, args...)
	return f.result, f.err
}

func TestReadUser(t *testing.T) {
	t.Setenv("USER", "alice")

	f := &fakeRunner{result: &runner.Result{Stdout: "MAILTO=x\n0 4 * * * /bin/nightly\n"}}
	jobs, err := ReadUser(context.Background(), f, time.Second)
	if err != nil {
		t.Fatalf("ReadUser: %v", err)
	}
	if strings.Join(f.called, " ") != "crontab -l" {
		t.Fatalf("unexpected command %v", f.called)
	}
	if len(jobs) != 1 || jobs[0].Source != "user:alice" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestReadUserWithoutCrontab(t *testing.T) {
	t.Parallel()

	f := &fakeRunner{result: &runner.Result{ExitCode: 1, StderrTail: "no crontab for alice"}}
	jobs, err := ReadUser(context.Background(), f, time.Second)
	if err != nil || len(jobs) != 0 {
		t.Fatalf("expected no jobs and no error, got %d jobs, err %v", len(jobs), err)
	}

	f = &fakeRunner{result: &runner.Result{TimedOut: true}, err: context.DeadlineExceeded}
	if _, err := ReadUser(context.Background(), f, time.Second); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}
