package crontab

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickspencer/cronhive/internal/runner"
)

// ErrPathTraversal is returned for paths that contain "..".
var ErrPathTraversal = errors.New("path traversal rejected")

// ScanFile reads and parses the crontab at path. Paths containing ".." are
// rejected before touching the filesystem; symlinks are resolved and the
// resolved path becomes the jobs' Source.
func ScanFile(path string, system bool) ([]Job, error) {
	if strings.Contains(path, "..") {
		return nil, fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}

	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, err
	}
	real, err = filepath.Abs(real)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(real)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), real, system), nil
}

// CommandRunner runs an external command. *runner.Runner satisfies it.
type CommandRunner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*runner.Result, error)
}

// UserSource is the Source recorded for jobs from the invoking user's crontab.
func UserSource() string {
	user := os.Getenv("USER")
	if user == "" {
		user = "?"
	}
	return "user:" + user
}

// ReadUser lists the invoking user's crontab with `crontab -l`. A non-zero
// exit means the user has no crontab and yields no jobs.
func ReadUser(ctx context.Context, r CommandRunner, timeout time.Duration) ([]Job, error) {
	res, err := r.Run(ctx, timeout, "crontab", "-l")
	if err != nil {
		return nil, fmt.Errorf("read user crontab: %w", err)
	}
	if res.ExitCode != 0 {
		return nil, nil
	}
	return Parse(res.Stdout, UserSource(), false), nil
}
