package inventory

import (
	"context"
	"time"

	"github.com/patrickspencer/cronhive/internal/config"
	"github.com/patrickspencer/cronhive/internal/crontab"
	"github.com/patrickspencer/cronhive/internal/logs"
)

// Scanner collects jobs from crontab files and, optionally, the invoking
// user's crontab.
type Scanner struct {
	Sources  []config.Source
	ScanUser bool
	Runner   crontab.CommandRunner
	Timeout  time.Duration
}

// Scan reads every source in order. Unreadable sources are logged and
// skipped, so one bad path does not hide the rest of the inventory.
func (s *Scanner) Scan(ctx context.Context) []crontab.Job {
	var jobs []crontab.Job
	for _, src := range s.Sources {
		found, err := crontab.ScanFile(src.Path, src.System)
		if err != nil {
			logs.Warn("skipping %s: %v", src.Path, err)
			continue
		}
		logs.Debug("scanned %s: %d jobs", src.Path, len(found))
		jobs = append(jobs, found...)
	}

	if s.ScanUser && s.Runner != nil {
		found, err := crontab.ReadUser(ctx, s.Runner, s.Timeout)
		if err != nil {
			logs.Warn("could not read user crontab: %v", err)
		} else {
			jobs = append(jobs, found...)
		}
	}
	return jobs
}
