// Package inventory turns scanned crontab jobs into a report with validity
// counts and dead-job verdicts.
package inventory

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/patrickspencer/cronhive/internal/cronexpr"
	"github.com/patrickspencer/cronhive/internal/crontab"
	"github.com/patrickspencer/cronhive/internal/deadjob"
	"github.com/patrickspencer/cronhive/internal/logs"
)

// ReasonLastRunUnavailable marks an entry whose last-run lookup failed. The
// entry is left unchecked.
const ReasonLastRunUnavailable = "last run unavailable"

// Entry is one job in a report. Liveness fields are only set when the job's
// last run is known.
type Entry struct {
	crontab.Job
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	Checked     bool       `json:"checked"`
	Dead        bool       `json:"dead"`
	ExpectedRun *time.Time `json:"expected_run,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// Report is the inventory of all scanned jobs.
type Report struct {
	ID          string  `json:"id"`
	GeneratedAt string  `json:"generated_at"`
	Total       int     `json:"total"`
	Valid       int     `json:"valid"`
	Invalid     int     `json:"invalid"`
	Dead        int     `json:"dead"`
	Jobs        []Entry `json:"jobs"`
}

// Options controls Build.
type Options struct {
	// Now is the evaluation time; zero means time.Now().
	Now time.Time
	// LastRuns answers last-run lookups by job name. Nil disables liveness
	// checks.
	LastRuns deadjob.LastRunSource
}

// NewID generates a new ULID-based report identifier.
func NewID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// Build summarises jobs. The counts always satisfy Total == Valid + Invalid.
// A failed last-run lookup affects only that job's entry.
func Build(ctx context.Context, jobs []crontab.Job, opts Options) *Report {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := &Report{
		ID:          NewID(now),
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Total:       len(jobs),
		Jobs:        make([]Entry, 0, len(jobs)),
	}

	for _, j := range jobs {
		e := Entry{Job: j}
		if j.Valid {
			r.Valid++
			if s, err := cronexpr.Parse(j.Schedule); err == nil {
				if next, err := s.NextAfter(now); err == nil {
					e.NextRun = &next
				}
			}
		} else {
			r.Invalid++
		}

		if opts.LastRuns != nil {
			last, ok, err := opts.LastRuns.LastRun(ctx, j.Name)
			switch {
			case err != nil:
				logs.Warn("last run of %s (%s): %v", j.Name, j.Source, err)
				e.Reason = ReasonLastRunUnavailable
			case ok:
				v := deadjob.Check(j.Schedule, last, now)
				e.LastRun = &last
				e.Checked = true
				e.Dead = v.Dead
				e.ExpectedRun = v.Expected
				e.Reason = v.Reason
				if v.Dead {
					r.Dead++
				}
			}
		}

		r.Jobs = append(r.Jobs, e)
	}

	return r
}

// Find returns the entry for the named job.
func (r *Report) Find(name string) (Entry, bool) {
	for _, e := range r.Jobs {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// DeadJobs returns the entries found dead.
func (r *Report) DeadJobs() []Entry {
	var out []Entry
	for _, e := range r.Jobs {
		if e.Dead {
			out = append(out, e)
		}
	}
	return out
}
