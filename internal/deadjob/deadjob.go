// Package deadjob decides whether a cron job appears to have stopped running.
package deadjob

import (
	"time"

	"github.com/patrickspencer/cronhive/internal/cronexpr"
)

// Reasons reported in a Verdict.
const (
	ReasonInvalid      = "invalid schedule"
	ReasonReboot       = "reboot"
	ReasonNoOccurrence = "no occurrence"
	ReasonOverdue      = "overdue"
	ReasonOnSchedule   = "on schedule"
)

// Verdict is the outcome of a liveness check.
type Verdict struct {
	Dead bool
	// Expected is the first occurrence after the last run, when one exists.
	Expected *time.Time
	// Interval is the gap between Expected and the occurrence after it.
	Interval time.Duration
	// Overdue is how far now is past Expected; negative when Expected is ahead.
	Overdue time.Duration
	Reason  string
}

// Check reports whether a job with schedule expr, last seen running at
// lastRun, should be considered dead at now.
//
// A job is dead when more than two intervals have passed since the run that
// was expected after lastRun. Unparseable schedules, and schedules that yield
// no occurrence, are always dead. @reboot jobs are never dead.
func Check(expr string, lastRun, now time.Time) Verdict {
	if !cronexpr.Valid(expr) {
		return Verdict{Dead: true, Reason: ReasonInvalid}
	}
	if expr == cronexpr.Reboot {
		return Verdict{Reason: ReasonReboot}
	}

	s, err := cronexpr.Parse(expr)
	if err != nil {
		return Verdict{Dead: true, Reason: ReasonInvalid}
	}

	c := s.Cursor(lastRun)
	expected, err := c.Next()
	if err != nil {
		return Verdict{Dead: true, Reason: ReasonNoOccurrence}
	}
	nextAfter, err := c.Next()
	if err != nil {
		return Verdict{Dead: true, Reason: ReasonNoOccurrence}
	}

	interval := nextAfter.Sub(expected)
	overdue := now.Sub(expected)
	v := Verdict{
		Dead:     overdue > 2*interval,
		Expected: &expected,
		Interval: interval,
		Overdue:  overdue,
		Reason:   ReasonOnSchedule,
	}
	if v.Dead {
		v.Reason = ReasonOverdue
	}
	return v
}

// CheckNow is Check evaluated at the current time.
func CheckNow(expr string, lastRun time.Time) Verdict {
	return Check(expr, lastRun, time.Now())
}
