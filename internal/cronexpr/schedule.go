// Package cronexpr parses POSIX cron expressions and computes their occurrences.
//
// A Schedule is built from five fields (minute, hour, day-of-month, month,
// day-of-week) or from one of the symbolic aliases such as @daily. Occurrences
// are found by walking forward from a reference time one unit at a time,
// carrying into coarser units the way a clock does, until every field matches.
package cronexpr

import (
	"fmt"
	"strings"
	"time"
)

// HorizonYears bounds the occurrence search. Expressions that cannot match
// within this many years of the reference time (for example `30 0 31 2 *`)
// fail with ErrNoOccurrence. Eight years covers the longest gap between two
// leap days, so `0 0 29 2 *` always resolves.
const HorizonYears = 8

// Schedule is a parsed cron expression. It is immutable and safe for
// concurrent use.
type Schedule struct {
	expr     string
	periodic bool

	minute, hour, dom, month, dow Set
}

// Parse builds a Schedule from a five-field expression or a symbolic alias.
// @reboot parses into a Schedule that is not periodic and never occurs.
func Parse(expr string) (*Schedule, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidSchedule)
	}

	if strings.HasPrefix(trimmed, "@") {
		if !IsAlias(trimmed) {
			return nil, fmt.Errorf("%w: unknown alias %q", ErrInvalidSchedule, trimmed)
		}
		if trimmed == Reboot {
			return &Schedule{expr: trimmed}, nil
		}
		expansion, _ := Expand(trimmed)
		s, err := parseFields(expansion)
		if err != nil {
			return nil, err
		}
		s.expr = trimmed
		return s, nil
	}

	s, err := parseFields(trimmed)
	if err != nil {
		return nil, err
	}
	s.expr = trimmed
	return s, nil
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) *Schedule {
	s, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func parseFields(expr string) (*Schedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidSchedule, len(parts))
	}

	var sets [5]Set
	for i, text := range parts {
		set, err := ParseField(Field(i), text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
		}
		sets[i] = set
	}

	return &Schedule{
		periodic: true,
		minute:   sets[Minute],
		hour:     sets[Hour],
		dom:      sets[DayOfMonth],
		month:    sets[Month],
		dow:      sets[DayOfWeek],
	}, nil
}

// String returns the expression the Schedule was parsed from.
func (s *Schedule) String() string {
	return s.expr
}

// Periodic reports whether the Schedule has recurring occurrences.
func (s *Schedule) Periodic() bool {
	return s.periodic
}

// dayMatches combines the two day fields. When both are unrestricted every day
// matches, when one is restricted it alone decides, and when both are
// restricted a day matches if either field does.
func (s *Schedule) dayMatches(t time.Time) bool {
	domAny := s.dom.Full(DayOfMonth)
	dowAny := s.dow.Full(DayOfWeek)
	domMatch := s.dom.Has(t.Day())
	dowMatch := s.dow.Has(int(t.Weekday()))

	switch {
	case domAny && dowAny:
		return true
	case domAny:
		return dowMatch
	case dowAny:
		return domMatch
	default:
		return domMatch || dowMatch
	}
}

// Matches reports whether the minute containing t is an occurrence.
func (s *Schedule) Matches(t time.Time) bool {
	if !s.periodic {
		return false
	}
	return s.month.Has(int(t.Month())) &&
		s.dayMatches(t) &&
		s.hour.Has(t.Hour()) &&
		s.minute.Has(t.Minute())
}

// NextAfter returns the earliest occurrence strictly after t. Seconds and
// sub-second parts of t are ignored. The result is in t's location.
//
// Hours and minutes advance by absolute duration, so a wall-clock hour that
// repeats at a DST fall-back is visited twice and a skipped one not at all.
func (s *Schedule) NextAfter(after time.Time) (time.Time, error) {
	if !s.periodic {
		return time.Time{}, fmt.Errorf("%w: %s is not periodic", ErrNoOccurrence, s.expr)
	}

	loc := after.Location()
	t := after.Truncate(time.Minute).Add(time.Minute)
	limit := t.Year() + HorizonYears

WRAP:
	if t.Year() > limit {
		return time.Time{}, fmt.Errorf("%w: %q within %d years of %s",
			ErrNoOccurrence, s.expr, HorizonYears, after.Format(time.RFC3339))
	}

	for !s.month.Has(int(t.Month())) {
		t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
		if t.Month() == time.January {
			goto WRAP
		}
	}

	for !s.dayMatches(t) {
		t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
		if t.Day() == 1 {
			goto WRAP
		}
	}

	day := t.Day()
	for !s.hour.Has(t.Hour()) {
		t = t.Add(time.Duration(60-t.Minute()) * time.Minute)
		if t.Day() != day {
			goto WRAP
		}
	}

	hour := t.Hour()
	for !s.minute.Has(t.Minute()) {
		t = t.Add(time.Minute)
		if t.Hour() != hour {
			goto WRAP
		}
	}

	return t, nil
}

// Next returns the next occurrence after t, or the zero time if there is none.
// It lets a Schedule stand in wherever a cron.Schedule is expected.
func (s *Schedule) Next(t time.Time) time.Time {
	next, err := s.NextAfter(t)
	if err != nil {
		return time.Time{}
	}
	return next
}

// Cursor returns a forward-only iterator over the occurrences after from.
func (s *Schedule) Cursor(from time.Time) *Cursor {
	return &Cursor{schedule: s, at: from}
}

// Cursor walks the occurrences of a Schedule. It is not safe for concurrent use.
type Cursor struct {
	schedule *Schedule
	at       time.Time
}

// Next advances the cursor to the following occurrence and returns it.
// On error the cursor does not move.
func (c *Cursor) Next() (time.Time, error) {
	next, err := c.schedule.NextAfter(c.at)
	if err != nil {
		return time.Time{}, err
	}
	c.at = next
	return next, nil
}

// At returns the cursor position: the last occurrence returned, or the
// starting time if Next has not succeeded yet.
func (c *Cursor) At() time.Time {
	return c.at
}
