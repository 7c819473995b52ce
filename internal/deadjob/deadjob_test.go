package deadjob

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	day := func(h, m int) time.Time { return time.Date(2024, 6, 15, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name         string
		expr         string
		last, now    time.Time
		dead         bool
		wantExpected *time.Time
		reason       string
	}{
		{
			name: "five minute job silent for an hour",
			expr: "*/5 * * * *", last: day(11, 0), now: day(12, 0),
			dead: true, wantExpected: ptr(day(11, 5)), reason: ReasonOverdue,
		},
		{
			name: "daily job ran this morning",
			expr: "0 2 * * *", last: day(2, 0), now: day(12, 0),
			dead: false, wantExpected: ptr(day(2, 0).AddDate(0, 0, 1)), reason: ReasonOnSchedule,
		},
		{
			name: "exactly two intervals overdue is tolerated",
			expr: "0 * * * *", last: day(10, 0), now: day(13, 0),
			dead: false, wantExpected: ptr(day(11, 0)), reason: ReasonOnSchedule,
		},
		{
			name: "one minute past two intervals",
			expr: "0 * * * *", last: day(10, 0), now: day(13, 1),
			dead: true, wantExpected: ptr(day(11, 0)), reason: ReasonOverdue,
		},
		{
			name: "alias",
			expr: "@hourly", last: day(10, 30), now: day(11, 30),
			dead: false, wantExpected: ptr(day(11, 0)), reason: ReasonOnSchedule,
		},
		{
			name: "invalid schedule",
			expr: "invalid", last: day(11, 0), now: day(12, 0),
			dead: true, reason: ReasonInvalid,
		},
		{
			name: "unknown alias",
			expr: "@bogus", last: day(11, 0), now: day(12, 0),
			dead: true, reason: ReasonInvalid,
		},
		{
			name: "reboot is never dead",
			expr: "@reboot", last: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), now: day(12, 0),
			dead: false, reason: ReasonReboot,
		},
		{
			name: "schedule that never occurs",
			expr: "30 0 31 2 *", last: day(11, 0), now: day(12, 0),
			dead: true, reason: ReasonNoOccurrence,
		},
	}

	for _, tc := range tests {
		v := Check(tc.expr, tc.last, tc.now)
		if v.Dead != tc.dead {
			t.Fatalf("%s: Dead = %v, want %v", tc.name, v.Dead, tc.dead)
		}
		if v.Reason != tc.reason {
			t.Fatalf("%s: Reason = %q, want %q", tc.name, v.Reason, tc.reason)
		}
		switch {
		case tc.wantExpected == nil && v.Expected != nil:
			t.Fatalf("%s: expected no expected occurrence, got %s", tc.name, v.Expected)
		case tc.wantExpected != nil && v.Expected == nil:
			t.Fatalf("%s: expected occurrence %s, got none", tc.name, tc.wantExpected)
		case tc.wantExpected != nil && !v.Expected.Equal(*tc.wantExpected):
			t.Fatalf("%s: Expected = %s, want %s", tc.name, v.Expected, tc.wantExpected)
		}
	}
}

func TestCheckIntervalAndOverdue(t *testing.T) {
	t.Parallel()

	last := time.Date(2024, 6, 15, 11, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	v := Check("*/5 * * * *", last, now)
	if v.Interval != 5*time.Minute {
		t.Fatalf("expected 5m interval, got %s", v.Interval)
	}
	if v.Overdue != 55*time.Minute {
		t.Fatalf("expected 55m overdue, got %s", v.Overdue)
	}
}

func TestCheckNowUsesCurrentTime(t *testing.T) {
	t.Parallel()

	if v := CheckNow("* * * * *", time.Now().Add(-time.Hour)); !v.Dead {
		t.Fatalf("expected a minutely job idle for an hour to be dead, got %+v", v)
	}
	if v := CheckNow("0 0 1 1 *", time.Now()); v.Dead {
		t.Fatalf("expected a yearly job that just ran to be alive, got %+v", v)
	}
}

func TestChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first := StaticSource{"backup": time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC)}
	second := StaticSource{
		"backup": time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		"rotate": time.Date(2024, 6, 14, 3, 0, 0, 0, time.UTC),
	}
	chain := Chain{first, nil, second}

	got, ok, err := chain.LastRun(ctx, "backup")
	if err != nil || !ok {
		t.Fatalf("LastRun(backup): ok=%v err=%v", ok, err)
	}
	if got.Year() != 2024 {
		t.Fatalf("expected the first source to win, got %s", got)
	}
	if _, ok, _ := chain.LastRun(ctx, "rotate"); !ok {
		t.Fatal("expected rotate from the second source")
	}
	if _, ok, _ := chain.LastRun(ctx, "missing"); ok {
		t.Fatal("expected no result for an unknown job")
	}

	boom := errors.New("boom")
	failing := Chain{failingSource{err: boom}, first}
	if _, _, err := failing.LastRun(ctx, "backup"); !errors.Is(err, boom) {
		t.Fatalf("expected source error to propagate, got %v", err)
	}
}

func TestParseStatic(t *testing.T) {
	t.Parallel()

	src, err := ParseStatic(map[string]string{
		"a": "2024-06-15T02:00:00Z",
		"b": "2024-06-15T02:00",
		"c": "2024-06-15 02:00",
	})
	if err != nil {
		t.Fatalf("ParseStatic: %v", err)
	}
	if !src["a"].Equal(time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time for a: %s", src["a"])
	}
	if want := time.Date(2024, 6, 15, 2, 0, 0, 0, time.Local); !src["b"].Equal(want) || !src["c"].Equal(want) {
		t.Fatalf("expected local 02:00 for b and c, got %s and %s", src["b"], src["c"])
	}

	if _, err := ParseStatic(map[string]string{"bad": "yesterday"}); err == nil {
		t.Fatal("expected error for unparseable time")
	}
}

type failingSource struct{ err error }

func (f failingSource) LastRun(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, f.err
}

func ptr(t time.Time) *time.Time { return &t }
