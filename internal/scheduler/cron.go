package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/patrickspencer/cronhive/internal/cronexpr"
)

var _ cron.Schedule = (*cronexpr.Schedule)(nil)

// ParseSchedule parses a cron expression with CronHive's engine and returns it
// as a cron.Schedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	s, err := cronexpr.Parse(expr)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Every returns a schedule firing at a fixed interval, rounded down to the
// second as robfig/cron does.
func Every(d time.Duration) cron.Schedule {
	return cron.Every(d)
}

// NextTime returns the next fire time after the given time for the schedule.
// The zero time means the schedule never fires again.
func NextTime(schedule cron.Schedule, after time.Time) time.Time {
	return schedule.Next(after)
}
