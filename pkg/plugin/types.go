package plugin

import "time"

// Event statuses.
const (
	StatusDead      = "dead"
	StatusRecovered = "recovered"
)

// DeadJobEvent describes a job that stopped, or resumed, running on schedule.
type DeadJobEvent struct {
	JobName     string     `json:"job_name"`
	Source      string     `json:"source"`
	Schedule    string     `json:"schedule"`
	Command     string     `json:"command"`
	Status      string     `json:"status"`
	Reason      string     `json:"reason"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	ExpectedRun *time.Time `json:"expected_run,omitempty"`
	At          time.Time  `json:"at"`
}
