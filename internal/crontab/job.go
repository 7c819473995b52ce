// Package crontab discovers cron jobs in crontab-formatted text.
package crontab

// Job is one scheduled entry found in a crontab source.
type Job struct {
	// Source is the resolved file path, or a logical origin such as "user:alice".
	Source string `json:"source"`
	// Line is the 1-based line number within the source.
	Line     int    `json:"line,omitempty"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	// Command has secrets redacted.
	Command string `json:"command"`
	// User is only set for system-format crontabs.
	User  string `json:"user"`
	Valid bool   `json:"valid"`
}

// Key identifies the job across scans.
func (j Job) Key() string {
	return j.Source + "#" + j.Name
}
