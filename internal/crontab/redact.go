package crontab

import "regexp"

var secretPattern = regexp.MustCompile(`(?i)(password|secret|token|api[_\-]?key|credentials)\s*[=:]\s*\S+`)

// Redact replaces the values of secret-looking assignments in cmd with ***.
func Redact(cmd string) string {
	return secretPattern.ReplaceAllString(cmd, "${1}=***")
}
