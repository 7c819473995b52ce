package crontab

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/patrickspencer/cronhive/internal/cronexpr"
)

// NamePrefix is prepended to names derived from a job's command.
const NamePrefix = "cron-"

var envAssignment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*=`)

// Parse extracts jobs from crontab text. In system format every entry carries
// a user column between the schedule and the command.
//
// Blank lines, comments and environment assignments are skipped, as are lines
// with too few columns. Each job's schedule is validated and its command is
// redacted.
func Parse(text, source string, system bool) []Job {
	var jobs []Job
	names := newNamer(NamePrefix)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if isEnvAssignment(line) {
			continue
		}

		var schedule, user, command string
		if strings.HasPrefix(line, "@") {
			splits, need := 1, 2
			if system {
				splits, need = 2, 3
			}
			parts := splitFields(line, splits)
			if len(parts) < need {
				continue
			}
			schedule = parts[0]
			if system {
				user = parts[1]
			}
			command = parts[len(parts)-1]
		} else {
			splits, need := 5, 6
			if system {
				splits, need = 6, 7
			}
			parts := splitFields(line, splits)
			if len(parts) < need {
				continue
			}
			schedule = strings.Join(parts[:5], " ")
			if system {
				user = parts[5]
				command = parts[6]
			} else {
				command = parts[5]
			}
		}

		command = Redact(command)
		jobs = append(jobs, Job{
			Source:   source,
			Line:     i + 1,
			Name:     names.name(command),
			Schedule: schedule,
			Command:  command,
			User:     user,
			Valid:    cronexpr.Valid(schedule),
		})
	}

	return jobs
}

func isEnvAssignment(line string) bool {
	first := line
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		first = line[:i]
	}
	return strings.Contains(first, "=") || envAssignment.MatchString(line)
}

// splitFields splits s on runs of whitespace at most max times. The last part
// keeps its internal whitespace.
func splitFields(s string, max int) []string {
	var parts []string
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	for s != "" {
		if len(parts) == max {
			parts = append(parts, s)
			break
		}
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			parts = append(parts, s)
			break
		}
		parts = append(parts, s[:i])
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	return parts
}

type namer struct {
	prefix string
	seen   map[string]bool
}

func newNamer(prefix string) *namer {
	return &namer{prefix: prefix, seen: make(map[string]bool)}
}

// name returns the job name for command: the --name of a cronbat wrap
// invocation, otherwise the prefix plus the sanitized executable name.
func (n *namer) name(command string) string {
	name := ""
	if wrapped, ok := wrapJobName(command); ok {
		name = wrapped
	} else {
		name = generateJobName(n.prefix, command)
	}

	base := name
	for i := 2; n.seen[name]; i++ {
		name = fmt.Sprintf("%s-%d", base, i)
	}
	n.seen[name] = true
	return name
}

// wrapJobName returns X from a `cronbat wrap --name X -- cmd` invocation.
func wrapJobName(command string) (string, bool) {
	if !strings.Contains(command, "wrap") {
		return "", false
	}

	parts := strings.Fields(command)
	var name string
	dashDashIdx := -1

	for i := 0; i < len(parts); i++ {
		if parts[i] == "--name" && i+1 < len(parts) {
			name = parts[i+1]
			i++
		} else if parts[i] == "--" {
			dashDashIdx = i
			break
		}
	}

	if name == "" || dashDashIdx < 0 || dashDashIdx+1 >= len(parts) {
		return "", false
	}
	return name, true
}

func generateJobName(prefix, command string) string {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return prefix + "job"
	}
	base := filepath.Base(parts[0])
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	var b strings.Builder
	for _, ch := range base {
		isLower := ch >= 'a' && ch <= 'z'
		isUpper := ch >= 'A' && ch <= 'Z'
		isDigit := ch >= '0' && ch <= '9'
		if isLower || isUpper || isDigit || ch == '-' || ch == '_' {
			b.WriteRune(ch)
		}
	}
	name := b.String()
	if name == "" {
		name = "job"
	}
	return prefix + name
}
