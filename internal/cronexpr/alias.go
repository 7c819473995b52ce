package cronexpr

// Reboot is the alias for jobs that run once at system start.
const Reboot = "@reboot"

// aliases maps every recognised symbolic schedule to its five-field expansion.
// @reboot has no periodic expansion.
var aliases = map[string]string{
	Reboot:      "",
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

// IsAlias reports whether s is exactly one of the recognised symbolic schedules.
func IsAlias(s string) bool {
	_, ok := aliases[s]
	return ok
}

// Expand returns the five-field form of a periodic alias.
// It returns false for @reboot and for anything that is not an alias.
func Expand(alias string) (string, bool) {
	expr, ok := aliases[alias]
	if !ok || expr == "" {
		return "", false
	}
	return expr, true
}
