package cronexpr

import "strings"

// Valid reports whether expr is a well-formed schedule. Any @-prefixed input
// must be exactly one of the recognised aliases; @reboot is valid.
func Valid(expr string) bool {
	if strings.TrimSpace(expr) == "" {
		return false
	}
	if strings.HasPrefix(expr, "@") {
		return IsAlias(expr)
	}
	_, err := Parse(expr)
	return err == nil
}
