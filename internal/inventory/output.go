package inventory

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	markValid   = color.New(color.FgGreen)
	markInvalid = color.New(color.FgRed)
	markDead    = color.New(color.FgRed, color.Bold)
)

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes the human-readable summary: a header line followed by one
// line per job. Colour follows fatih/color's terminal detection.
func WriteText(w io.Writer, r *Report) error {
	if _, err := fmt.Fprintf(w, "CronHive: %d jobs (%d valid, %d invalid)\n", r.Total, r.Valid, r.Invalid); err != nil {
		return err
	}
	for _, e := range r.Jobs {
		mark := markValid.Sprint("V")
		if !e.Valid {
			mark = markInvalid.Sprint("X")
		}
		user := e.User
		if user == "" {
			user = "-"
		}
		line := fmt.Sprintf("  [%s] %-20s | %-8s | %s", mark, e.Schedule, user, truncate(e.Command, 50))
		if e.Dead {
			line += markDead.Sprint(" DEAD")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
