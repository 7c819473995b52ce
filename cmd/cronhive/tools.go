package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/patrickspencer/cronhive/internal/cronexpr"
	"github.com/patrickspencer/cronhive/internal/deadjob"
)

// runValidate prints one verdict per expression argument.
func runValidate(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	quiet := fs.BoolP("quiet", "q", false, "print nothing, only set the exit status")
	if code, done := parseFlags(fs, args, stderr); done {
		return code
	}
	exprs := fs.Args()
	if len(exprs) == 0 {
		fmt.Fprintln(stderr, "usage: cronhive validate EXPR...")
		return exitError
	}

	code := exitOK
	for _, expr := range exprs {
		if cronexpr.Valid(expr) {
			if !*quiet {
				fmt.Fprintf(stdout, "valid\t%s\n", expr)
			}
			continue
		}
		code = exitError
		if *quiet {
			continue
		}
		reason := "not a cron expression"
		if _, err := cronexpr.Parse(expr); err != nil {
			reason = err.Error()
		}
		fmt.Fprintf(stdout, "invalid\t%s\t%s\n", expr, reason)
	}
	return code
}

// runNext prints the next occurrences of an expression. Unquoted
// expressions split by the shell are joined back together.
func runNext(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("next", pflag.ContinueOnError)
	from := fs.String("from", "", "start after this time (default now)")
	count := fs.IntP("count", "n", 5, "number of occurrences")
	if code, done := parseFlags(fs, args, stderr); done {
		return code
	}
	expr := strings.Join(fs.Args(), " ")
	if expr == "" {
		fmt.Fprintln(stderr, "usage: cronhive next EXPR [--from TIME] [-n N]")
		return exitError
	}
	if *count < 1 {
		fmt.Fprintln(stderr, "error: -n must be at least 1")
		return exitError
	}

	start := time.Now()
	if *from != "" {
		t, err := deadjob.ParseTime(*from)
		if err != nil {
			fmt.Fprintf(stderr, "error: --from: %v\n", err)
			return exitError
		}
		start = t
	}

	s, err := cronexpr.Parse(expr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	if !s.Periodic() {
		fmt.Fprintf(stderr, "error: %s has no clock occurrences\n", expr)
		return exitError
	}

	c := s.Cursor(start)
	for i := 0; i < *count; i++ {
		next, err := c.Next()
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitError
		}
		fmt.Fprintln(stdout, next.Format(time.RFC3339))
	}
	return exitOK
}

type checkResult struct {
	Schedule    string     `json:"schedule"`
	LastRun     time.Time  `json:"last_run"`
	Now         time.Time  `json:"now"`
	Dead        bool       `json:"dead"`
	Reason      string     `json:"reason"`
	ExpectedRun *time.Time `json:"expected_run,omitempty"`
	Interval    string     `json:"interval,omitempty"`
	Overdue     string     `json:"overdue,omitempty"`
}

// runCheck reports whether a job is dead. It exits 2 when it is.
func runCheck(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	lastRun := fs.String("last-run", "", "when the job last ran (required)")
	nowFlag := fs.String("now", "", "evaluate at this time (default now)")
	asJSON := fs.Bool("json", false, "print the verdict as JSON")
	if code, done := parseFlags(fs, args, stderr); done {
		return code
	}
	expr := strings.Join(fs.Args(), " ")
	if expr == "" || *lastRun == "" {
		fmt.Fprintln(stderr, "usage: cronhive check EXPR --last-run TIME [--now TIME]")
		return exitError
	}

	last, err := deadjob.ParseTime(*lastRun)
	if err != nil {
		fmt.Fprintf(stderr, "error: --last-run: %v\n", err)
		return exitError
	}
	now := time.Now()
	if *nowFlag != "" {
		if now, err = deadjob.ParseTime(*nowFlag); err != nil {
			fmt.Fprintf(stderr, "error: --now: %v\n", err)
			return exitError
		}
	}

	v := deadjob.Check(expr, last, now)
	res := checkResult{
		Schedule:    expr,
		LastRun:     last,
		Now:         now,
		Dead:        v.Dead,
		Reason:      v.Reason,
		ExpectedRun: v.Expected,
	}
	if v.Expected != nil {
		res.Interval = v.Interval.String()
		res.Overdue = v.Overdue.String()
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitError
		}
	} else {
		printVerdict(stdout, res)
	}

	if v.Dead {
		return exitDead
	}
	return exitOK
}

func printVerdict(w io.Writer, r checkResult) {
	state := "alive"
	if r.Dead {
		state = "dead"
	}
	if r.ExpectedRun == nil {
		fmt.Fprintf(w, "%s: %s\n", state, r.Reason)
		return
	}
	fmt.Fprintf(w, "%s: %s (expected %s, interval %s, overdue %s)\n",
		state, r.Reason, r.ExpectedRun.Format(time.RFC3339), r.Interval, r.Overdue)
}
