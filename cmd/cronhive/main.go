// Command cronhive inventories cron jobs, validates their schedules and
// reports jobs that appear to have stopped running.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const usage = `usage: cronhive [command] [flags]

commands:
  scan       inventory crontab sources (default)
  validate   check cron expressions
  next       list upcoming occurrences of an expression
  check      decide whether a job is dead from its last run
  watch      run the watch daemon and HTTP API
  watchdog   health-check a running watch daemon

run "cronhive <command> --help" for command flags.
`

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitDead  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
			fmt.Fprint(stdout, usage)
			return exitOK
		}
		return runScan(args, stdout, stderr)
	}

	switch args[0] {
	case "scan":
		return runScan(args[1:], stdout, stderr)
	case "validate":
		return runValidate(args[1:], stdout, stderr)
	case "next":
		return runNext(args[1:], stdout, stderr)
	case "check":
		return runCheck(args[1:], stdout, stderr)
	case "watch":
		return runWatch(args[1:], stdout, stderr)
	case "watchdog":
		return runWatchdog(args[1:], stdout, stderr)
	case "help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n%s", args[0], usage)
		return exitError
	}
}
