package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/patrickspencer/cronhive/internal/deadjob"
	"github.com/patrickspencer/cronhive/internal/inventory"
	"github.com/patrickspencer/cronhive/internal/logs"
)

func runScan(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("scan", pflag.ContinueOnError)
	var src sourceFlags
	src.register(fs)
	output := fs.StringP("output", "o", "text", "report format: text or json")
	nowFlag := fs.String("now", "", "evaluate liveness at this time instead of the current time")
	failOnDead := fs.Bool("fail-on-dead", false, "exit with status 2 when any job is dead")
	if code, done := parseFlags(fs, args, stderr); done {
		return code
	}

	cfg, err := src.loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	if fs.Changed("output") {
		cfg.Output = *output
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	now := time.Now()
	if *nowFlag != "" {
		if now, err = deadjob.ParseTime(*nowFlag); err != nil {
			fmt.Fprintf(stderr, "error: --now: %v\n", err)
			return exitError
		}
	}

	ctx := context.Background()
	scanner, err := newScanner(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	lastRuns, db, err := lastRunSources(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	if db != nil {
		defer db.Close()
	}

	jobs := scanner.Scan(ctx)
	rep := inventory.Build(ctx, jobs, inventory.Options{Now: now, LastRuns: lastRuns})
	logs.Debug("report %s built from %d sources", rep.ID, len(scanner.Sources))

	if cfg.Output == "json" {
		err = inventory.WriteJSON(stdout, rep)
	} else {
		err = inventory.WriteText(stdout, rep)
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	if *failOnDead && rep.Dead > 0 {
		return exitDead
	}
	return exitOK
}
