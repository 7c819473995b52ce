package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/patrickspencer/cronhive/internal/config"
	"github.com/patrickspencer/cronhive/internal/logs"
	"github.com/patrickspencer/cronhive/internal/metrics"
	"github.com/patrickspencer/cronhive/internal/notify"
	"github.com/patrickspencer/cronhive/internal/realtime"
	"github.com/patrickspencer/cronhive/internal/store"
	"github.com/patrickspencer/cronhive/internal/watch"
	"github.com/patrickspencer/cronhive/internal/web"
	"github.com/patrickspencer/cronhive/internal/web/api"
)

// runWatch runs the daemon until SIGINT or SIGTERM.
func runWatch(args []string, _, stderr io.Writer) int {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	var src sourceFlags
	src.register(fs)
	listen := fs.String("listen", "", "HTTP listen address (overrides config)")
	rescan := fs.String("rescan-interval", "", "how often to rescan sources (overrides config)")
	if code, done := parseFlags(fs, args, stderr); done {
		return code
	}

	cfg, err := src.loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *rescan != "" {
		cfg.RescanInterval = *rescan
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	interval, _ := cfg.RescanIntervalDuration()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner, err := newScanner(cfg)
	if err != nil {
		logs.Error("%v", err)
		return exitError
	}
	lastRuns, db, err := lastRunSources(ctx, cfg)
	if err != nil {
		logs.Error("%v", err)
		return exitError
	}
	if db != nil {
		defer db.Close()
		logs.Info("reading last runs from %s", cfg.RunsDB)
	}
	if lastRuns == nil {
		logs.Warn("no last-run source configured; dead-job checks are disabled")
	}

	notifiers, err := notify.LoadAll(cfg.Plugins)
	if err != nil {
		logs.Error("%v", err)
		return exitError
	}
	defer notify.CloseAll(notifiers)

	events := realtime.NewBroker()
	recorder := metrics.NewRecorder()
	daemon := watch.New(watch.Options{
		Scanner:        scanner,
		LastRuns:       lastRuns,
		RescanInterval: interval,
		Events:         events,
		Metrics:        recorder,
		Notifiers:      notifiers,
	})

	snapshot := func() *config.Config {
		cp := *cfg
		return &cp
	}
	a := &api.API{
		Report:      daemon.Report,
		Events:      events,
		GetConfig:   snapshot,
		NextRunTime: daemon.NextRunTime,
	}
	if db != nil {
		a.Runs = store.RunReader(db)
	}

	srv := web.NewServer(cfg.Listen, a, recorder.Handler())
	if _, err := srv.Listen(); err != nil {
		logs.Error("listen on %s: %v", cfg.Listen, err)
		return exitError
	}

	daemon.Start(ctx)
	defer daemon.Stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()
	logs.Info("cronhive watching %d source(s), rescan every %s", len(scanner.Sources), interval)

	code := exitOK
	select {
	case <-ctx.Done():
		logs.Info("shutting down...")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Error("http server error: %v", err)
			code = exitError
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Error("http server shutdown error: %v", err)
	}
	logs.Info("cronhive stopped")
	return code
}
