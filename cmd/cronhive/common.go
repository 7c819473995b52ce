package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/patrickspencer/cronhive/internal/config"
	"github.com/patrickspencer/cronhive/internal/deadjob"
	"github.com/patrickspencer/cronhive/internal/inventory"
	"github.com/patrickspencer/cronhive/internal/logs"
	"github.com/patrickspencer/cronhive/internal/runner"
	"github.com/patrickspencer/cronhive/internal/store"
)

// parseFlags parses args into fs. pflag reports errors and usage itself; done
// is true, with the exit code, when parsing failed or help was requested.
func parseFlags(fs *pflag.FlagSet, args []string, stderr io.Writer) (code int, done bool) {
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: cronhive %s [flags]\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK, true
		}
		return exitError, true
	}
	return exitOK, false
}

// sourceFlags are the scan inputs shared by scan and watch.
type sourceFlags struct {
	configPath string
	scanFiles  []string
	system     bool
	scanUser   bool
	runsDB     string
	lastRuns   []string
}

func (f *sourceFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "path to configuration file")
	fs.StringArrayVar(&f.scanFiles, "scan-file", nil, "crontab file to scan (repeatable)")
	fs.BoolVar(&f.system, "system", false, "treat --scan-file paths as system crontabs with a user column")
	fs.BoolVar(&f.scanUser, "scan-user", false, "scan the invoking user's crontab via crontab -l")
	fs.StringVar(&f.runsDB, "runs-db", "", "cronbat runs database to read last-run times from")
	fs.StringArrayVar(&f.lastRuns, "last-run", nil, "last run of a job as name=TIME (repeatable)")
}

// loadConfig loads the config file, applies the CLI overrides on top and
// initialises logging.
func (f *sourceFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	for _, path := range f.scanFiles {
		cfg.Sources = append(cfg.Sources, config.Source{Path: path, System: f.system})
	}
	if f.scanUser {
		cfg.ScanUser = true
	}
	if f.runsDB != "" {
		cfg.RunsDB = f.runsDB
	}
	if len(f.lastRuns) > 0 && cfg.LastRuns == nil {
		cfg.LastRuns = map[string]string{}
	}
	for _, kv := range f.lastRuns {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("--last-run %q: want name=TIME", kv)
		}
		cfg.LastRuns[strings.TrimSpace(name)] = value
	}

	if err := logs.Init(logs.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

func newScanner(cfg *config.Config) (*inventory.Scanner, error) {
	timeout, err := cfg.CrontabTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return &inventory.Scanner{
		Sources:  cfg.EnabledSources(),
		ScanUser: cfg.ScanUser,
		Runner:   runner.NewRunner(),
		Timeout:  timeout,
	}, nil
}

// lastRunSources chains explicit last runs ahead of the runs database. A
// non-nil store is returned so the caller can close it. The source is nil when
// nothing is configured.
func lastRunSources(ctx context.Context, cfg *config.Config) (deadjob.LastRunSource, *store.SQLiteStore, error) {
	var chain deadjob.Chain
	if len(cfg.LastRuns) > 0 {
		static, err := deadjob.ParseStatic(cfg.LastRuns)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, static)
	}

	var db *store.SQLiteStore
	if cfg.RunsDB != "" {
		var err error
		db, err = store.OpenReadOnly(ctx, cfg.RunsDB)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, db)
	}

	if len(chain) == 0 {
		return nil, nil, nil
	}
	return chain, db, nil
}
