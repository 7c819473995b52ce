package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// PluginConfig holds configuration for a single notifier plugin.
type PluginConfig struct {
	Name   string         `yaml:"name" json:"name"`
	Type   string         `yaml:"type" json:"type"`
	Config map[string]any `yaml:"config" json:"config,omitempty"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level      string `yaml:"level" json:"level" env:"LEVEL"`
	Format     string `yaml:"format" json:"format" env:"FORMAT"`
	Output     string `yaml:"output" json:"output" env:"OUTPUT"`
	File       string `yaml:"file" json:"file,omitempty" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" json:"compress" env:"COMPRESS"`
}

// Config is the top-level configuration parsed from cronhive.yaml.
type Config struct {
	Sources        []Source          `yaml:"sources" json:"sources"`
	SourcesDir     string            `yaml:"sources_dir" json:"sources_dir,omitempty" env:"SOURCES_DIR"`
	ScanUser       bool              `yaml:"scan_user" json:"scan_user" env:"SCAN_USER"`
	CrontabTimeout string            `yaml:"crontab_timeout" json:"crontab_timeout" env:"CRONTAB_TIMEOUT"`
	Output         string            `yaml:"output" json:"output" env:"OUTPUT"`
	RunsDB         string            `yaml:"runs_db" json:"runs_db,omitempty" env:"RUNS_DB"`
	LastRuns       map[string]string `yaml:"last_runs" json:"last_runs,omitempty"`
	Listen         string            `yaml:"listen" json:"listen" env:"LISTEN"`
	RescanInterval string            `yaml:"rescan_interval" json:"rescan_interval" env:"RESCAN_INTERVAL"`
	Log            LogConfig         `yaml:"log" json:"log" envPrefix:"LOG_"`
	Plugins        []PluginConfig    `yaml:"plugins" json:"plugins,omitempty"`
}

// EnvPrefix prefixes every environment override, e.g. CRONHIVE_LISTEN.
const EnvPrefix = "CRONHIVE_"

func applyDefaults(c *Config) {
	if c.CrontabTimeout == "" {
		c.CrontabTimeout = "10s"
	}
	if c.Output == "" {
		c.Output = "text"
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.RescanInterval == "" {
		c.RescanInterval = "5m"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stderr"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 100
	}
	c.SourcesDir = expandPath(c.SourcesDir)
	c.RunsDB = expandPath(c.RunsDB)
	c.Log.File = expandPath(c.Log.File)
	for i := range c.Sources {
		c.Sources[i].Path = expandPath(c.Sources[i].Path)
	}
}

func expandPath(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return value
	}

	v = os.ExpandEnv(v)

	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return v
	}

	if v == "~" {
		return home
	}
	if strings.HasPrefix(v, "~/") {
		return filepath.Join(home, v[2:])
	}
	if strings.HasPrefix(v, "~\\") {
		return filepath.Join(home, v[2:])
	}
	return v
}

// Default returns a Config with only environment overrides and defaults.
func Default() (*Config, error) {
	var cfg Config
	if err := finish(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads a YAML configuration file from path, applies CRONHIVE_*
// environment overrides, then fills defaults for any unset fields. Sources
// found in sources_dir are appended to the inline sources.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := finish(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func finish(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.SourcesDir != "" {
		extra, err := LoadSourcesDir(cfg.SourcesDir)
		if err != nil {
			return err
		}
		cfg.Sources = append(cfg.Sources, extra...)
	}
	return nil
}

// Validate checks the fields that have a fixed vocabulary or format.
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("output must be text or json, got %q", c.Output)
	}
	if _, err := c.CrontabTimeoutDuration(); err != nil {
		return fmt.Errorf("crontab_timeout: %w", err)
	}
	if _, err := c.RescanIntervalDuration(); err != nil {
		return fmt.Errorf("rescan_interval: %w", err)
	}
	for _, p := range c.Plugins {
		if strings.TrimSpace(p.Type) == "" {
			return fmt.Errorf("plugin %q has no type", p.Name)
		}
	}
	return nil
}

// CrontabTimeoutDuration parses CrontabTimeout.
func (c *Config) CrontabTimeoutDuration() (time.Duration, error) {
	return positiveDuration(c.CrontabTimeout)
}

// RescanIntervalDuration parses RescanInterval.
func (c *Config) RescanIntervalDuration() (time.Duration, error) {
	return positiveDuration(c.RescanInterval)
}

func positiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

// EnabledSources returns the sources that are not switched off.
func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}
