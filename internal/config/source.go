package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is a crontab file to scan.
type Source struct {
	Path    string `yaml:"path" json:"path"`
	System  bool   `yaml:"system" json:"system"`
	Enabled *bool  `yaml:"enabled" json:"enabled,omitempty"`
}

// IsEnabled returns whether the source is enabled. Defaults to true if not set.
func (s Source) IsEnabled() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// sourceFile is the shape of a file in sources_dir: either a single source or
// a list under "sources".
type sourceFile struct {
	Source  `yaml:",inline"`
	Sources []Source `yaml:"sources"`
}

// ParseSourceYAML parses one sources_dir file.
func ParseSourceYAML(data []byte) ([]Source, error) {
	var f sourceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	out := f.Sources
	if f.Path != "" {
		out = append([]Source{f.Source}, out...)
	}
	for i := range out {
		if strings.TrimSpace(out[i].Path) == "" {
			return nil, fmt.Errorf("source %d has no path", i)
		}
		out[i].Path = expandPath(out[i].Path)
	}
	return out, nil
}

// LoadSourcesDir reads all *.yaml files from dir and returns the sources they
// declare, in file name order.
func LoadSourcesDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var sources []Source
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		found, err := ParseSourceYAML(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		sources = append(sources, found...)
	}

	return sources, nil
}
