package deadjob

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// LastRunSource looks up when a named job was last seen running.
type LastRunSource interface {
	LastRun(ctx context.Context, name string) (time.Time, bool, error)
}

// StaticSource answers from a fixed map of job name to last run.
type StaticSource map[string]time.Time

// LastRun implements LastRunSource.
func (s StaticSource) LastRun(_ context.Context, name string) (time.Time, bool, error) {
	t, ok := s[name]
	return t, ok, nil
}

// Chain consults each source in order and returns the first hit.
type Chain []LastRunSource

// LastRun implements LastRunSource.
func (c Chain) LastRun(ctx context.Context, name string) (time.Time, bool, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		t, ok, err := src.LastRun(ctx, name)
		if err != nil {
			return time.Time{}, false, err
		}
		if ok {
			return t, true, nil
		}
	}
	return time.Time{}, false, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime accepts RFC3339 or a zone-less timestamp, which is read in the
// local time zone.
func ParseTime(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q (want RFC3339 or 2006-01-02T15:04)", value)
}

// ParseStatic builds a StaticSource from job name to timestamp text.
func ParseStatic(raw map[string]string) (StaticSource, error) {
	out := make(StaticSource, len(raw))
	for name, value := range raw {
		t, err := ParseTime(value)
		if err != nil {
			return nil, fmt.Errorf("last run for %q: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}
