// Package notify holds the built-in notifier plugins.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/patrickspencer/cronhive/internal/config"
	"github.com/patrickspencer/cronhive/internal/logs"
	"github.com/patrickspencer/cronhive/pkg/plugin"
)

// New builds and initialises the notifier named by cfg.Type.
func New(cfg config.PluginConfig) (plugin.Notifier, error) {
	var n plugin.Notifier
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "log":
		n = &LogNotifier{}
	case "webhook":
		n = &WebhookNotifier{}
	default:
		return nil, fmt.Errorf("unknown notifier type %q", cfg.Type)
	}
	if err := n.Init(cfg.Config); err != nil {
		return nil, fmt.Errorf("init notifier %q: %w", cfg.Name, err)
	}
	return n, nil
}

// LoadAll builds every configured notifier, closing those already built when
// one fails.
func LoadAll(cfgs []config.PluginConfig) ([]plugin.Notifier, error) {
	var out []plugin.Notifier
	for _, c := range cfgs {
		n, err := New(c)
		if err != nil {
			CloseAll(out)
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Dispatch sends event to every notifier. Failures are logged, not returned,
// so one broken webhook does not silence the rest.
func Dispatch(ctx context.Context, notifiers []plugin.Notifier, event plugin.DeadJobEvent) {
	for _, n := range notifiers {
		if err := n.Notify(ctx, event); err != nil {
			logs.Error("notifier %s: %v", n.Name(), err)
		}
	}
}

// CloseAll closes every notifier.
func CloseAll(notifiers []plugin.Notifier) {
	for _, n := range notifiers {
		if err := n.Close(); err != nil {
			logs.Warn("close notifier %s: %v", n.Name(), err)
		}
	}
}

// LogNotifier writes events to the process log.
type LogNotifier struct{}

func (*LogNotifier) Name() string              { return "log" }
func (*LogNotifier) Init(map[string]any) error { return nil }
func (*LogNotifier) Close() error              { return nil }

// Notify implements plugin.Notifier.
func (*LogNotifier) Notify(_ context.Context, e plugin.DeadJobEvent) error {
	fields := map[string]interface{}{
		"job":      e.JobName,
		"source":   e.Source,
		"schedule": e.Schedule,
		"reason":   e.Reason,
	}
	if e.ExpectedRun != nil {
		fields["expected_run"] = e.ExpectedRun.Format("2006-01-02T15:04:05Z07:00")
	}
	entry := logs.WithFields(fields)
	if e.Status == plugin.StatusDead {
		entry.Warnf("job %s is dead", e.JobName)
	} else {
		entry.Infof("job %s recovered", e.JobName)
	}
	return nil
}
