// Package plugin defines the extension points of the CronHive watch daemon.
package plugin

import "context"

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	Name() string
	Init(config map[string]any) error
	Close() error
}

// Notifier is told when a watched job changes liveness state.
type Notifier interface {
	Plugin
	Notify(ctx context.Context, event DeadJobEvent) error
}
