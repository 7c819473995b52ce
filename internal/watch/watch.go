// Package watch keeps an inventory current: it rescans sources on an
// interval, re-checks each job as its occurrences pass, and reports
// liveness changes to the event broker, metrics and notifiers.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/patrickspencer/cronhive/internal/crontab"
	"github.com/patrickspencer/cronhive/internal/deadjob"
	"github.com/patrickspencer/cronhive/internal/inventory"
	"github.com/patrickspencer/cronhive/internal/logs"
	"github.com/patrickspencer/cronhive/internal/metrics"
	"github.com/patrickspencer/cronhive/internal/notify"
	"github.com/patrickspencer/cronhive/internal/realtime"
	"github.com/patrickspencer/cronhive/internal/scheduler"
	"github.com/patrickspencer/cronhive/pkg/plugin"
)

// rescanEntry names the scheduler entry that triggers a rescan. Job keys
// always contain '#', so it cannot collide with one.
const rescanEntry = "@rescan"

// JobScanner produces the current job list. *inventory.Scanner satisfies it.
type JobScanner interface {
	Scan(ctx context.Context) []crontab.Job
}

// Options configures a Daemon.
type Options struct {
	Scanner        JobScanner
	LastRuns       deadjob.LastRunSource
	RescanInterval time.Duration
	Events         *realtime.Broker
	Metrics        *metrics.Recorder
	Notifiers      []plugin.Notifier
	Now            func() time.Time
}

// Daemon is the long-running watcher.
type Daemon struct {
	opts  Options
	sched *scheduler.Scheduler

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	report *inventory.Report
	// dead remembers the last verdict per job key so only transitions are
	// announced.
	dead map[string]bool
}

// New creates a Daemon. Call Start to begin watching.
func New(opts Options) *Daemon {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RescanInterval <= 0 {
		opts.RescanInterval = 5 * time.Minute
	}
	d := &Daemon{opts: opts, dead: make(map[string]bool)}
	d.sched = scheduler.NewScheduler(d.fire)
	return d
}

// Start runs the first scan and starts the scheduler.
func (d *Daemon) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.Rescan(d.ctx)
	d.sched.Start()
}

// Stop stops the scheduler and cancels in-flight lookups.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.sched.Stop()
}

// Report returns the latest inventory, or nil before the first scan.
func (d *Daemon) Report() *inventory.Report {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.report
}

// NextRunTime returns when the job with the given key is next re-checked.
func (d *Daemon) NextRunTime(key string) (time.Time, bool) {
	return d.sched.NextRunTime(key)
}

// Rescan reads every source, rebuilds the report and reschedules all jobs.
func (d *Daemon) Rescan(ctx context.Context) {
	start := time.Now()
	jobs := d.opts.Scanner.Scan(ctx)
	rep := inventory.Build(ctx, jobs, inventory.Options{
		Now:      d.opts.Now(),
		LastRuns: d.opts.LastRuns,
	})
	took := time.Since(start)

	entries := map[string]cron.Schedule{
		rescanEntry: scheduler.Every(d.opts.RescanInterval),
	}
	for _, e := range rep.Jobs {
		if !e.Valid {
			continue
		}
		s, err := scheduler.ParseSchedule(e.Schedule)
		if err != nil {
			continue
		}
		entries[e.Key()] = s
	}
	skipped := d.sched.Replace(entries)
	for _, key := range skipped {
		logs.Debug("not scheduling %s: no future occurrence", key)
	}

	d.mu.Lock()
	d.report = rep
	var changed []inventory.Entry
	seen := make(map[string]bool, len(rep.Jobs))
	for _, e := range rep.Jobs {
		key := e.Key()
		seen[key] = true
		if !e.Checked {
			continue
		}
		if was, ok := d.dead[key]; (ok && was != e.Dead) || (!ok && e.Dead) {
			changed = append(changed, e)
		}
		d.dead[key] = e.Dead
	}
	for key := range d.dead {
		if !seen[key] {
			delete(d.dead, key)
		}
	}
	d.mu.Unlock()

	if d.opts.Metrics != nil {
		d.opts.Metrics.ObserveScan(rep, took)
	}
	for _, e := range changed {
		d.announce(ctx, e)
	}
	d.publish(realtime.Event{
		Type: realtime.TypeScanCompleted,
		Scan: &realtime.ScanSummary{
			ReportID: rep.ID,
			Total:    rep.Total,
			Valid:    rep.Valid,
			Invalid:  rep.Invalid,
			Dead:     rep.Dead,
		},
	})
	logs.Info("scan %s: %d jobs (%d valid, %d invalid, %d dead) in %s",
		rep.ID, rep.Total, rep.Valid, rep.Invalid, rep.Dead, took.Round(time.Millisecond))
}

// Recheck re-evaluates one job's liveness and returns its updated entry.
func (d *Daemon) Recheck(ctx context.Context, key string) (inventory.Entry, bool) {
	d.mu.RLock()
	rep := d.report
	d.mu.RUnlock()
	if rep == nil || d.opts.LastRuns == nil {
		return inventory.Entry{}, false
	}

	idx := -1
	for i, e := range rep.Jobs {
		if e.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return inventory.Entry{}, false
	}
	e := rep.Jobs[idx]

	last, ok, err := d.opts.LastRuns.LastRun(ctx, e.Name)
	if err != nil {
		logs.Warn("last run of %s: %v", e.Name, err)
		return e, false
	}
	if !ok {
		return e, false
	}

	v := deadjob.Check(e.Schedule, last, d.opts.Now())
	e.LastRun = &last
	e.Checked = true
	e.Dead = v.Dead
	e.ExpectedRun = v.Expected
	e.Reason = v.Reason

	d.mu.Lock()
	if d.report != rep {
		// A rescan replaced the report while we were looking.
		d.mu.Unlock()
		return e, false
	}
	next := *rep
	next.Jobs = append([]inventory.Entry(nil), rep.Jobs...)
	if rep.Jobs[idx].Dead != e.Dead {
		if e.Dead {
			next.Dead++
		} else {
			next.Dead--
		}
	}
	next.Jobs[idx] = e
	d.report = &next
	was, known := d.dead[key]
	d.dead[key] = e.Dead
	d.mu.Unlock()

	if d.opts.Metrics != nil {
		d.opts.Metrics.SetJobDead(e.Name, e.Source, e.Dead)
	}
	if (known && was != e.Dead) || (!known && e.Dead) {
		d.announce(ctx, e)
	}
	return e, true
}

func (d *Daemon) fire(name string, _ time.Time) {
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if name == rescanEntry {
		d.Rescan(ctx)
		return
	}
	d.Recheck(ctx, name)
}

func (d *Daemon) announce(ctx context.Context, e inventory.Entry) {
	status, typ := plugin.StatusRecovered, realtime.TypeJobRecovered
	if e.Dead {
		status, typ = plugin.StatusDead, realtime.TypeJobDead
		logs.Warn("job %s (%s) is dead: %s", e.Name, e.Source, e.Reason)
	} else {
		logs.Info("job %s (%s) recovered", e.Name, e.Source)
	}

	d.publish(realtime.Event{
		Type:        typ,
		JobName:     e.Name,
		Source:      e.Source,
		Schedule:    e.Schedule,
		Reason:      e.Reason,
		ExpectedRun: e.ExpectedRun,
	})
	notify.Dispatch(ctx, d.opts.Notifiers, plugin.DeadJobEvent{
		JobName:     e.Name,
		Source:      e.Source,
		Schedule:    e.Schedule,
		Command:     e.Command,
		Status:      status,
		Reason:      e.Reason,
		LastRun:     e.LastRun,
		ExpectedRun: e.ExpectedRun,
		At:          d.opts.Now().UTC(),
	})
}

func (d *Daemon) publish(evt realtime.Event) {
	if d.opts.Events != nil {
		d.opts.Events.Publish(evt)
	}
}
