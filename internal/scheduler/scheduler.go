// Package scheduler wakes the watch daemon when a job's next occurrence
// passes. It never runs jobs itself.
package scheduler

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// entry is a named schedule in the heap.
type entry struct {
	name     string
	schedule cron.Schedule
	nextRun  time.Time
}

// entryHeap is a min-heap of entries ordered by nextRun (earliest first).
type entryHeap []entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].nextRun.Before(h[j].nextRun) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Scheduler tracks named schedules with a min-heap and a single timer
// goroutine, calling fire with the entry name and the occurrence that passed.
type Scheduler struct {
	mu    sync.Mutex
	heap  entryHeap
	timer *time.Timer
	done  chan struct{}
	wg    sync.WaitGroup
	fire  func(name string, at time.Time)
	reset chan struct{}
	now   func() time.Time
}

// NewScheduler creates a Scheduler that calls fire when an entry is due.
func NewScheduler(fire func(name string, at time.Time)) *Scheduler {
	return &Scheduler{
		fire:  fire,
		done:  make(chan struct{}),
		reset: make(chan struct{}, 1),
		now:   time.Now,
	}
}

// Add schedules name, replacing any entry with the same name. It reports
// false, and schedules nothing, when the schedule has no future occurrence.
func (s *Scheduler) Add(name string, schedule cron.Schedule) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(name)
	ok := s.pushLocked(name, schedule, s.now())
	s.resetTimerLocked()
	return ok
}

// Replace swaps the whole entry set for entries and returns the names that
// could not be scheduled.
func (s *Scheduler) Replace(entries map[string]cron.Schedule) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.heap = s.heap[:0]
	now := s.now()
	var skipped []string
	for name, sched := range entries {
		if !s.pushLocked(name, sched, now) {
			skipped = append(skipped, name)
		}
	}
	sort.Strings(skipped)
	s.resetTimerLocked()
	return skipped
}

// Remove drops the named entry.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
	s.resetTimerLocked()
}

func (s *Scheduler) pushLocked(name string, schedule cron.Schedule, after time.Time) bool {
	next := NextTime(schedule, after)
	if next.IsZero() {
		return false
	}
	heap.Push(&s.heap, entry{name: name, schedule: schedule, nextRun: next})
	return true
}

func (s *Scheduler) removeLocked(name string) {
	for i, e := range s.heap {
		if e.name == name {
			heap.Remove(&s.heap, i)
			return
		}
	}
}

// NextRunTime returns the next scheduled time for the named entry.
func (s *Scheduler) NextRunTime(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.heap {
		if e.name == name {
			return e.nextRun, true
		}
	}
	return time.Time{}, false
}

// Len returns the number of scheduled entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}

// Start launches the scheduler goroutine.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.timer = time.NewTimer(0)
	if !s.timer.Stop() {
		<-s.timer.C
	}
	s.resetTimerLocked()
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
}

// Stop signals the scheduler goroutine to exit and waits for it.
func (s *Scheduler) Stop() {
	close(s.done)
	s.wg.Wait()
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			s.mu.Lock()
			s.timer.Stop()
			s.mu.Unlock()
			return
		case <-s.reset:
			continue
		case <-s.timer.C:
			s.mu.Lock()
			if s.heap.Len() == 0 {
				s.mu.Unlock()
				continue
			}

			now := s.now()
			e := s.heap[0]
			if e.nextRun.After(now) {
				s.resetTimerLocked()
				s.mu.Unlock()
				continue
			}

			heap.Pop(&s.heap)
			due := e.nextRun
			s.pushLocked(e.name, e.schedule, now)
			s.resetTimerLocked()
			s.mu.Unlock()

			s.fire(e.name, due)
		}
	}
}

// resetTimerLocked points the timer at the earliest entry. Caller must hold
// s.mu. Safe to call before Start.
func (s *Scheduler) resetTimerLocked() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	if s.heap.Len() == 0 {
		return
	}
	d := s.heap[0].nextRun.Sub(s.now())
	if d < 0 {
		d = 0
	}
	s.timer.Reset(d)

	select {
	case s.reset <- struct{}{}:
	default:
	}
}
