// Package motion drives time-based display effects: eased counters and
// ticking live readouts. Both schedule their callbacks through a Scheduler
// so they can run on a real clock or inside a host event loop.
package motion

import (
	"sync"
	"time"
)

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	// After schedules fn to run once after d. The returned cancel is
	// idempotent; after it returns fn will not start.
	After(d time.Duration, fn func(now time.Time)) (cancel func())
	// Now reports the scheduler's clock.
	Now() time.Time
}

// Realtime schedules on the wall clock with time.AfterFunc. Callbacks run
// on timer goroutines.
type Realtime struct{}

// After implements Scheduler.
func (Realtime) After(d time.Duration, fn func(now time.Time)) func() {
	t := time.AfterFunc(d, func() { fn(time.Now()) })
	return func() { t.Stop() }
}

// Now implements Scheduler.
func (Realtime) Now() time.Time { return time.Now() }

// Loop is a cooperative scheduler owned by an event loop. Nothing runs
// until the owner calls Advance, and callbacks run on the caller's
// goroutine in due order.
type Loop struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks map[uint64]*task
}

type task struct {
	id  uint64
	due time.Time
	fn  func(time.Time)
}

// NewLoop returns a loop whose clock starts at start.
func NewLoop(start time.Time) *Loop {
	return &Loop{now: start, tasks: make(map[uint64]*task)}
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, fn func(now time.Time)) func() {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	l.seq++
	id := l.seq
	l.tasks[id] = &task{id: id, due: l.now.Add(d), fn: fn}
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.tasks, id)
		l.mu.Unlock()
	}
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// Advance moves the clock to now and runs every callback due by then,
// including ones scheduled by earlier callbacks. The clock reads each
// task's due time while it runs. It returns how many callbacks ran.
func (l *Loop) Advance(now time.Time) int {
	ran := 0
	for {
		l.mu.Lock()
		t := l.earliest()
		if t == nil || t.due.After(now) {
			if now.After(l.now) {
				l.now = now
			}
			l.mu.Unlock()
			return ran
		}
		delete(l.tasks, t.id)
		if t.due.After(l.now) {
			l.now = t.due
		}
		clock := l.now
		l.mu.Unlock()

		t.fn(clock)
		ran++
	}
}

// Step advances the clock by d.
func (l *Loop) Step(d time.Duration) int {
	return l.Advance(l.Now().Add(d))
}

// Pending returns the number of scheduled callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// NextDue returns when the earliest callback is due.
func (l *Loop) NextDue() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.earliest()
	if t == nil {
		return time.Time{}, false
	}
	return t.due, true
}

func (l *Loop) earliest() *task {
	var min *task
	for _, t := range l.tasks {
		if min == nil || t.due.Before(min.due) || (t.due.Equal(min.due) && t.id < min.id) {
			min = t
		}
	}
	return min
}
