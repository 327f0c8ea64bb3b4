package motion

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/deck/internal/domain/format"
)

// Ticker defaults.
const (
	DefaultFlash = 400 * time.Millisecond
	// Jitter bounds the per-tick change as a fraction of the current value.
	Jitter = 0.01
)

// Ticker simulates a live figure: every interval it nudges the value by a
// uniform random fraction in [-Jitter, +Jitter] and flashes briefly. Ticks
// are skipped while the hold function reports true.
type Ticker struct {
	mu       sync.Mutex
	sched    Scheduler
	interval time.Duration
	flashFor time.Duration
	random   func() float64
	hold     func() bool
	onChange func(value float64, flashing bool)

	value       float64
	flashing    bool
	running     bool
	gen         uint64
	cancelTick  func()
	cancelFlash func()
}

// TickerOption configures a Ticker.
type TickerOption func(*Ticker)

// WithRandom replaces the source of uniform samples in [0,1).
func WithRandom(fn func() float64) TickerOption {
	return func(t *Ticker) { t.random = fn }
}

// WithHold suspends ticking while fn reports true, e.g. while a hover
// readout is showing.
func WithHold(fn func() bool) TickerOption {
	return func(t *Ticker) { t.hold = fn }
}

// WithFlash sets how long the flash lasts.
func WithFlash(d time.Duration) TickerOption {
	return func(t *Ticker) {
		if d > 0 {
			t.flashFor = d
		}
	}
}

// OnChange registers fn for every value or flash change.
func OnChange(fn func(value float64, flashing bool)) TickerOption {
	return func(t *Ticker) { t.onChange = fn }
}

// NewTicker returns a stopped ticker holding value. An interval of zero or
// less never ticks.
func NewTicker(s Scheduler, value float64, interval time.Duration, opts ...TickerOption) *Ticker {
	t := &Ticker{
		sched:    s,
		interval: interval,
		flashFor: DefaultFlash,
		random:   rand.Float64,
		value:    value,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins ticking. Starting a running ticker is a no-op.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running || t.interval <= 0 {
		return
	}
	t.running = true
	t.scheduleTickLocked()
}

// Stop cancels the pending tick and any pending flash.
func (t *Ticker) Stop() {
	t.mu.Lock()
	t.gen++
	t.running = false
	if t.cancelTick != nil {
		t.cancelTick()
		t.cancelTick = nil
	}
	if t.cancelFlash != nil {
		t.cancelFlash()
		t.cancelFlash = nil
	}
	changed := t.flashing
	t.flashing = false
	v := t.value
	t.mu.Unlock()
	if changed {
		t.emit(v, false)
	}
}

// Reset re-bases the ticker on v without changing whether it runs.
func (t *Ticker) Reset(v float64) {
	t.mu.Lock()
	t.value = v
	flashing := t.flashing
	t.mu.Unlock()
	t.emit(v, flashing)
}

// Value returns the current figure.
func (t *Ticker) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Flashing reports whether the update pulse is showing.
func (t *Ticker) Flashing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flashing
}

// Running reports whether the ticker is started.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Interval returns the tick period.
func (t *Ticker) Interval() time.Duration { return t.interval }

// Perturb applies one tick to v given a uniform sample u in [0,1).
func Perturb(v, u float64) float64 {
	factor := u*2*Jitter - Jitter
	return format.Round(v+v*factor, 2)
}

func (t *Ticker) scheduleTickLocked() {
	gen := t.gen
	t.cancelTick = t.sched.After(t.interval, func(time.Time) { t.tick(gen) })
}

func (t *Ticker) tick(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	t.scheduleTickLocked()
	hold := t.hold
	t.mu.Unlock()

	if hold != nil && hold() {
		return
	}

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.value = Perturb(t.value, t.random())
	t.flashing = true
	if t.cancelFlash != nil {
		t.cancelFlash()
	}
	t.cancelFlash = t.sched.After(t.flashFor, func(time.Time) { t.unflash(gen) })
	v := t.value
	t.mu.Unlock()
	t.emit(v, true)
}

func (t *Ticker) unflash(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.flashing = false
	t.cancelFlash = nil
	v := t.value
	t.mu.Unlock()
	t.emit(v, false)
}

func (t *Ticker) emit(v float64, flashing bool) {
	if t.onChange != nil {
		t.onChange(v, flashing)
	}
}
