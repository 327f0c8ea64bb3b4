package motion

import (
	"math"
	"sync"
	"time"

	"github.com/okian/deck/internal/domain/format"
)

// Defaults for counters.
const (
	DefaultDuration      = 1200 * time.Millisecond
	DefaultFrameInterval = 16 * time.Millisecond
)

// Value eases a displayed number toward a target with a cubic ease-out.
// Samples are rounded to the precision of the target and never leave the
// interval between start and target.
type Value struct {
	mu       sync.Mutex
	sched    Scheduler
	duration time.Duration
	interval time.Duration
	disabled bool
	onFrame  func(float64)

	from     float64
	target   float64
	current  float64
	decimals int
	started  time.Time
	cancel   func()
	gen      uint64
}

// ValueOption configures a Value.
type ValueOption func(*Value)

// WithDuration sets how long an animation takes. Zero or less snaps.
func WithDuration(d time.Duration) ValueOption {
	return func(v *Value) { v.duration = d }
}

// WithFrameInterval sets the delay between frames.
func WithFrameInterval(d time.Duration) ValueOption {
	return func(v *Value) {
		if d > 0 {
			v.interval = d
		}
	}
}

// WithoutAnimation makes every Animate snap to its target.
func WithoutAnimation() ValueOption {
	return func(v *Value) { v.disabled = true }
}

// OnFrame registers fn to receive every new sample.
func OnFrame(fn func(float64)) ValueOption {
	return func(v *Value) { v.onFrame = fn }
}

// NewValue returns a counter resting at zero.
func NewValue(s Scheduler, opts ...ValueOption) *Value {
	v := &Value{sched: s, duration: DefaultDuration, interval: DefaultFrameInterval}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Animate eases from zero to target.
func (v *Value) Animate(target float64) {
	v.AnimateFrom(0, target)
}

// AnimateFrom restarts the animation from start toward target, cancelling
// any frame still pending.
func (v *Value) AnimateFrom(start, target float64) {
	v.mu.Lock()
	v.stopLocked()
	v.from, v.target = start, target
	v.decimals = format.Decimals(target)

	if v.disabled || v.duration <= 0 || start == target {
		v.current = target
		v.mu.Unlock()
		v.emit(target)
		return
	}

	v.current = v.sample(start)
	v.started = v.sched.Now()
	v.scheduleLocked()
	cur := v.current
	v.mu.Unlock()
	v.emit(cur)
}

// Stop cancels the pending frame and freezes the current sample.
func (v *Value) Stop() {
	v.mu.Lock()
	v.stopLocked()
	v.mu.Unlock()
}

// Current returns the latest sample.
func (v *Value) Current() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Text renders the latest sample with the target's precision.
func (v *Value) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return format.Fixed(v.current, v.decimals)
}

// Target returns the value being approached.
func (v *Value) Target() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.target
}

// Done reports whether the animation has converged or been stopped.
func (v *Value) Done() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancel == nil
}

// Ease is the cubic ease-out curve for progress p in [0,1].
func Ease(p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	return 1 - math.Pow(1-p, 3)
}

func (v *Value) stopLocked() {
	v.gen++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *Value) scheduleLocked() {
	gen := v.gen
	v.cancel = v.sched.After(v.interval, func(now time.Time) { v.frame(gen, now) })
}

func (v *Value) frame(gen uint64, now time.Time) {
	v.mu.Lock()
	if gen != v.gen {
		v.mu.Unlock()
		return
	}
	p := float64(now.Sub(v.started)) / float64(v.duration)
	if p >= 1 {
		v.current = v.target
		v.cancel = nil
	} else {
		v.current = v.sample(v.from + (v.target-v.from)*Ease(p))
		v.scheduleLocked()
	}
	cur := v.current
	v.mu.Unlock()
	v.emit(cur)
}

// sample rounds raw to the target precision and clamps it between the
// start and the target.
func (v *Value) sample(raw float64) float64 {
	r := format.Round(raw, v.decimals)
	lo, hi := math.Min(v.from, v.target), math.Max(v.from, v.target)
	return math.Max(lo, math.Min(hi, r))
}

func (v *Value) emit(x float64) {
	if v.onFrame != nil {
		v.onFrame(x)
	}
}
