// Package readout carries the transient hover readouts of chart slides and
// the displays that show them.
package readout

import (
	"sync"

	"github.com/okian/deck/internal/domain/format"
)

// Readout is a hover message with an optional figure.
type Readout struct {
	Message  string
	Value    float64
	HasValue bool
	Format   format.Kind
}

// WithValue returns a readout carrying v formatted as k.
func WithValue(msg string, v float64, k format.Kind) Readout {
	return Readout{Message: msg, Value: v, HasValue: true, Format: k}
}

// Channel holds at most one active readout. Hover replaces it
// unconditionally and End clears it.
//
// The ticker reads Active from timer callbacks, so access is locked.
type Channel struct {
	mu      sync.RWMutex
	current Readout
	active  bool
	subs    map[int]func(Readout, bool)
	nextID  int
}

// NewChannel returns an idle channel.
func NewChannel() *Channel {
	return &Channel{subs: make(map[int]func(Readout, bool))}
}

// Hover publishes r as the active readout.
func (c *Channel) Hover(r Readout) {
	c.mu.Lock()
	c.current, c.active = r, true
	subs := c.snapshot()
	c.mu.Unlock()
	for _, fn := range subs {
		fn(r, true)
	}
}

// End clears the active readout. It is a no-op when nothing is hovered.
func (c *Channel) End() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.current, c.active = Readout{}, false
	subs := c.snapshot()
	c.mu.Unlock()
	for _, fn := range subs {
		fn(Readout{}, false)
	}
}

// Current returns the active readout, if any.
func (c *Channel) Current() (Readout, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.active
}

// Active reports whether something is hovered.
func (c *Channel) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Subscribe registers fn for every change and returns a function that
// removes it.
func (c *Channel) Subscribe(fn func(r Readout, active bool)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Channel) snapshot() []func(Readout, bool) {
	out := make([]func(Readout, bool), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}
