// Package nav tracks the current slide and maps keyboard and pointer input
// onto navigation.
//
// A Navigator is single-writer: it is mutated from one event loop and is
// not safe for concurrent use.
package nav

// ChangeFunc observes an index change.
type ChangeFunc func(from, to int)

// Navigator holds the current slide index within [0, total-1].
type Navigator struct {
	index     int
	total     int
	observers map[int]ChangeFunc
	order     []int
	nextID    int
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithStart sets the initial slide, clamped into range.
func WithStart(i int) Option {
	return func(n *Navigator) { n.index = n.clamp(i) }
}

// New returns a navigator over total slides. A total below one is treated
// as a single-slide deck.
func New(total int, opts ...Option) *Navigator {
	if total < 1 {
		total = 1
	}
	n := &Navigator{total: total, observers: make(map[int]ChangeFunc)}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Current returns the zero-based slide index.
func (n *Navigator) Current() int { return n.index }

// Total returns the slide count.
func (n *Navigator) Total() int { return n.total }

// AtStart reports whether the first slide is showing.
func (n *Navigator) AtStart() bool { return n.index == 0 }

// AtEnd reports whether the last slide is showing.
func (n *Navigator) AtEnd() bool { return n.index == n.total-1 }

// Next advances one slide. It reports whether the index changed.
func (n *Navigator) Next() bool { return n.GoTo(n.index + 1) }

// Prev goes back one slide. It reports whether the index changed.
func (n *Navigator) Prev() bool { return n.GoTo(n.index - 1) }

// First jumps to the first slide.
func (n *Navigator) First() bool { return n.GoTo(0) }

// Last jumps to the last slide.
func (n *Navigator) Last() bool { return n.GoTo(n.total - 1) }

// GoTo moves to slide i, clamped into range. Observers run only when the
// index actually changes.
func (n *Navigator) GoTo(i int) bool {
	to := n.clamp(i)
	if to == n.index {
		return false
	}
	from := n.index
	n.index = to
	for _, id := range n.order {
		if fn, ok := n.observers[id]; ok {
			fn(from, to)
		}
	}
	return true
}

// OnChange registers fn and returns a function that removes it. Observers
// run in registration order.
func (n *Navigator) OnChange(fn ChangeFunc) (unsubscribe func()) {
	id := n.nextID
	n.nextID++
	n.observers[id] = fn
	n.order = append(n.order, id)
	return func() {
		if _, ok := n.observers[id]; !ok {
			return
		}
		delete(n.observers, id)
		for i, v := range n.order {
			if v == id {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	}
}

func (n *Navigator) clamp(i int) int {
	switch {
	case i < 0:
		return 0
	case i >= n.total:
		return n.total - 1
	default:
		return i
	}
}
