package presenter

import (
	"time"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/motion"
	"github.com/okian/deck/internal/domain/nav"
	"github.com/okian/deck/internal/domain/readout"
)

// Deck is the interactive state of a running presentation: the navigator,
// one hover channel per slide, and the counters and ticker of the slide on
// screen. Entering a slide starts its effects and leaving stops them, so no
// callback outlives its slide.
//
// Deck is single-writer. Drive it from one event loop; with a motion.Loop
// scheduler the same loop must call Advance.
type Deck struct {
	views    []SlideView
	nav      *nav.Navigator
	input    *nav.Input
	sched    motion.Scheduler
	channels []*readout.Channel
	displays []*readout.Display

	animate  bool
	interval time.Duration
	random   func() float64
	onRender func()
	start    int

	scene   *scene
	hovered int
	detail  int
	unsub   func()
}

type scene struct {
	index    int
	counters []*motion.Value
	ticker   *motion.Ticker
	unsub    func()
}

// Option configures a Deck.
type Option func(*Deck)

// WithAnimation toggles counter animation. Disabled counters show their
// final values at once.
func WithAnimation(on bool) Option {
	return func(d *Deck) { d.animate = on }
}

// WithStartSlide opens the deck at slide i, clamped.
func WithStartSlide(i int) Option {
	return func(d *Deck) { d.start = i }
}

// WithRender registers fn to run whenever visible state changes.
func WithRender(fn func()) Option {
	return func(d *Deck) { d.onRender = fn }
}

// WithRandom replaces the ticker's random source.
func WithRandom(fn func() float64) Option {
	return func(d *Deck) { d.random = fn }
}

// WithFrameInterval sets the counter frame interval.
func WithFrameInterval(iv time.Duration) Option {
	return func(d *Deck) { d.interval = iv }
}

// NewDeck prepares a deck over e. Call Open to enter the first slide.
func NewDeck(e *engagement.Engagement, s motion.Scheduler, opts ...Option) *Deck {
	d := &Deck{
		views:    Build(e),
		sched:    s,
		animate:  true,
		interval: motion.DefaultFrameInterval,
		hovered:  -1,
		detail:   -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.nav = nav.New(len(e.Slides), nav.WithStart(d.start))
	d.input = nav.NewInput(d.nav)
	d.channels = make([]*readout.Channel, len(e.Slides))
	d.displays = make([]*readout.Display, len(e.Slides))
	for i, s := range e.Slides {
		d.channels[i] = readout.NewChannel()
		d.displays[i] = engagement.Visit[*readout.Display](s.Layout, displayFactory{ch: d.channels[i]})
	}
	return d
}

// Open enters the current slide and starts following navigation.
func (d *Deck) Open() {
	if d.unsub != nil {
		return
	}
	d.unsub = d.nav.OnChange(func(_, to int) {
		d.leave()
		d.enter(to)
		d.render()
	})
	d.enter(d.nav.Current())
	d.render()
}

// Close leaves the current slide and stops following navigation.
func (d *Deck) Close() {
	if d.unsub == nil {
		return
	}
	d.unsub()
	d.unsub = nil
	d.leave()
}

// Navigator exposes the slide navigator.
func (d *Deck) Navigator() *nav.Navigator { return d.nav }

// Views returns every slide view.
func (d *Deck) Views() []SlideView { return d.views }

// Channel returns the hover channel of slide i.
func (d *Deck) Channel(i int) *readout.Channel { return d.channels[i] }

// HandleKey routes a key press. Escape closes an open detail drawer first.
func (d *Deck) HandleKey(k nav.Key, focus nav.Focus) bool {
	if k == nav.KeyEscape && d.detail >= 0 {
		d.CloseDetail()
		return true
	}
	return d.input.HandleKey(k, focus)
}

// HandleClick routes a click at x within width. Clicks outside the edge
// zones are left to the content.
func (d *Deck) HandleClick(x, width float64) bool {
	return d.input.HandleClick(x, width)
}

// Hover publishes the readout of element i on the current slide.
func (d *Deck) Hover(i int) bool {
	v := d.views[d.nav.Current()]
	r, ok := v.Readout(i)
	if !ok {
		return false
	}
	d.hovered = i
	d.channels[v.Index].Hover(r)
	return true
}

// EndHover clears the current slide's readout.
func (d *Deck) EndHover() {
	d.hovered = -1
	d.channels[d.nav.Current()].End()
}

// OpenDetail opens the drawer for table row i.
func (d *Deck) OpenDetail(i int) bool {
	v := d.views[d.nav.Current()]
	if v.Table == nil || i < 0 || i >= len(v.Table.Rows) || !v.Table.Rows[i].HasDetail() {
		return false
	}
	d.detail = i
	d.render()
	return true
}

// CloseDetail closes the drawer.
func (d *Deck) CloseDetail() {
	if d.detail < 0 {
		return
	}
	d.detail = -1
	d.render()
}

// Frame snapshots what should be on screen now.
func (d *Deck) Frame() Frame {
	i := d.nav.Current()
	v := d.views[i]
	f := Frame{
		Slide:   v,
		Index:   i,
		Total:   d.nav.Total(),
		AtStart: d.nav.AtStart(),
		AtEnd:   d.nav.AtEnd(),
		Hovered: d.hovered,
	}
	if sc := d.scene; sc != nil && sc.index == i {
		for k, c := range sc.counters {
			f.Counters = append(f.Counters, v.KPIs[k].Text(c.Current()))
		}
		if sc.ticker != nil && v.Live != nil {
			f.Live = &LiveFrame{
				Label:    v.Live.Label,
				Value:    formatLive(sc.ticker.Value(), v.Live),
				Flashing: sc.ticker.Flashing(),
			}
		}
	}
	if f.Live == nil && v.Live != nil {
		f.Live = &LiveFrame{Label: v.Live.Label, Value: v.Live.Display}
	}
	if disp := d.displays[i]; disp != nil {
		rv := disp.View()
		f.Readout = &rv
	}
	if d.detail >= 0 && v.Table != nil {
		row := v.Table.Rows[d.detail]
		f.Detail = &row
	}
	return f
}

func (d *Deck) enter(i int) {
	v := d.views[i]
	sc := &scene{index: i}
	sc.unsub = d.channels[i].Subscribe(func(readout.Readout, bool) { d.render() })

	for _, k := range v.KPIs {
		opts := []motion.ValueOption{
			motion.WithFrameInterval(d.interval),
			motion.OnFrame(func(float64) { d.render() }),
		}
		if !d.animate {
			opts = append(opts, motion.WithoutAnimation())
		}
		c := motion.NewValue(d.sched, opts...)
		sc.counters = append(sc.counters, c)
		c.Animate(k.Target)
	}

	if v.Live != nil {
		opts := []motion.TickerOption{
			motion.WithHold(d.channels[i].Active),
			motion.OnChange(func(float64, bool) { d.render() }),
		}
		if d.random != nil {
			opts = append(opts, motion.WithRandom(d.random))
		}
		sc.ticker = motion.NewTicker(d.sched, v.Live.Value, time.Duration(v.Live.RefreshMS)*time.Millisecond, opts...)
		sc.ticker.Start()
	}
	d.scene = sc
}

func (d *Deck) leave() {
	sc := d.scene
	if sc == nil {
		return
	}
	d.scene = nil
	for _, c := range sc.counters {
		c.Stop()
	}
	if sc.ticker != nil {
		sc.ticker.Stop()
	}
	sc.unsub()
	d.channels[sc.index].End()
	d.hovered = -1
	d.detail = -1
}

func (d *Deck) render() {
	if d.onRender != nil {
		d.onRender()
	}
}

// displayFactory builds the hover display for layouts that have one.
type displayFactory struct {
	ch *readout.Channel
}

func (displayFactory) KPIRow(engagement.KPIRow) *readout.Display { return nil }

func (f displayFactory) Chart(c engagement.Chart) *readout.Display {
	return readout.RevenueDisplay(c, f.ch)
}

func (f displayFactory) Funnel(fn engagement.Funnel) *readout.Display {
	return readout.FunnelDisplay(fn, f.ch)
}

func (f displayFactory) Comparison(c engagement.Comparison) *readout.Display {
	return readout.ComparisonDisplay(c, f.ch)
}

func (displayFactory) Table(engagement.Table) *readout.Display         { return nil }
func (displayFactory) Narrative(engagement.Narrative) *readout.Display { return nil }
func (displayFactory) Custom(engagement.Custom) *readout.Display       { return nil }
