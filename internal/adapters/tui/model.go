// Package tui is the terminal presenter: a bubbletea program that passes
// the gate and runs the deck on bubbletea's event loop.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/gate"
	"github.com/okian/deck/internal/domain/motion"
	"github.com/okian/deck/internal/domain/nav"
	"github.com/okian/deck/internal/presenter"
	"github.com/okian/deck/pkg/logger"
)

// Backend is what the presenter needs from the server.
type Backend interface {
	gate.Transport
	// Open fetches the engagement. locked is true while the gate is closed.
	Open(ctx context.Context) (e *engagement.Engagement, locked bool, err error)
}

type phase int

const (
	phaseConnecting phase = iota
	phaseLocked
	phaseDeck
	phaseFailed
)

// Defaults.
const (
	DefaultFrame = motion.DefaultFrameInterval
	defaultWidth = 100
)

// Options configure the presenter.
type Options struct {
	Animate bool
	Frame   time.Duration
	Random  func() float64
	Logger  logger.Logger
}

type (
	openedMsg struct {
		e      *engagement.Engagement
		locked bool
		err    error
	}
	verifiedMsg struct{ err error }
	frameMsg    time.Time
)

// zone is a hit target on screen: a line holding a hoverable element or
// a table row.
type zone struct {
	line  int
	index int
	row   bool
}

// Model is the bubbletea model. Use it through a pointer.
type Model struct {
	ctx     context.Context
	backend Backend
	opts    Options
	log     logger.Logger
	styles  styles

	phase  phase
	err    error
	gate   *gate.Machine
	input  textinput.Model
	loop   *motion.Loop
	deck   *presenter.Deck
	ticker bool

	width, height int
	zones         []zone
	selected      int
}

// New returns a presenter model bound to backend.
func New(ctx context.Context, backend Backend, opts Options) *Model {
	if opts.Frame <= 0 {
		opts.Frame = DefaultFrame
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	ti := textinput.New()
	ti.Placeholder = "••••••••"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Prompt = "│ "
	ti.CharLimit = 256
	ti.Width = 32

	return &Model{
		ctx:      ctx,
		backend:  backend,
		opts:     opts,
		log:      log,
		styles:   newStyles(),
		gate:     gate.NewMachine(),
		input:    ti,
		width:    defaultWidth,
		selected: -1,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.open()
}

// Close stops the running deck.
func (m *Model) Close() {
	if m.deck != nil {
		m.deck.Close()
	}
}

// Deck returns the running deck, nil until the gate opens.
func (m *Model) Deck() *presenter.Deck { return m.deck }

// Gate returns the gate machine.
func (m *Model) Gate() *gate.Machine { return m.gate }

// Loop returns the frame scheduler, nil until the gate opens.
func (m *Model) Loop() *motion.Loop { return m.loop }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case openedMsg:
		return m, m.opened(msg)

	case verifiedMsg:
		m.gate.Complete(msg.err)
		if m.gate.State() == gate.Unlocked {
			m.log.Info(m.ctx, "gate unlocked")
			return m, m.open()
		}
		m.log.Info(m.ctx, "gate rejected", logger.Error(msg.err))
		m.input.Reset()
		return m, nil

	case frameMsg:
		if m.loop == nil {
			return m, nil
		}
		m.loop.Advance(time.Time(msg))
		return m, m.tick()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseLocked:
			return m, m.gateKey(msg)
		case phaseDeck:
			return m, m.deckKey(msg)
		default:
			if msg.String() == "q" || msg.String() == "esc" {
				return m, tea.Quit
			}
		}
		return m, nil

	case tea.MouseMsg:
		if m.phase == phaseDeck {
			m.mouse(msg)
		}
		return m, nil
	}

	// Cursor blink and other component messages.
	if m.phase == phaseLocked {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) open() tea.Cmd {
	ctx, backend := m.ctx, m.backend
	return func() tea.Msg {
		e, locked, err := backend.Open(ctx)
		return openedMsg{e: e, locked: locked, err: err}
	}
}

func (m *Model) opened(msg openedMsg) tea.Cmd {
	switch {
	case msg.err != nil:
		m.phase, m.err = phaseFailed, msg.err
		m.log.Error(m.ctx, "open engagement", logger.Error(msg.err))
		return nil
	case msg.locked:
		m.phase = phaseLocked
		m.input.Focus()
		return textinput.Blink
	}

	if m.gate.State() == gate.Locked {
		m.gate.Bypass()
	}
	m.start(msg.e)
	return m.tick()
}

func (m *Model) start(e *engagement.Engagement) {
	m.loop = motion.NewLoop(time.Now())
	opts := []presenter.Option{
		presenter.WithAnimation(m.opts.Animate),
		presenter.WithFrameInterval(m.opts.Frame),
	}
	if m.opts.Random != nil {
		opts = append(opts, presenter.WithRandom(m.opts.Random))
	}
	m.deck = presenter.NewDeck(e, m.loop, opts...)
	m.deck.Navigator().OnChange(func(_, _ int) { m.selected = -1 })
	m.deck.Open()
	m.phase = phaseDeck
	m.input.Blur()
	m.log.Info(m.ctx, "deck opened", logger.String("engagement", e.ID), logger.Int("slides", len(e.Slides)))
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Frame, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *Model) gateKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return tea.Quit
	case "enter":
		secret, err := m.gate.Submit()
		if err != nil {
			return nil
		}
		ctx, backend := m.ctx, m.backend
		return func() tea.Msg {
			return verifiedMsg{err: backend.Verify(ctx, secret)}
		}
	}
	if !m.gate.CanSubmit() {
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.gate.Type(m.input.Value())
	return cmd
}

// keyNames maps bubbletea key names to browser key names.
var keyNames = map[string]nav.Key{
	"right": nav.KeyArrowRight,
	"left":  nav.KeyArrowLeft,
	"up":    nav.KeyArrowUp,
	"down":  nav.KeyArrowDown,
	" ":     nav.KeySpace,
	"enter": nav.KeyEnter,
	"home":  nav.KeyHome,
	"end":   nav.KeyEnd,
	"esc":   nav.KeyEscape,
}

func (m *Model) deckKey(msg tea.KeyMsg) tea.Cmd {
	s := msg.String()
	switch s {
	case "q":
		return tea.Quit
	case "tab":
		m.cycle(1)
		return nil
	case "shift+tab":
		m.cycle(-1)
		return nil
	case "o":
		if m.selected >= 0 {
			m.deck.OpenDetail(m.selected)
		}
		return nil
	case "esc":
		if m.selected >= 0 && m.deck.Frame().Detail == nil {
			m.selected = -1
			m.deck.EndHover()
			return nil
		}
	}
	key, ok := keyNames[s]
	if !ok {
		key = nav.Key(s)
	}
	m.deck.HandleKey(key, nav.FocusNone)
	return nil
}

// cycle moves the keyboard selection across the slide's hover targets, or
// its table rows.
func (m *Model) cycle(step int) {
	v := m.deck.Frame().Slide
	n := v.Hoverable()
	if v.Table != nil {
		n = len(v.Table.Rows)
	}
	if n == 0 {
		return
	}
	m.selected = ((m.selected+step)%n + n) % n
	if v.Table == nil {
		m.deck.Hover(m.selected)
	}
}

func (m *Model) mouse(msg tea.MouseMsg) {
	z, hit := m.zoneAt(msg.Y)
	switch msg.Action {
	case tea.MouseActionMotion:
		switch {
		case hit && !z.row:
			if m.selected != z.index {
				m.selected = z.index
				m.deck.Hover(z.index)
			}
		case hit && z.row:
			m.selected = z.index
		default:
			if m.selected >= 0 {
				m.selected = -1
				m.deck.EndHover()
			}
		}
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if m.deck.HandleClick(float64(msg.X), float64(m.width)) {
			return
		}
		if hit && z.row {
			m.deck.OpenDetail(z.index)
		}
	}
}

func (m *Model) zoneAt(y int) (zone, bool) {
	for _, z := range m.zones {
		if z.line == y {
			return z, true
		}
	}
	return zone{}, false
}
