package nav

// Key is a key name as reported by the browser's KeyboardEvent.key.
type Key string

// Keys the adapter understands.
const (
	KeyArrowRight Key = "ArrowRight"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowUp    Key = "ArrowUp"
	KeyArrowDown  Key = "ArrowDown"
	KeySpace      Key = " "
	KeyEnter      Key = "Enter"
	KeyHome       Key = "Home"
	KeyEnd        Key = "End"
	KeyEscape     Key = "Escape"
)

// Focus describes the element holding keyboard focus.
type Focus int

// Focus targets. Keys are ignored while a form control has focus.
const (
	FocusNone Focus = iota
	FocusTextInput
	FocusTextArea
	FocusSelect
)

// Editing reports whether the focused element consumes keystrokes itself.
func (f Focus) Editing() bool {
	return f == FocusTextInput || f == FocusTextArea || f == FocusSelect
}

// Action is the navigation an input resolves to.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionNext
	ActionPrev
	ActionFirst
	ActionLast
	ActionJump
)

// Click zone edges as fractions of the viewport width.
const (
	PrevZone = 0.15
	NextZone = 0.85
)

// ResolveKey maps a key press to an action. For ActionJump, target is the
// zero-based slide index.
func ResolveKey(key Key, focus Focus) (action Action, target int) {
	if focus.Editing() {
		return ActionNone, 0
	}
	switch key {
	case KeyArrowRight, KeyArrowDown, KeySpace, KeyEnter:
		return ActionNext, 0
	case KeyArrowLeft, KeyArrowUp:
		return ActionPrev, 0
	case KeyHome:
		return ActionFirst, 0
	case KeyEnd:
		return ActionLast, 0
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		return ActionJump, int(key[0] - '1')
	}
	return ActionNone, 0
}

// ResolveClick maps a click at x within a viewport of the given width. Only
// the outer edges navigate; the middle is left to the content under it.
func ResolveClick(x, width float64) Action {
	if width <= 0 || x < 0 || x > width {
		return ActionNone
	}
	switch {
	case x < width*PrevZone:
		return ActionPrev
	case x >= width*NextZone:
		return ActionNext
	default:
		return ActionNone
	}
}

// Input applies resolved keyboard and pointer actions to a Navigator.
type Input struct {
	nav *Navigator
}

// NewInput binds an input adapter to n.
func NewInput(n *Navigator) *Input {
	return &Input{nav: n}
}

// HandleKey applies a key press. It reports whether the key was consumed,
// so callers can suppress the default browser or terminal behaviour.
func (in *Input) HandleKey(key Key, focus Focus) bool {
	action, target := ResolveKey(key, focus)
	in.apply(action, target)
	return action != ActionNone
}

// HandleClick applies a click. Clicks outside the edge zones are not
// consumed and should reach the element underneath.
func (in *Input) HandleClick(x, width float64) bool {
	action := ResolveClick(x, width)
	in.apply(action, 0)
	return action != ActionNone
}

func (in *Input) apply(action Action, target int) {
	switch action {
	case ActionNext:
		in.nav.Next()
	case ActionPrev:
		in.nav.Prev()
	case ActionFirst:
		in.nav.First()
	case ActionLast:
		in.nav.Last()
	case ActionJump:
		in.nav.GoTo(target)
	case ActionNone:
	}
}
