package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/deck/internal/domain/gate"
	"github.com/okian/deck/internal/presenter"
)

const (
	labelWidth = 18
	minBar     = 10
	helpText   = "←/→ navigate · tab select · o open row · esc close · q quit"
)

// screen collects single-line rows so that mouse Y maps to a row index.
type screen struct {
	lines []string
	zones []zone
}

func (s *screen) add(line string) { s.lines = append(s.lines, line) }

func (s *screen) target(line string, index int, row bool) {
	s.zones = append(s.zones, zone{line: len(s.lines), index: index, row: row})
	s.add(line)
}

func (s *screen) block(text string) {
	s.lines = append(s.lines, strings.Split(text, "\n")...)
}

func (s *screen) String() string { return strings.Join(s.lines, "\n") }

// View implements tea.Model.
func (m *Model) View() string {
	switch m.phase {
	case phaseConnecting:
		return m.styles.Label.Render("Connecting…")
	case phaseFailed:
		return m.styles.Error.Render("Could not open the deck: "+m.err.Error()) + "\n" + m.styles.Help.Render("q quit")
	case phaseLocked:
		return m.gateView()
	}
	sc := &screen{}
	m.deckView(sc)
	m.zones = sc.zones
	return sc.String()
}

func (m *Model) gateView() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Code.Render("[AUTHENTICATION_REQUIRED]") + "\n\n")
	b.WriteString(s.Title.Render("Enter Password") + "\n\n")
	b.WriteString(m.input.View() + "\n\n")
	switch {
	case m.gate.State() == gate.Verifying:
		b.WriteString(s.Label.Render("VERIFYING…") + "\n")
	case m.gate.Failed():
		b.WriteString(s.Error.Render("INVALID PASSWORD") + "\n")
	default:
		b.WriteString(s.Help.Render("enter unlock · esc quit") + "\n")
	}
	return b.String()
}

func (m *Model) deckView(sc *screen) {
	s := m.styles
	f := m.deck.Frame()
	v := f.Slide

	sc.add(s.Label.Render(f.Progress()) + "  " + s.Code.Render(v.Number) + " " + s.Title.Render(v.Title))
	if v.Subtitle != "" {
		sc.add(s.Subtitle.Render(v.Subtitle))
	}
	sc.add("")

	switch {
	case len(v.KPIs) > 0 || v.Live != nil:
		m.kpiView(sc, f)
	case v.Chart != nil:
		m.chartView(sc, f)
	case v.Funnel != nil:
		m.funnelView(sc, f)
	case v.Comparison != nil:
		m.comparisonView(sc, f)
	case v.Table != nil:
		m.tableView(sc, f)
	case v.Narrative != "":
		sc.block(lipgloss.NewStyle().Width(m.contentWidth()).Render(narrativeText(v.Narrative, s)))
	case len(v.Custom) > 0:
		for _, p := range v.Custom {
			sc.add(s.Label.Render(pad(p.Label, labelWidth)) + s.Value.Render(p.Value))
		}
	}

	if f.Readout != nil {
		sc.add("")
		label := s.Label.Render(f.Readout.Label)
		if f.Readout.Hovered {
			label = s.Readout.Render("▸ " + f.Readout.Label)
		}
		sc.add(label)
		sc.add(s.Value.Render(f.Readout.Value))
	}

	sc.add("")
	sc.add(s.Help.Render(helpText))
}

func (m *Model) kpiView(sc *screen, f presenter.Frame) {
	s := m.styles
	for i, k := range f.Slide.KPIs {
		value := k.Value
		if i < len(f.Counters) {
			value = f.Counters[i]
		}
		label := s.Label.Render(pad(k.Label, labelWidth))
		if i == f.Hovered {
			label = s.Hovered.Render(pad(k.Label, labelWidth))
		}
		line := label + s.Value.Render(pad(value, 16))
		if k.HasDelta {
			line += " " + m.trend(k.Delta, k.Up)
		}
		sc.target(line, i, false)
	}
	if f.Live != nil {
		sc.add("")
		if f.Hovered >= 0 && f.Hovered < len(f.Slide.KPIs) {
			sc.add(s.Readout.Render("▸ " + f.Slide.KPIs[f.Hovered].Readout.Message))
		} else {
			value := s.Value.Render(f.Live.Value)
			if f.Live.Flashing {
				value = s.Flash.Render(f.Live.Value)
			}
			sc.add(s.Code.Render("● ") + s.Label.Render(pad(f.Live.Label, labelWidth-2)) + value)
		}
	}
	if sp := f.Slide.Sparkline; sp != nil {
		sc.add(s.Bar.Render(sp.Blocks))
	}
}

func (m *Model) chartView(sc *screen, f presenter.Frame) {
	s := m.styles
	c := f.Slide.Chart
	sc.add(s.Code.Render(c.Code))
	width := m.barWidth()
	for i, b := range c.Bars {
		label := s.Label.Render(pad(b.Label, 6))
		if i == f.Hovered {
			label = s.Hovered.Render(pad(b.Label, 6))
		}
		sc.target(label+m.bar(b.Height, width)+" "+s.Value.Render(b.Short), i, false)
	}
}

func (m *Model) funnelView(sc *screen, f presenter.Frame) {
	s := m.styles
	fv := f.Slide.Funnel
	sc.add(s.Code.Render(fv.Code))
	width := m.barWidth()
	for i, st := range fv.Stages {
		label := s.Label.Render(pad(st.Label, labelWidth))
		if i == f.Hovered {
			label = s.Hovered.Render(pad(st.Label, labelWidth))
		}
		line := label + m.bar(st.Width, width) + " " + s.Value.Render(pad(st.Value, 8))
		if st.Conversion != "" {
			line += " " + s.Label.Render(st.Conversion)
		}
		sc.target(line, i, false)
	}
}

func (m *Model) comparisonView(sc *screen, f presenter.Frame) {
	s := m.styles
	cv := f.Slide.Comparison
	sc.add(s.Code.Render(cv.Code))
	for i, it := range cv.Items {
		label := s.Label.Render(pad(it.Label, labelWidth))
		if i == f.Hovered {
			label = s.Hovered.Render(pad(it.Label, labelWidth))
		}
		line := label + s.Label.Render(pad(it.Previous, 12)) + " → " + s.Value.Render(pad(it.Current, 12)) + " " + m.trend(it.Delta, it.Up)
		sc.target(line, i, false)
	}
}

func (m *Model) tableView(sc *screen, f presenter.Frame) {
	s := m.styles
	t := f.Slide.Table
	sc.add(s.Code.Render(t.Code))
	widths := columnWidths(t)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = pad(c, widths[i])
	}
	sc.add(s.Label.Render(strings.Join(header, "  ")))
	for i, r := range t.Rows {
		cells := make([]string, len(r.Cells))
		for j, c := range r.Cells {
			cells[j] = pad(c, widths[j])
		}
		line := strings.Join(cells, "  ")
		if r.Trend != nil {
			line += "  " + s.Bar.Render(r.Trend.Blocks)
		}
		if i == m.selected {
			line = s.Hovered.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		sc.target(line, i, true)
	}
	if d := f.Detail; d != nil {
		sc.add("")
		sc.add(s.Code.Render("[DETAIL] ") + s.Title.Render(d.Title))
		for _, p := range d.Detail {
			sc.add("  " + s.Label.Render(pad(p.Label, labelWidth)) + s.Value.Render(p.Value))
		}
		if d.Trend != nil {
			sc.add("  " + s.Bar.Render(d.Trend.Blocks))
		}
	}
}

func (m *Model) trend(text string, up bool) string {
	if up {
		return m.styles.Up.Render(text)
	}
	return m.styles.Down.Render(text)
}

// bar renders a horizontal bar filled to pct percent of width cells.
func (m *Model) bar(pct float64, width int) string {
	filled := int(math.Round(pct / 100 * float64(width)))
	filled = min(max(filled, 0), width)
	return m.styles.Bar.Render(strings.Repeat("█", filled)) + m.styles.Track.Render(strings.Repeat("░", width-filled))
}

func (m *Model) contentWidth() int {
	return max(m.width-4, 20)
}

func (m *Model) barWidth() int {
	return max(m.contentWidth()-labelWidth-24, minBar)
}

func columnWidths(t *presenter.TableView) []int {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, r := range t.Rows {
		for i, c := range r.Cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	return widths
}

// narrativeText renders **bold** spans with the accent style.
func narrativeText(text string, s styles) string {
	parts := strings.Split(text, "**")
	for i := 1; i < len(parts); i += 2 {
		parts[i] = s.Bold.Render(parts[i])
	}
	return strings.Join(parts, "")
}

func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

