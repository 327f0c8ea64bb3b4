package readout

import (
	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/format"
)

// Static labels shown while nothing is hovered.
const (
	LabelFunnel     = "HOVER A STAGE"
	LabelRevenue    = "HOVER A BAR"
	LabelComparison = "HOVER A METRIC"
)

// Display shows the active readout of one channel, or a static label and
// default figure while the channel is idle.
type Display struct {
	label  string
	value  float64
	format format.Kind
	ch     *Channel
}

// View is what a display renders right now.
type View struct {
	Label   string
	Value   string
	Hovered bool
}

// NewDisplay binds a display to ch with the given fallback.
func NewDisplay(label string, def float64, k format.Kind, ch *Channel) *Display {
	return &Display{label: label, value: def, format: k, ch: ch}
}

// Channel returns the channel the display follows.
func (d *Display) Channel() *Channel { return d.ch }

// View resolves the current text.
func (d *Display) View() View {
	if r, ok := d.ch.Current(); ok {
		v := View{Label: r.Message, Hovered: true}
		if r.HasValue {
			v.Value = format.Value(r.Value, r.Format)
		}
		return v
	}
	return View{Label: d.label, Value: format.Value(d.value, d.format)}
}

// Fallback returns the idle view regardless of hover state.
func (d *Display) Fallback() View {
	return View{Label: d.label, Value: format.Value(d.value, d.format)}
}

// FunnelDisplay defaults to the top-of-funnel count.
func FunnelDisplay(f engagement.Funnel, ch *Channel) *Display {
	var top float64
	if len(f.Stages) > 0 {
		top = f.Stages[0].Value
	}
	return NewDisplay(LabelFunnel, top, format.Number, ch)
}

// RevenueDisplay defaults to the series total.
func RevenueDisplay(c engagement.Chart, ch *Channel) *Display {
	return NewDisplay(LabelRevenue, c.Total(), format.Currency, ch)
}

// ComparisonDisplay defaults to the number of compared metrics.
func ComparisonDisplay(c engagement.Comparison, ch *Channel) *Display {
	return NewDisplay(LabelComparison, float64(len(c.Items)), format.Number, ch)
}
