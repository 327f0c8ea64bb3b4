package readout

import (
	"math"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/format"
)

// RevenueBar describes bar i of a chronological revenue series.
func RevenueBar(points []engagement.ChartPoint, i int) (Readout, bool) {
	if i < 0 || i >= len(points) {
		return Readout{}, false
	}
	p := points[i]
	closed := "$" + format.Fixed(p.Value/1000, 0) + "K closed"

	var msg string
	if growth, ok := monthOverMonth(points, i); ok {
		dir := "up"
		if growth < 0 {
			dir = "down"
		}
		msg = p.Label + " REVENUE " + dir + " " + format.Fixed(math.Abs(growth), 1) + "% MoM — " + closed
	} else {
		msg = p.Label + " BASELINE — " + closed + " (series start)"
	}
	return WithValue(msg, p.Value, format.Currency), true
}

func monthOverMonth(points []engagement.ChartPoint, i int) (float64, bool) {
	if i == 0 {
		return 0, false
	}
	return format.Delta(points[i].Value, points[i-1].Value)
}

// FunnelStage describes stage i of a funnel.
func FunnelStage(f engagement.Funnel, i int) (Readout, bool) {
	if i < 0 || i >= len(f.Stages) {
		return Readout{}, false
	}
	s := f.Stages[i]
	if i == 0 {
		msg := format.Grouped(s.Value) + " TOTAL LEADS — top of funnel, all channels combined"
		return WithValue(msg, s.Value, format.Number), true
	}
	conv, _ := f.Conversion(i)
	prev := f.Stages[i-1]
	msg := format.Fixed(conv, 1) + "% CONVERSION from " + prev.Label + " — " +
		format.Grouped(f.Dropoff(i)) + " dropped at this stage"
	return WithValue(msg, s.Value, format.Number), true
}

// ComparisonItem describes a period-over-period change.
func ComparisonItem(it engagement.ComparisonItem) Readout {
	delta := it.Delta()
	dir := "improved"
	if delta < 0 {
		dir = "declined"
	}
	change := math.Abs(it.Current - it.Previous)

	var msg string
	switch it.Format {
	case format.Currency:
		msg = it.Label + " " + dir + " " + format.Fixed(math.Abs(delta), 1) + "% QoQ — $" + format.Grouped(change) + " net change"
	case format.Percent:
		msg = it.Label + " " + dir + " " + format.Fixed(change, 1) + "pp QoQ — now at " + format.Fixed(it.Current, 1) + "%"
	default:
		msg = it.Label + " " + dir + " " + format.Fixed(math.Abs(delta), 1) + "% QoQ — moved from " +
			format.Grouped(it.Previous) + " to " + format.Grouped(it.Current)
	}
	return WithValue(msg, it.Current, it.Format)
}

// KPI describes a headline metric against its prior period.
func KPI(k engagement.KPI) Readout {
	msg := k.Label + " — " + format.Affixed(k.Value, k.Format, k.Prefix, k.Suffix)
	if d, ok := k.Delta(); ok {
		msg = k.Label + " " + format.Trend(d) + " vs prior period — now " + format.Affixed(k.Value, k.Format, k.Prefix, k.Suffix)
	}
	return WithValue(msg, k.Value, k.Format)
}
