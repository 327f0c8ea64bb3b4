package engagement

import "fmt"

// LayoutKind names a slide layout.
type LayoutKind string

// Layout kinds.
const (
	KindKPIRow     LayoutKind = "kpi-row"
	KindChart      LayoutKind = "chart"
	KindFunnel     LayoutKind = "funnel"
	KindComparison LayoutKind = "comparison"
	KindTable      LayoutKind = "table"
	KindNarrative  LayoutKind = "narrative"
	KindCustom     LayoutKind = "custom"
)

// Kinds lists every layout kind in declaration order.
func Kinds() []LayoutKind {
	return []LayoutKind{KindKPIRow, KindChart, KindFunnel, KindComparison, KindTable, KindNarrative, KindCustom}
}

// Layout is the payload of a slide. Only the types in this package
// implement it.
type Layout interface {
	Kind() LayoutKind
	layout()
}

// KPIRow shows headline metrics, optionally with a live readout and sparkline.
type KPIRow struct {
	KPIs      []KPI
	Live      *LiveReadout
	Sparkline []float64
}

// Chart plots labelled points.
type Chart struct {
	Type   ChartType
	XKey   string
	YKey   string
	Points []ChartPoint
}

// Funnel shows a conversion pipeline.
type Funnel struct {
	Stages []FunnelStage
}

// Comparison shows period-over-period deltas.
type Comparison struct {
	Items []ComparisonItem
}

// Table shows rows against ordered columns.
type Table struct {
	Columns []Column
	Rows    []Row
}

// Narrative is markdown prose.
type Narrative struct {
	Text string
}

// Custom carries free-form data for bespoke slides.
type Custom struct {
	Data map[string]any
}

func (KPIRow) Kind() LayoutKind     { return KindKPIRow }
func (Chart) Kind() LayoutKind      { return KindChart }
func (Funnel) Kind() LayoutKind     { return KindFunnel }
func (Comparison) Kind() LayoutKind { return KindComparison }
func (Table) Kind() LayoutKind      { return KindTable }
func (Narrative) Kind() LayoutKind  { return KindNarrative }
func (Custom) Kind() LayoutKind     { return KindCustom }

func (KPIRow) layout()     {}
func (Chart) layout()      {}
func (Funnel) layout()     {}
func (Comparison) layout() {}
func (Table) layout()      {}
func (Narrative) layout()  {}
func (Custom) layout()     {}

// Visitor handles every layout variant. Adding a kind adds a method here,
// so every visitor stops compiling until it handles the new kind.
type Visitor[T any] interface {
	KPIRow(KPIRow) T
	Chart(Chart) T
	Funnel(Funnel) T
	Comparison(Comparison) T
	Table(Table) T
	Narrative(Narrative) T
	Custom(Custom) T
}

// Visit dispatches l to the matching visitor method.
func Visit[T any](l Layout, v Visitor[T]) T {
	switch x := l.(type) {
	case KPIRow:
		return v.KPIRow(x)
	case Chart:
		return v.Chart(x)
	case Funnel:
		return v.Funnel(x)
	case Comparison:
		return v.Comparison(x)
	case Table:
		return v.Table(x)
	case Narrative:
		return v.Narrative(x)
	case Custom:
		return v.Custom(x)
	default:
		panic(fmt.Sprintf("engagement: unhandled layout %T", l))
	}
}

// Conversion returns value[i]/value[i-1]*100. ok is false for the first
// stage, which has no predecessor.
func (f Funnel) Conversion(i int) (rate float64, ok bool) {
	if i <= 0 || i >= len(f.Stages) || f.Stages[i-1].Value == 0 {
		return 0, false
	}
	return f.Stages[i].Value / f.Stages[i-1].Value * 100, true
}

// Dropoff returns how many fell out between stage i-1 and stage i.
func (f Funnel) Dropoff(i int) float64 {
	if i <= 0 || i >= len(f.Stages) {
		return 0
	}
	return f.Stages[i-1].Value - f.Stages[i].Value
}

// Max returns the largest stage value, used to scale bars.
func (f Funnel) Max() float64 {
	var m float64
	for _, s := range f.Stages {
		if s.Value > m {
			m = s.Value
		}
	}
	return m
}

// Total sums all chart points.
func (c Chart) Total() float64 {
	var sum float64
	for _, p := range c.Points {
		sum += p.Value
	}
	return sum
}

// Max returns the largest point value.
func (c Chart) Max() float64 {
	var m float64
	for _, p := range c.Points {
		if p.Value > m {
			m = p.Value
		}
	}
	return m
}
