// Package presenter turns an engagement into render-ready views and runs
// the interactive deck state shared by the web and terminal front ends.
package presenter

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/format"
	"github.com/okian/deck/internal/domain/readout"
)

// Sparkline geometry used by the web deck.
const (
	SparkWidth  = 120
	SparkHeight = 32
)

// funnelLabelMin is the bar width, in percent, below which the inline
// percentage is hidden.
const funnelLabelMin = 20

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// SlideView is everything needed to draw one slide.
type SlideView struct {
	Index    int
	Number   string
	ID       string
	Title    string
	Subtitle string
	Code     string
	Kind     engagement.LayoutKind

	KPIs       []KPIView
	Live       *LiveView
	Sparkline  *SparklineView
	Chart      *ChartView
	Funnel     *FunnelView
	Comparison *ComparisonView
	Table      *TableView
	Narrative  string
	Custom     []Pair
}

// Hoverable returns how many elements on the slide publish hover readouts.
func (s SlideView) Hoverable() int {
	switch s.Kind {
	case engagement.KindKPIRow:
		return len(s.KPIs)
	case engagement.KindChart:
		return len(s.Chart.Bars)
	case engagement.KindFunnel:
		return len(s.Funnel.Stages)
	case engagement.KindComparison:
		return len(s.Comparison.Items)
	default:
		return 0
	}
}

// Readout returns the hover readout of element i.
func (s SlideView) Readout(i int) (readout.Readout, bool) {
	if i < 0 || i >= s.Hoverable() {
		return readout.Readout{}, false
	}
	switch s.Kind {
	case engagement.KindKPIRow:
		return s.KPIs[i].Readout, true
	case engagement.KindChart:
		return s.Chart.Bars[i].Readout, true
	case engagement.KindFunnel:
		return s.Funnel.Stages[i].Readout, true
	case engagement.KindComparison:
		return s.Comparison.Items[i].Readout, true
	default:
		return readout.Readout{}, false
	}
}

// KPIView is one headline card.
type KPIView struct {
	Label    string
	Value    string
	Target   float64
	Decimals int
	Format   format.Kind
	Prefix   string
	Suffix   string
	Delta    string
	Up       bool
	HasDelta bool
	Readout  readout.Readout
}

// Text formats an intermediate counter sample with the target's decimals.
func (k KPIView) Text(v float64) string {
	return k.Prefix + format.ValueAt(v, k.Format, k.Decimals) + k.Suffix
}

// LiveView is a ticking readout.
type LiveView struct {
	Label     string
	Value     float64
	Display   string
	Format    format.Kind
	RefreshMS int
}

// SparklineView is a small trend line.
type SparklineView struct {
	Values []float64
	Points string
	Blocks string
}

// ChartView is a labelled bar or line series.
type ChartView struct {
	Type     engagement.ChartType
	Code     string
	Bars     []BarView
	Fallback readout.View
}

// BarView is one point of a chart.
type BarView struct {
	Label   string
	Value   float64
	Display string
	Short   string
	Height  float64
	Readout readout.Readout
}

// FunnelView is a conversion funnel.
type FunnelView struct {
	Code     string
	Stages   []StageView
	Fallback readout.View
}

// StageView is one funnel stage.
type StageView struct {
	Label      string
	Value      string
	Width      float64
	WidthLabel string
	Conversion string
	Color      string
	Readout    readout.Readout
}

// ComparisonView lists period-over-period changes.
type ComparisonView struct {
	Code     string
	Items    []ComparisonItemView
	Fallback readout.View
}

// ComparisonItemView is one compared metric.
type ComparisonItemView struct {
	Label    string
	Current  string
	Previous string
	Delta    string
	Up       bool
	Readout  readout.Readout
}

// TableView is a table with formatted cells.
type TableView struct {
	Code    string
	Columns []string
	Rows    []RowView
}

// RowView is one formatted row with its drill-down detail.
type RowView struct {
	Title  string
	Cells  []string
	Trend  *SparklineView
	Detail []Pair
}

// HasDetail reports whether the row opens a drawer.
func (r RowView) HasDetail() bool { return len(r.Detail) > 0 || r.Trend != nil }

// Pair is a labelled value.
type Pair struct {
	Label string
	Value string
}

// Build returns the views of every slide.
func Build(e *engagement.Engagement) []SlideView {
	out := make([]SlideView, len(e.Slides))
	for i := range e.Slides {
		out[i] = BuildSlide(e, i)
	}
	return out
}

// BuildSlide returns the view of slide i.
func BuildSlide(e *engagement.Engagement, i int) SlideView {
	s := e.Slides[i]
	v := engagement.Visit[SlideView](s.Layout, viewBuilder{code: Code(s.Title)})
	v.Index = i
	v.Number = fmt.Sprintf("[%02d]", i+1)
	v.ID, v.Title, v.Subtitle = s.ID, s.Title, s.Subtitle
	v.Code = Code(s.Title)
	v.Kind = s.Layout.Kind()
	return v
}

// Code renders a title as a bracketed tag, e.g. "[MONTHLY_REVENUE]".
func Code(title string) string {
	fields := strings.FieldsFunc(strings.ToUpper(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return "[" + strings.Join(fields, "_") + "]"
}

type viewBuilder struct {
	code string
}

func (viewBuilder) KPIRow(r engagement.KPIRow) SlideView {
	var v SlideView
	for _, k := range r.KPIs {
		kv := KPIView{
			Label:    k.Label,
			Value:    format.Affixed(k.Value, k.Format, k.Prefix, k.Suffix),
			Target:   k.Value,
			Decimals: format.Decimals(k.Value),
			Format:   k.Format,
			Prefix:   k.Prefix,
			Suffix:   k.Suffix,
			Readout:  readout.KPI(k),
		}
		if d, ok := k.Delta(); ok {
			kv.Delta, kv.Up, kv.HasDelta = format.Trend(d), d >= 0, true
		}
		v.KPIs = append(v.KPIs, kv)
	}
	if r.Live != nil {
		v.Live = &LiveView{
			Label:     r.Live.Label,
			Value:     r.Live.Value,
			Display:   format.Value(r.Live.Value, r.Live.Format),
			Format:    r.Live.Format,
			RefreshMS: int(r.Live.Refresh.Milliseconds()),
		}
	}
	if len(r.Sparkline) > 0 {
		v.Sparkline = Sparkline(r.Sparkline)
	}
	return v
}

func (b viewBuilder) Chart(c engagement.Chart) SlideView {
	cv := &ChartView{
		Type:     c.Type,
		Code:     b.code,
		Fallback: readout.RevenueDisplay(c, readout.NewChannel()).Fallback(),
	}
	top := c.Max()
	for i, p := range c.Points {
		r, _ := readout.RevenueBar(c.Points, i)
		cv.Bars = append(cv.Bars, BarView{
			Label:   p.Label,
			Value:   p.Value,
			Display: format.Dollars(p.Value),
			Short:   "$" + format.Fixed(p.Value/1000, 0) + "k",
			Height:  share(p.Value, top),
			Readout: r,
		})
	}
	return SlideView{Chart: cv}
}

func (b viewBuilder) Funnel(f engagement.Funnel) SlideView {
	fv := &FunnelView{
		Code:     b.code,
		Fallback: readout.FunnelDisplay(f, readout.NewChannel()).Fallback(),
	}
	top := f.Max()
	for i, s := range f.Stages {
		r, _ := readout.FunnelStage(f, i)
		sv := StageView{
			Label:   s.Label,
			Value:   format.Grouped(s.Value),
			Width:   share(s.Value, top),
			Color:   s.Color,
			Readout: r,
		}
		if sv.Width > funnelLabelMin {
			sv.WidthLabel = format.Fixed(sv.Width, 0) + "%"
		}
		if conv, ok := f.Conversion(i); ok {
			sv.Conversion = format.Fixed(conv, 1) + "%"
		}
		fv.Stages = append(fv.Stages, sv)
	}
	return SlideView{Funnel: fv}
}

func (b viewBuilder) Comparison(c engagement.Comparison) SlideView {
	cv := &ComparisonView{
		Code:     b.code,
		Fallback: readout.ComparisonDisplay(c, readout.NewChannel()).Fallback(),
	}
	for _, it := range c.Items {
		d := it.Delta()
		sign := ""
		if d >= 0 {
			sign = "+"
		}
		cv.Items = append(cv.Items, ComparisonItemView{
			Label:    it.Label,
			Current:  format.Value(it.Current, it.Format),
			Previous: format.Value(it.Previous, it.Format),
			Delta:    sign + format.Fixed(d, 1) + "%",
			Up:       d >= 0,
			Readout:  readout.ComparisonItem(it),
		})
	}
	return SlideView{Comparison: cv}
}

func (b viewBuilder) Table(t engagement.Table) SlideView {
	tv := &TableView{Code: b.code}
	for _, c := range t.Columns {
		tv.Columns = append(tv.Columns, c.Label)
	}
	for _, r := range t.Rows {
		rv := RowView{}
		for _, c := range t.Columns {
			rv.Cells = append(rv.Cells, format.Cell(r.Cells[c.Key], c.Format))
		}
		if len(rv.Cells) > 0 {
			rv.Title = rv.Cells[0]
		}
		if len(r.Trend) > 0 {
			rv.Trend = Sparkline(r.Trend)
		}
		rv.Detail = detailPairs(r.Detail)
		tv.Rows = append(tv.Rows, rv)
	}
	return SlideView{Table: tv}
}

func (viewBuilder) Narrative(n engagement.Narrative) SlideView {
	return SlideView{Narrative: n.Text}
}

func (viewBuilder) Custom(c engagement.Custom) SlideView {
	keys := make([]string, 0, len(c.Data))
	for k := range c.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Label: Humanize(k), Value: fmt.Sprint(c.Data[k])})
	}
	return SlideView{Custom: pairs}
}

func detailPairs(detail map[string]float64) []Pair {
	if len(detail) == 0 {
		return nil
	}
	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Pair, 0, len(keys))
	for _, k := range keys {
		out = append(out, Pair{Label: Humanize(k), Value: format.Grouped(detail[k])})
	}
	return out
}

// Humanize turns a camelCase or snake_case key into a title, e.g.
// "avgDealSize" becomes "Avg Deal Size".
func Humanize(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}

// Sparkline scales values into the web sparkline box and a block-glyph
// strip for terminals.
func Sparkline(values []float64) *SparklineView {
	sv := &SparklineView{Values: values}
	if len(values) == 0 {
		return sv
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	span := hi - lo

	pts := make([]string, len(values))
	blocks := make([]rune, len(values))
	for i, v := range values {
		x := 0.0
		if len(values) > 1 {
			x = float64(i) / float64(len(values)-1) * SparkWidth
		}
		norm := 0.5
		if span > 0 {
			norm = (v - lo) / span
		}
		y := SparkHeight - norm*SparkHeight
		pts[i] = format.Fixed(x, 1) + "," + format.Fixed(y, 1)
		blocks[i] = sparkBlocks[int(math.Round(norm*float64(len(sparkBlocks)-1)))]
	}
	sv.Points = strings.Join(pts, " ")
	sv.Blocks = string(blocks)
	return sv
}

func share(v, top float64) float64 {
	if top <= 0 {
		return 0
	}
	return v / top * 100
}
