// Package engagement models a client engagement presentation: the ordered
// slides and the metric payload each slide layout carries.
//
// An Engagement is immutable once loaded. Slides hold exactly one Layout
// variant; consumers dispatch with Visit so every variant is handled.
package engagement

import (
	"time"

	"github.com/okian/deck/internal/domain/format"
)

// Engagement is one client presentation.
type Engagement struct {
	ID       string
	Client   string
	Title    string
	Date     string
	Password string
	Slides   []Slide
}

// Slide is one screen of the presentation.
type Slide struct {
	ID       string
	Title    string
	Subtitle string
	Layout   Layout
}

// Public returns a copy without the password, safe to hand to clients.
func (e *Engagement) Public() *Engagement {
	cp := *e
	cp.Password = ""
	return &cp
}

// SlideIndex returns the position of the slide with the given id.
func (e *Engagement) SlideIndex(id string) (int, bool) {
	for i, s := range e.Slides {
		if s.ID == id {
			return i, true
		}
	}
	return 0, false
}

// KPI is a headline metric with an optional prior value.
type KPI struct {
	Label    string
	Value    float64
	Previous *float64
	Format   format.Kind
	Prefix   string
	Suffix   string
}

// Delta returns the percentage change against the previous value.
func (k KPI) Delta() (float64, bool) {
	if k.Previous == nil {
		return 0, false
	}
	return format.Delta(k.Value, *k.Previous)
}

// LiveReadout is a ticking headline figure shown under a KPI row.
type LiveReadout struct {
	Label   string
	Value   float64
	Format  format.Kind
	Refresh time.Duration
}

// ChartType selects how chart points are drawn.
type ChartType string

// Chart types.
const (
	ChartBar       ChartType = "bar"
	ChartLine      ChartType = "line"
	ChartArea      ChartType = "area"
	ChartSparkline ChartType = "sparkline"
)

// ChartPoint is one labelled value in chronological order.
type ChartPoint struct {
	Label string
	Value float64
}

// FunnelStage is one step of a conversion pipeline.
type FunnelStage struct {
	Label string
	Value float64
	Color string
}

// ComparisonItem is a metric compared against the prior period.
type ComparisonItem struct {
	Label    string
	Current  float64
	Previous float64
	Format   format.Kind
}

// Delta returns (current-previous)/previous*100. Previous is validated
// non-zero at load time.
func (c ComparisonItem) Delta() float64 {
	d, _ := format.Delta(c.Current, c.Previous)
	return d
}

// Column describes one table column.
type Column struct {
	Key    string
	Label  string
	Format format.Kind
}

// Row is one table row. Cells are matched against columns by key.
type Row struct {
	Cells  map[string]any
	Detail map[string]float64
	Trend  []float64
}
