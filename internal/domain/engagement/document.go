package engagement

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/deck/internal/domain/format"
)

// Default record keys for chart data.
const (
	DefaultXKey = "month"
	DefaultYKey = "revenue"
)

const (
	defaultRefresh = 3 * time.Second
	rowTrendKey    = "trend"
	rowDetailKey   = "detail"
)

// Document is the serialized form of an Engagement. Slides are flat records
// whose layout field selects which payload fields apply.
type Document struct {
	ID       string          `koanf:"id" json:"id"`
	Client   string          `koanf:"client" json:"client"`
	Title    string          `koanf:"title" json:"title"`
	Date     string          `koanf:"date" json:"date"`
	Password string          `koanf:"password" json:"password,omitempty"`
	Slides   []SlideDocument `koanf:"slides" json:"slides"`
}

// SlideDocument is one serialized slide.
type SlideDocument struct {
	ID       string `koanf:"id" json:"id"`
	Title    string `koanf:"title" json:"title"`
	Subtitle string `koanf:"subtitle" json:"subtitle,omitempty"`
	Layout   string `koanf:"layout" json:"layout"`

	KPIs      []KPIDocument `koanf:"kpis" json:"kpis,omitempty"`
	Live      *LiveDocument `koanf:"live" json:"live,omitempty"`
	Sparkline []float64     `koanf:"sparkline" json:"sparkline,omitempty"`

	ChartType string           `koanf:"chartType" json:"chartType,omitempty"`
	ChartData []map[string]any `koanf:"chartData" json:"chartData,omitempty"`
	XKey      string           `koanf:"xKey" json:"xKey,omitempty"`
	YKey      string           `koanf:"yKey" json:"yKey,omitempty"`

	FunnelStages    []FunnelStageDocument    `koanf:"funnelStages" json:"funnelStages,omitempty"`
	ComparisonItems []ComparisonItemDocument `koanf:"comparisonItems" json:"comparisonItems,omitempty"`

	TableColumns []ColumnDocument `koanf:"tableColumns" json:"tableColumns,omitempty"`
	TableData    []map[string]any `koanf:"tableData" json:"tableData,omitempty"`

	Narrative string         `koanf:"narrative" json:"narrative,omitempty"`
	Custom    map[string]any `koanf:"customData" json:"customData,omitempty"`
}

// KPIDocument is a serialized KPI.
type KPIDocument struct {
	Label         string   `koanf:"label" json:"label"`
	Value         float64  `koanf:"value" json:"value"`
	PreviousValue *float64 `koanf:"previousValue" json:"previousValue,omitempty"`
	Format        string   `koanf:"format" json:"format,omitempty"`
	Prefix        string   `koanf:"prefix" json:"prefix,omitempty"`
	Suffix        string   `koanf:"suffix" json:"suffix,omitempty"`
}

// LiveDocument is a serialized live readout. RefreshInterval is in milliseconds.
type LiveDocument struct {
	Label           string  `koanf:"label" json:"label"`
	Value           float64 `koanf:"value" json:"value"`
	Format          string  `koanf:"format" json:"format,omitempty"`
	RefreshInterval int     `koanf:"refreshInterval" json:"refreshInterval,omitempty"`
}

// FunnelStageDocument is a serialized funnel stage.
type FunnelStageDocument struct {
	Label string  `koanf:"label" json:"label"`
	Value float64 `koanf:"value" json:"value"`
	Color string  `koanf:"color" json:"color,omitempty"`
}

// ComparisonItemDocument is a serialized comparison item.
type ComparisonItemDocument struct {
	Label    string  `koanf:"label" json:"label"`
	Current  float64 `koanf:"current" json:"current"`
	Previous float64 `koanf:"previous" json:"previous"`
	Format   string  `koanf:"format" json:"format,omitempty"`
}

// ColumnDocument is a serialized table column.
type ColumnDocument struct {
	Key    string `koanf:"key" json:"key"`
	Label  string `koanf:"label" json:"label"`
	Format string `koanf:"format" json:"format,omitempty"`
}

// FromDocument converts a document to an Engagement. It checks structure
// only; call Validate for the semantic rules.
func FromDocument(doc Document) (*Engagement, error) {
	e := &Engagement{
		ID:       doc.ID,
		Client:   doc.Client,
		Title:    doc.Title,
		Date:     doc.Date,
		Password: doc.Password,
		Slides:   make([]Slide, 0, len(doc.Slides)),
	}
	for i, sd := range doc.Slides {
		layout, err := sd.layout()
		if err != nil {
			return nil, fmt.Errorf("slide %d (%s): %w", i, sd.ID, err)
		}
		e.Slides = append(e.Slides, Slide{ID: sd.ID, Title: sd.Title, Subtitle: sd.Subtitle, Layout: layout})
	}
	return e, nil
}

func (sd SlideDocument) layout() (Layout, error) {
	switch LayoutKind(sd.Layout) {
	case KindKPIRow:
		return sd.kpiRow()
	case KindChart:
		return sd.chart()
	case KindFunnel:
		stages := make([]FunnelStage, len(sd.FunnelStages))
		for i, s := range sd.FunnelStages {
			stages[i] = FunnelStage(s)
		}
		return Funnel{Stages: stages}, nil
	case KindComparison:
		items := make([]ComparisonItem, len(sd.ComparisonItems))
		for i, it := range sd.ComparisonItems {
			k, err := format.ParseKind(it.Format, format.Number)
			if err != nil {
				return nil, fmt.Errorf("comparison %q: %w", it.Label, err)
			}
			items[i] = ComparisonItem{Label: it.Label, Current: it.Current, Previous: it.Previous, Format: k}
		}
		return Comparison{Items: items}, nil
	case KindTable:
		return sd.table()
	case KindNarrative:
		return Narrative{Text: sd.Narrative}, nil
	case KindCustom:
		return Custom{Data: sd.Custom}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, sd.Layout)
	}
}

func (sd SlideDocument) kpiRow() (Layout, error) {
	row := KPIRow{KPIs: make([]KPI, len(sd.KPIs)), Sparkline: sd.Sparkline}
	for i, k := range sd.KPIs {
		kind, err := format.ParseKind(k.Format, format.Number)
		if err != nil {
			return nil, fmt.Errorf("kpi %q: %w", k.Label, err)
		}
		row.KPIs[i] = KPI{Label: k.Label, Value: k.Value, Previous: k.PreviousValue, Format: kind, Prefix: k.Prefix, Suffix: k.Suffix}
	}
	if sd.Live != nil {
		kind, err := format.ParseKind(sd.Live.Format, format.Number)
		if err != nil {
			return nil, fmt.Errorf("live readout %q: %w", sd.Live.Label, err)
		}
		refresh := defaultRefresh
		if sd.Live.RefreshInterval > 0 {
			refresh = time.Duration(sd.Live.RefreshInterval) * time.Millisecond
		}
		row.Live = &LiveReadout{Label: sd.Live.Label, Value: sd.Live.Value, Format: kind, Refresh: refresh}
	}
	return row, nil
}

func (sd SlideDocument) chart() (Layout, error) {
	c := Chart{Type: ChartType(sd.ChartType), XKey: sd.XKey, YKey: sd.YKey}
	if c.Type == "" {
		c.Type = ChartBar
	}
	switch c.Type {
	case ChartBar, ChartLine, ChartArea, ChartSparkline:
	default:
		return nil, fmt.Errorf("%w: chart type %q", ErrInvalidEngagement, sd.ChartType)
	}
	if c.XKey == "" {
		c.XKey = DefaultXKey
	}
	if c.YKey == "" {
		c.YKey = DefaultYKey
	}
	c.Points = make([]ChartPoint, 0, len(sd.ChartData))
	for i, rec := range sd.ChartData {
		v, ok := format.ToFloat(rec[c.YKey])
		if !ok {
			return nil, fmt.Errorf("%w: chart record %d has no numeric %q", ErrInvalidEngagement, i, c.YKey)
		}
		label := ""
		if x, ok := rec[c.XKey]; ok && x != nil {
			label = fmt.Sprint(x)
		}
		c.Points = append(c.Points, ChartPoint{Label: label, Value: v})
	}
	return c, nil
}

func (sd SlideDocument) table() (Layout, error) {
	t := Table{Columns: make([]Column, len(sd.TableColumns)), Rows: make([]Row, 0, len(sd.TableData))}
	for i, c := range sd.TableColumns {
		kind, err := format.ParseKind(c.Format, format.Text)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Key, err)
		}
		t.Columns[i] = Column{Key: c.Key, Label: c.Label, Format: kind}
	}
	for i, rec := range sd.TableData {
		row := Row{Cells: make(map[string]any, len(rec))}
		for k, v := range rec {
			switch k {
			case rowTrendKey:
				trend, err := floats(v)
				if err != nil {
					return nil, fmt.Errorf("row %d trend: %w", i, err)
				}
				row.Trend = trend
			case rowDetailKey:
				detail, err := floatMap(v)
				if err != nil {
					return nil, fmt.Errorf("row %d detail: %w", i, err)
				}
				row.Detail = detail
			default:
				row.Cells[k] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func floats(v any) ([]float64, error) {
	switch xs := v.(type) {
	case []float64:
		return xs, nil
	case []any:
		out := make([]float64, len(xs))
		for i, x := range xs {
			f, ok := format.ToFloat(x)
			if !ok {
				return nil, fmt.Errorf("%w: %v is not a number", ErrInvalidEngagement, x)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrInvalidEngagement, v)
	}
}

func floatMap(v any) (map[string]float64, error) {
	switch m := v.(type) {
	case map[string]float64:
		return m, nil
	case map[string]any:
		out := make(map[string]float64, len(m))
		for k, x := range m {
			f, ok := format.ToFloat(x)
			if !ok {
				return nil, fmt.Errorf("%w: %s=%v is not a number", ErrInvalidEngagement, k, x)
			}
			out[k] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: expected a map, got %T", ErrInvalidEngagement, v)
	}
}

// ToDocument converts e back to its serialized form.
func ToDocument(e *Engagement) Document {
	doc := Document{
		ID:       e.ID,
		Client:   e.Client,
		Title:    e.Title,
		Date:     e.Date,
		Password: e.Password,
		Slides:   make([]SlideDocument, len(e.Slides)),
	}
	for i, s := range e.Slides {
		sd := Visit[SlideDocument](s.Layout, documentVisitor{})
		sd.ID, sd.Title, sd.Subtitle = s.ID, s.Title, s.Subtitle
		doc.Slides[i] = sd
	}
	return doc
}

type documentVisitor struct{}

func (documentVisitor) KPIRow(r KPIRow) SlideDocument {
	sd := SlideDocument{Layout: string(KindKPIRow), Sparkline: r.Sparkline}
	for _, k := range r.KPIs {
		sd.KPIs = append(sd.KPIs, KPIDocument{
			Label: k.Label, Value: k.Value, PreviousValue: k.Previous,
			Format: string(k.Format), Prefix: k.Prefix, Suffix: k.Suffix,
		})
	}
	if r.Live != nil {
		sd.Live = &LiveDocument{
			Label: r.Live.Label, Value: r.Live.Value, Format: string(r.Live.Format),
			RefreshInterval: int(r.Live.Refresh / time.Millisecond),
		}
	}
	return sd
}

func (documentVisitor) Chart(c Chart) SlideDocument {
	sd := SlideDocument{Layout: string(KindChart), ChartType: string(c.Type), XKey: c.XKey, YKey: c.YKey}
	for _, p := range c.Points {
		sd.ChartData = append(sd.ChartData, map[string]any{c.XKey: p.Label, c.YKey: p.Value})
	}
	return sd
}

func (documentVisitor) Funnel(f Funnel) SlideDocument {
	sd := SlideDocument{Layout: string(KindFunnel)}
	for _, s := range f.Stages {
		sd.FunnelStages = append(sd.FunnelStages, FunnelStageDocument(s))
	}
	return sd
}

func (documentVisitor) Comparison(c Comparison) SlideDocument {
	sd := SlideDocument{Layout: string(KindComparison)}
	for _, it := range c.Items {
		sd.ComparisonItems = append(sd.ComparisonItems, ComparisonItemDocument{
			Label: it.Label, Current: it.Current, Previous: it.Previous, Format: string(it.Format),
		})
	}
	return sd
}

func (documentVisitor) Table(t Table) SlideDocument {
	sd := SlideDocument{Layout: string(KindTable)}
	for _, c := range t.Columns {
		sd.TableColumns = append(sd.TableColumns, ColumnDocument{Key: c.Key, Label: c.Label, Format: string(c.Format)})
	}
	for _, r := range t.Rows {
		rec := make(map[string]any, len(r.Cells)+2)
		for k, v := range r.Cells {
			rec[k] = v
		}
		if len(r.Trend) > 0 {
			rec[rowTrendKey] = r.Trend
		}
		if len(r.Detail) > 0 {
			rec[rowDetailKey] = r.Detail
		}
		sd.TableData = append(sd.TableData, rec)
	}
	return sd
}

func (documentVisitor) Narrative(n Narrative) SlideDocument {
	return SlideDocument{Layout: string(KindNarrative), Narrative: n.Text}
}

func (documentVisitor) Custom(c Custom) SlideDocument {
	return SlideDocument{Layout: string(KindCustom), Custom: c.Data}
}

// MarshalJSON encodes the engagement as a Document.
func (e Engagement) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToDocument(&e))
}

// UnmarshalJSON decodes a Document and converts it.
func (e *Engagement) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out, err := FromDocument(doc)
	if err != nil {
		return err
	}
	*e = *out
	return nil
}
