package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/deck/internal/domain/format"
)

func TestExample(t *testing.T) {
	Convey("Given the embedded example engagement", t, func() {
		e, err := Load(context.Background(), "")
		So(err, ShouldBeNil)

		Convey("Then it carries six slides in presentation order", func() {
			So(e.Client, ShouldEqual, "Acme Corp")
			So(e.Password, ShouldEqual, "quicksilver")
			kinds := make([]LayoutKind, len(e.Slides))
			for i, s := range e.Slides {
				kinds[i] = s.Layout.Kind()
			}
			So(kinds, ShouldResemble, []LayoutKind{KindKPIRow, KindFunnel, KindNarrative, KindChart, KindTable, KindComparison})
		})

		Convey("Then the KPI row has its live readout and sparkline", func() {
			row := e.Slides[0].Layout.(KPIRow)
			So(row.KPIs, ShouldHaveLength, 4)
			So(row.Live, ShouldNotBeNil)
			So(row.Live.Value, ShouldEqual, 3240000.0)
			So(row.Live.Format, ShouldEqual, format.Currency)
			So(row.Live.Refresh.Milliseconds(), ShouldEqual, int64(3000))
			So(row.Sparkline, ShouldHaveLength, 12)

			d, ok := row.KPIs[0].Delta()
			So(ok, ShouldBeTrue)
			So(d, ShouldAlmostEqual, 16.666, 0.01)
		})

		Convey("Then the funnel computes conversion and dropoff", func() {
			f := e.Slides[1].Layout.(Funnel)
			_, ok := f.Conversion(0)
			So(ok, ShouldBeFalse)
			rate, ok := f.Conversion(1)
			So(ok, ShouldBeTrue)
			So(rate, ShouldAlmostEqual, 38.4, 0.0001)
			So(f.Dropoff(1), ShouldEqual, 7700.0)
			So(f.Max(), ShouldEqual, 12500.0)
		})

		Convey("Then chart records are decoded with the default keys", func() {
			c := e.Slides[3].Layout.(Chart)
			So(c.Type, ShouldEqual, ChartBar)
			So(c.XKey, ShouldEqual, DefaultXKey)
			So(c.Points[0], ShouldResemble, ChartPoint{Label: "Jul", Value: 380000})
			So(c.Total(), ShouldEqual, 3450000.0)
		})

		Convey("Then table rows split cells from trend and detail", func() {
			tbl := e.Slides[4].Layout.(Table)
			So(tbl.Columns[0].Format, ShouldEqual, format.Text)
			row := tbl.Rows[0]
			So(row.Cells["name"], ShouldEqual, "Sarah Chen")
			So(row.Cells, ShouldNotContainKey, "detail")
			So(row.Detail["avgDealSize"], ShouldEqual, 18571.0)
			So(row.Trend, ShouldHaveLength, 12)
		})

		Convey("Then comparison deltas follow the prior period", func() {
			items := e.Slides[5].Layout.(Comparison).Items
			So(items[0].Delta(), ShouldAlmostEqual, 20.588, 0.001)
			So(items[2].Delta(), ShouldAlmostEqual, -11.111, 0.001)
		})

		Convey("Then the example has no warnings", func() {
			So(e.Warnings(), ShouldBeEmpty)
		})

		Convey("Then Public strips the password without touching the original", func() {
			p := e.Public()
			So(p.Password, ShouldBeEmpty)
			So(e.Password, ShouldEqual, "quicksilver")
			i, ok := p.SlideIndex("monthly-trend")
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 3)
		})
	})
}

func TestLoadFromFile(t *testing.T) {
	Convey("Given a JSON engagement written to disk", t, func() {
		data, err := json.Marshal(Example().Public())
		So(err, ShouldBeNil)
		path := filepath.Join(t.TempDir(), "engagement.json")
		So(os.WriteFile(path, data, 0o600), ShouldBeNil)

		Convey("When it is loaded", func() {
			e, err := Load(context.Background(), path)

			Convey("Then it matches the example apart from the password", func() {
				So(err, ShouldBeNil)
				So(e.Password, ShouldBeEmpty)
				So(e.Slides, ShouldHaveLength, 6)
				So(e.Slides[1].Layout.(Funnel).Stages[4].Value, ShouldEqual, 142.0)
				So(e.Slides[4].Layout.(Table).Rows[5].Detail["quota"], ShouldEqual, 400000.0)
			})
		})
	})

	Convey("Given a path that does not exist", t, func() {
		_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))

		Convey("Then a load error is returned", func() {
			So(errors.Is(err, ErrLoad), ShouldBeTrue)
		})
	})
}

func TestJSON(t *testing.T) {
	Convey("Given the example encoded as JSON", t, func() {
		data, err := json.Marshal(Example())
		So(err, ShouldBeNil)

		Convey("Then slides use the flat document layout", func() {
			var raw map[string]any
			So(json.Unmarshal(data, &raw), ShouldBeNil)
			first := raw["slides"].([]any)[0].(map[string]any)
			So(first["layout"], ShouldEqual, "kpi-row")
			So(first["live"].(map[string]any)["refreshInterval"], ShouldEqual, float64(3000))
		})

		Convey("Then decoding restores the layouts", func() {
			var e Engagement
			So(json.Unmarshal(data, &e), ShouldBeNil)
			So(e.Slides[3].Layout.(Chart).Points[5].Value, ShouldEqual, 840000.0)
			So(e.Slides[2].Layout.(Narrative).Text, ShouldContainSubstring, "enterprise deal flow")
		})
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want error
	}{
		{"no slides", "id: x\nslides: []\n", ErrInvalidEngagement},
		{"unknown layout", "slides:\n  - {id: a, title: A, layout: pie}\n", ErrUnknownLayout},
		{"unknown format", "slides:\n  - {id: a, title: A, layout: kpi-row, kpis: [{label: R, value: 1, format: euro}]}\n", format.ErrUnknownKind},
		{"duplicate ids", "slides:\n  - {id: a, title: A, layout: narrative, narrative: hi}\n  - {id: a, title: B, layout: narrative, narrative: yo}\n", ErrInvalidEngagement},
		{"empty funnel", "slides:\n  - {id: a, title: A, layout: funnel}\n", ErrInvalidEngagement},
		{"empty chart", "slides:\n  - {id: a, title: A, layout: chart}\n", ErrInvalidEngagement},
		{"zero previous", "slides:\n  - {id: a, title: A, layout: comparison, comparisonItems: [{label: X, current: 5, previous: 0}]}\n", ErrInvalidEngagement},
		{"zero kpi previous", "slides:\n  - {id: a, title: A, layout: kpi-row, kpis: [{label: X, value: 5, previousValue: 0}]}\n", ErrInvalidEngagement},
		{"non numeric chart value", "slides:\n  - {id: a, title: A, layout: chart, chartData: [{month: Jan, revenue: lots}]}\n", ErrInvalidEngagement},
	}

	Convey("Given invalid documents", t, func() {
		for _, tc := range cases {
			Convey("When the document has "+tc.name, func() {
				_, err := Parse([]byte(tc.doc))

				Convey("Then parsing fails with the matching error", func() {
					So(err, ShouldNotBeNil)
					So(errors.Is(err, tc.want), ShouldBeTrue)
				})
			})
		}
	})

	Convey("Given a funnel whose stages grow", t, func() {
		e, err := Parse([]byte("slides:\n  - {id: f, title: F, layout: funnel, funnelStages: [{label: A, value: 10}, {label: B, value: 20}]}\n"))

		Convey("Then it is accepted with a warning", func() {
			So(err, ShouldBeNil)
			So(e.Warnings(), ShouldHaveLength, 1)
			rate, _ := e.Slides[0].Layout.(Funnel).Conversion(1)
			So(rate, ShouldEqual, 200.0)
		})
	})
}

type kindNamer struct{}

func (kindNamer) KPIRow(KPIRow) string         { return "kpi" }
func (kindNamer) Chart(Chart) string           { return "chart" }
func (kindNamer) Funnel(Funnel) string         { return "funnel" }
func (kindNamer) Comparison(Comparison) string { return "comparison" }
func (kindNamer) Table(Table) string           { return "table" }
func (kindNamer) Narrative(Narrative) string   { return "narrative" }
func (kindNamer) Custom(Custom) string         { return "custom" }

func TestVisit(t *testing.T) {
	Convey("Given one layout of every kind", t, func() {
		layouts := []Layout{KPIRow{}, Chart{}, Funnel{}, Comparison{}, Table{}, Narrative{}, Custom{}}

		Convey("Then Visit reaches the matching method", func() {
			var got []string
			for _, l := range layouts {
				got = append(got, Visit[string](l, kindNamer{}))
			}
			So(got, ShouldResemble, []string{"kpi", "chart", "funnel", "comparison", "table", "narrative", "custom"})
			So(len(Kinds()), ShouldEqual, len(layouts))
		})
	})
}
