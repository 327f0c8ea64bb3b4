package presenter

import (
	"testing"
	"unicode/utf8"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/readout"
)

func TestBuild(t *testing.T) {
	views := Build(engagement.Example())

	Convey("Given the example deck views", t, func() {
		So(views, ShouldHaveLength, 6)

		Convey("Then the KPI slide formats cards, deltas and the live readout", func() {
			v := views[0]
			So(v.Number, ShouldEqual, "[01]")
			So(v.Code, ShouldEqual, "[EXECUTIVE_SUMMARY]")
			So(v.KPIs[0].Value, ShouldEqual, "$2,450,000")
			So(v.KPIs[0].Delta, ShouldEqual, "▲ 16.7%")
			So(v.KPIs[0].Up, ShouldBeTrue)
			So(v.KPIs[2].Value, ShouldEqual, "34.2%")
			So(v.KPIs[2].Decimals, ShouldEqual, 1)
			So(v.KPIs[3].Delta, ShouldEqual, "▼ 3.1%")
			So(v.KPIs[3].Up, ShouldBeFalse)
			So(v.Live.Display, ShouldEqual, "$3,240,000")
			So(v.Live.RefreshMS, ShouldEqual, 3000)
			So(utf8.RuneCountInString(v.Sparkline.Blocks), ShouldEqual, 12)
			So(v.Sparkline.Blocks, ShouldStartWith, "▁")
			So(v.Sparkline.Blocks, ShouldEndWith, "█")
			So(v.Hoverable(), ShouldEqual, 4)
		})

		Convey("Then funnel stages carry widths and conversions", func() {
			f := views[1].Funnel
			So(f.Code, ShouldEqual, "[PIPELINE_FUNNEL]")
			So(f.Stages[0].WidthLabel, ShouldEqual, "100%")
			So(f.Stages[0].Conversion, ShouldBeEmpty)
			So(f.Stages[1].Conversion, ShouldEqual, "38.4%")
			So(f.Stages[1].WidthLabel, ShouldEqual, "38%")
			So(f.Stages[4].WidthLabel, ShouldBeEmpty)
			So(f.Fallback, ShouldResemble, readout.View{Label: readout.LabelFunnel, Value: "12,500"})
		})

		Convey("Then the narrative keeps its markdown", func() {
			So(views[2].Narrative, ShouldContainSubstring, "**enterprise deal flow**")
			So(views[2].Hoverable(), ShouldEqual, 0)
		})

		Convey("Then chart bars are scaled to the tallest", func() {
			c := views[3].Chart
			So(c.Code, ShouldEqual, "[MONTHLY_REVENUE]")
			So(c.Bars[0].Short, ShouldEqual, "$380k")
			So(c.Bars[0].Display, ShouldEqual, "$380,000")
			So(c.Bars[5].Height, ShouldEqual, 100.0)
			So(c.Fallback.Value, ShouldEqual, "$3,450,000")
			r, ok := views[3].Readout(3)
			So(ok, ShouldBeTrue)
			So(r.Message, ShouldEqual, "Oct REVENUE up 13.7% MoM — $580K closed")
		})

		Convey("Then table cells follow their column formats", func() {
			tbl := views[4].Table
			So(tbl.Columns, ShouldResemble, []string{"Rep", "Deals", "Revenue", "Win Rate"})
			So(tbl.Rows[0].Cells, ShouldResemble, []string{"Sarah Chen", "28", "$520,000", "42.1%"})
			So(tbl.Rows[3].Cells[3], ShouldEqual, "33.0%")
			So(tbl.Rows[0].Title, ShouldEqual, "Sarah Chen")
			So(tbl.Rows[0].HasDetail(), ShouldBeTrue)
			So(tbl.Rows[0].Detail[0], ShouldResemble, Pair{Label: "Avg Deal Size", Value: "18,571"})
		})

		Convey("Then comparison items show signed deltas", func() {
			c := views[5].Comparison
			So(c.Code, ShouldEqual, "[QOQ_COMPARISON]")
			So(c.Items[0].Current, ShouldEqual, "$8,200,000")
			So(c.Items[0].Delta, ShouldEqual, "+20.6%")
			So(c.Items[2].Delta, ShouldEqual, "-11.1%")
			So(c.Items[2].Up, ShouldBeFalse)
			So(c.Items[3].Current, ShouldEqual, "94.2%")
			r, _ := views[5].Readout(3)
			So(r.Message, ShouldEqual, "Customer Retention improved 2.4pp QoQ — now at 94.2%")
		})
	})

	Convey("Given a custom slide", t, func() {
		e := &engagement.Engagement{Slides: []engagement.Slide{{
			ID: "x", Title: "Next Steps",
			Layout: engagement.Custom{Data: map[string]any{"owner_name": "Dana", "dueDate": "Jan 15"}},
		}}}

		Convey("Then its data is listed by key", func() {
			v := BuildSlide(e, 0)
			So(v.Custom, ShouldResemble, []Pair{{Label: "Due Date", Value: "Jan 15"}, {Label: "Owner Name", Value: "Dana"}})
		})
	})

	Convey("Given helper formatting", t, func() {
		So(Code("QoQ Comparison"), ShouldEqual, "[QOQ_COMPARISON]")
		So(Humanize("avgDealSize"), ShouldEqual, "Avg Deal Size")
		So(Humanize("win_rate"), ShouldEqual, "Win Rate")
		So(Sparkline([]float64{5, 5}).Blocks, ShouldEqual, "▅▅")
		So(Sparkline(nil).Points, ShouldBeEmpty)
	})
}
