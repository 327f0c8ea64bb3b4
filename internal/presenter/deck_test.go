package presenter

import (
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/format"
	"github.com/okian/deck/internal/domain/motion"
	"github.com/okian/deck/internal/domain/nav"
	"github.com/okian/deck/internal/domain/readout"
)

var epoch = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

func settle(l *motion.Loop) {
	l.Step(motion.DefaultDuration + motion.DefaultFrameInterval)
}

func TestDeck(t *testing.T) {
	Convey("Given an open deck on a cooperative loop", t, func() {
		l := motion.NewLoop(epoch)
		renders := 0
		d := NewDeck(engagement.Example(), l,
			WithRandom(func() float64 { return 0.75 }),
			WithRender(func() { renders++ }),
		)
		d.Open()
		defer d.Close()

		Convey("Then the KPI counters start from zero and converge", func() {
			f := d.Frame()
			So(f.Index, ShouldEqual, 0)
			So(f.Progress(), ShouldEqual, "01 / 06")
			So(f.Counters, ShouldResemble, []string{"$0", "0", "0.0%", "$0"})

			settle(l)
			So(d.Frame().Counters, ShouldResemble, []string{"$2,450,000", "142", "34.2%", "$17,250"})
			So(renders, ShouldBeGreaterThan, 4)
		})

		Convey("Then the live readout ticks and flashes", func() {
			So(d.Frame().Live.Value, ShouldEqual, "$3,240,000")
			l.Step(3 * time.Second)
			live := d.Frame().Live
			So(live.Value, ShouldEqual, "$3,256,200")
			So(live.Flashing, ShouldBeTrue)
		})

		Convey("When a KPI is hovered", func() {
			So(d.Hover(0), ShouldBeTrue)
			l.Step(6 * time.Second)

			Convey("Then the ticker holds still", func() {
				So(d.Frame().Live.Value, ShouldEqual, "$3,240,000")
				So(d.Frame().Hovered, ShouldEqual, 0)
			})

			Convey("Then ending the hover resumes ticking", func() {
				d.EndHover()
				l.Step(3 * time.Second)
				So(d.Frame().Live.Value, ShouldEqual, "$3,256,200")
			})
		})

		Convey("When moving to the funnel", func() {
			So(d.HandleKey(nav.KeyArrowRight, nav.FocusNone), ShouldBeTrue)

			Convey("Then every effect of the KPI slide is cancelled", func() {
				So(d.Frame().Index, ShouldEqual, 1)
				So(l.Pending(), ShouldEqual, 0)
			})

			Convey("Then the readout shows its fallback until a stage is hovered", func() {
				So(*d.Frame().Readout, ShouldResemble, readout.View{Label: "HOVER A STAGE", Value: "12,500"})

				So(d.Hover(2), ShouldBeTrue)
				rv := d.Frame().Readout
				So(rv.Label, ShouldEqual, "40.0% CONVERSION from MQLs — 2,880 dropped at this stage")
				So(rv.Value, ShouldEqual, "1,920")

				d.EndHover()
				So(d.Frame().Readout.Label, ShouldEqual, readout.LabelFunnel)
			})

			Convey("Then hovering the funnel leaves the revenue chart alone", func() {
				d.Hover(1)
				d.Navigator().GoTo(3)
				So(d.Frame().Readout.Label, ShouldEqual, readout.LabelRevenue)
				So(d.Channel(1).Active(), ShouldBeFalse)
			})

			Convey("Then elements out of range are ignored", func() {
				So(d.Hover(9), ShouldBeFalse)
			})
		})

		Convey("When a table row is opened", func() {
			d.Navigator().GoTo(4)
			So(d.OpenDetail(1), ShouldBeTrue)

			Convey("Then the drawer shows the row", func() {
				So(d.Frame().Detail.Title, ShouldEqual, "Marcus Johnson")
			})

			Convey("Then Escape closes the drawer without navigating", func() {
				So(d.HandleKey(nav.KeyEscape, nav.FocusNone), ShouldBeTrue)
				So(d.Frame().Detail, ShouldBeNil)
				So(d.Frame().Index, ShouldEqual, 4)
			})

			Convey("Then leaving the slide closes it", func() {
				d.HandleClick(5, 100)
				d.HandleClick(95, 100)
				So(d.Frame().Detail, ShouldBeNil)
			})
		})

		Convey("When a detail is requested off a table", func() {
			So(d.OpenDetail(0), ShouldBeFalse)
		})

		Convey("When returning to the KPI slide", func() {
			d.Navigator().Next()
			d.Navigator().Prev()

			Convey("Then the counters restart", func() {
				So(d.Frame().Counters[1], ShouldEqual, "0")
				settle(l)
				So(d.Frame().Counters[1], ShouldEqual, "142")
			})
		})

		Convey("When the deck is closed", func() {
			d.Close()

			Convey("Then nothing is left scheduled", func() {
				So(l.Pending(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a deck without animation", t, func() {
		l := motion.NewLoop(epoch)
		d := NewDeck(engagement.Example(), l, WithAnimation(false), WithStartSlide(0))
		d.Open()
		defer d.Close()

		Convey("Then counters show final values and only the ticker is pending", func() {
			So(d.Frame().Counters, ShouldResemble, []string{"$2,450,000", "142", "34.2%", "$17,250"})
			So(l.Pending(), ShouldEqual, 1)
		})
	})

	Convey("Given KPIs with fractional targets", t, func() {
		l := motion.NewLoop(epoch)
		e := &engagement.Engagement{ID: "fractional", Slides: []engagement.Slide{{
			ID:    "kpis",
			Title: "KPIs",
			Layout: engagement.KPIRow{KPIs: []engagement.KPI{
				{Label: "Ratio", Value: 4.5, Format: format.Number},
				{Label: "Deal", Value: 17250.5, Format: format.Currency},
			}},
		}}}
		d := NewDeck(e, l)
		d.Open()
		defer d.Close()

		Convey("Then every counter sample shows the target's single decimal", func() {
			var samples []string
			for range 100 {
				samples = append(samples, d.Frame().Counters...)
				l.Step(motion.DefaultFrameInterval)
			}
			samples = append(samples, d.Frame().Counters...)

			for _, s := range samples {
				dot := strings.LastIndexByte(s, '.')
				So(dot, ShouldBeGreaterThan, 0)
				So(len(s)-dot-1, ShouldEqual, 1)
			}
			So(samples[0], ShouldEqual, "0.0")
			So(samples[1], ShouldEqual, "$0.0")
			So(d.Frame().Counters, ShouldResemble, []string{"4.5", "$17,250.5"})
		})
	})

	Convey("Given a deck opened past its end", t, func() {
		d := NewDeck(engagement.Example(), motion.NewLoop(epoch), WithStartSlide(40))
		d.Open()
		defer d.Close()

		Convey("Then it starts on the last slide", func() {
			So(d.Frame().Index, ShouldEqual, 5)
			So(d.Frame().AtEnd, ShouldBeTrue)
		})
	})
}

func TestDeckRealtime(t *testing.T) {
	defer goleak.VerifyNone(t)

	Convey("Given a deck on the wall clock", t, func() {
		d := NewDeck(engagement.Example(), motion.Realtime{})
		d.Open()
		time.Sleep(20 * time.Millisecond)
		d.Navigator().Next()
		d.Navigator().Prev()
		d.Close()

		Convey("Then closing it leaves no timers behind", func() {
			So(d.Frame().Index, ShouldEqual, 0)
		})
	})
}
