package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/deck/internal/domain/engagement"
)

func newTestMux() *http.ServeMux {
	s, err := New(engagement.Example(), WithGated(true))
	So(err, ShouldBeNil)
	mux := http.NewServeMux()
	s.Register(context.Background(), mux)
	return mux
}

func fetch(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestDeckPage(t *testing.T) {
	Convey("Given the site for the example engagement", t, func() {
		mux := newTestMux()

		Convey("When the deck page is requested", func() {
			w := fetch(mux, "/")
			body := w.Body.String()

			Convey("Then every slide is rendered with the first one visible", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(body, ShouldContainSubstring, "Acme Corp")
				So(body, ShouldContainSubstring, `data-start="0"`)
				So(body, ShouldContainSubstring, "[01]")
				So(body, ShouldContainSubstring, "[06]")
				So(body, ShouldContainSubstring, "01 / 06")
				So(body, ShouldContainSubstring, "[MONTHLY_REVENUE]")
			})

			Convey("Then hover readouts and fallbacks are precomputed", func() {
				So(body, ShouldContainSubstring, "HOVER A STAGE")
				So(body, ShouldContainSubstring, "HOVER A BAR")
				So(body, ShouldContainSubstring, "HOVER A METRIC")
				So(body, ShouldContainSubstring, "12,500 TOTAL LEADS — top of funnel, all channels combined")
				So(body, ShouldContainSubstring, "LIVE PIPELINE")
			})

			Convey("Then the narrative markdown is rendered", func() {
				So(body, ShouldContainSubstring, "<strong>enterprise deal flow</strong>")
			})

			Convey("Then the password is not leaked", func() {
				So(body, ShouldNotContainSubstring, "quicksilver")
			})
		})

		Convey("When a start slide is requested", func() {
			cases := []struct {
				query string
				start string
			}{
				{"/?slide=3", `data-start="2"`},
				{"/?slide=99", `data-start="5"`},
				{"/?slide=0", `data-start="0"`},
				{"/?slide=abc", `data-start="0"`},
			}
			for _, c := range cases {
				So(fetch(mux, c.query).Body.String(), ShouldContainSubstring, c.start)
			}
		})

		Convey("When an unknown path is requested", func() {
			So(fetch(mux, "/nope").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When static assets are requested", func() {
			for _, p := range []string{"/static/deck.js", "/static/deck.css", "/static/gate.js"} {
				So(fetch(mux, p).Code, ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestGatePage(t *testing.T) {
	Convey("Given the site", t, func() {
		mux := newTestMux()

		Convey("When the gate page is requested", func() {
			w := fetch(mux, "/gate")

			Convey("Then the password form posts to the verification endpoint", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "[AUTHENTICATION_REQUIRED]")
				So(w.Body.String(), ShouldContainSubstring, `data-verify="/api/auth"`)
			})
		})
	})
}

func TestStartSlide(t *testing.T) {
	Convey("Given slide queries", t, func() {
		So(StartSlide("", 6), ShouldEqual, 0)
		So(StartSlide("1", 6), ShouldEqual, 0)
		So(StartSlide("4", 6), ShouldEqual, 3)
		So(StartSlide("7", 6), ShouldEqual, 5)
		So(StartSlide("-2", 6), ShouldEqual, 0)
		So(StartSlide("2", 0), ShouldEqual, 0)
	})
}

func TestRegisterNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		s, err := New(engagement.Example())
		So(err, ShouldBeNil)
		So(func() { s.Register(context.Background(), nil) }, ShouldPanic)
	})
}
