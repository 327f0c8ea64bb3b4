package service_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/deck/internal/adapters/client"
	"github.com/okian/deck/internal/adapters/http/api"
	"github.com/okian/deck/internal/adapters/http/site"
	service "github.com/okian/deck/internal/app"
	"github.com/okian/deck/internal/config"
	"github.com/okian/deck/internal/domain/gate"
)

func serve(t *testing.T, svc *service.Service) *httptest.Server {
	srv := api.NewServer(svc)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	s, err := site.New(svc.Engagement(), site.WithGated(svc.GateEnabled()))
	if err != nil {
		t.Fatalf("site: %v", err)
	}
	s.Register(context.Background(), mux)
	ts := httptest.NewServer(srv.Gate().Wrap(mux))
	t.Cleanup(ts.Close)
	return ts
}

func TestServiceIntegration(t *testing.T) {
	ctx := context.Background()

	for _, store := range []string{config.SessionStoreMemory, config.SessionStoreRedis} {
		Convey("Given the full HTTP stack backed by the "+store+" session store", t, func() {
			cfg := config.New()
			cfg.SessionStore = store
			if store == config.SessionStoreRedis {
				mr := miniredis.RunT(t)
				cfg.RedisURL = "redis://" + mr.Addr() + "/0"
			}
			svc, err := startService(cfg)
			So(err, ShouldBeNil)
			defer svc.Stop()

			ts := serve(t, svc)
			c, err := client.New(ts.URL)
			So(err, ShouldBeNil)

			Convey("When the deck page is requested without a session", func() {
				noFollow := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
					return http.ErrUseLastResponse
				}}
				resp, err := noFollow.Get(ts.URL + "/")
				So(err, ShouldBeNil)
				defer resp.Body.Close()

				Convey("Then it redirects to the gate page", func() {
					So(resp.StatusCode, ShouldEqual, http.StatusTemporaryRedirect)
					So(resp.Header.Get("Location"), ShouldEqual, "/gate")
				})
			})

			Convey("When the gate page is requested", func() {
				resp, err := http.Get(ts.URL + "/gate")
				So(err, ShouldBeNil)
				defer resp.Body.Close()
				body, _ := io.ReadAll(resp.Body)

				Convey("Then it is served", func() {
					So(resp.StatusCode, ShouldEqual, http.StatusOK)
					So(string(body), ShouldContainSubstring, "AUTHENTICATION_REQUIRED")
				})
			})

			Convey("When the engagement password is submitted", func() {
				So(c.Verify(ctx, "quicksilver"), ShouldBeNil)

				Convey("Then the engagement opens", func() {
					e, locked, err := c.Open(ctx)
					So(err, ShouldBeNil)
					So(locked, ShouldBeFalse)
					So(e.ID, ShouldEqual, svc.Engagement().ID)
				})

				Convey("Then logging out revokes the session", func() {
					So(c.Logout(ctx), ShouldBeNil)
					_, locked, err := c.Open(ctx)
					So(err, ShouldBeNil)
					So(locked, ShouldBeTrue)
				})
			})

			Convey("When a wrong password is submitted", func() {
				err := c.Verify(ctx, "nope")

				Convey("Then it is rejected and the deck stays locked", func() {
					So(errors.Is(err, gate.ErrInvalidSecret), ShouldBeTrue)
					_, locked, err := c.Open(ctx)
					So(err, ShouldBeNil)
					So(locked, ShouldBeTrue)
				})
			})
		})
	}
}
