package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/deck/internal/adapters/http/api"
	"github.com/okian/deck/internal/adapters/session"
	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/gate"
)

type testDeps struct {
	*session.MemoryStore
	verifier *gate.Verifier
}

func (d testDeps) GateEnabled() bool { return d.verifier.Enabled() }
func (d testDeps) Verify(ctx context.Context, s string) error {
	return d.verifier.Verify(ctx, s)
}
func (d testDeps) IssueSession(ctx context.Context) (string, error) { return d.Issue(ctx) }
func (d testDeps) ValidSession(ctx context.Context, t string) (bool, error) {
	return d.Valid(ctx, t)
}
func (d testDeps) RevokeSession(ctx context.Context, t string) error { return d.Revoke(ctx, t) }
func (d testDeps) Engagement() *engagement.Engagement              { return engagement.Example() }

func newServer(t *testing.T, secret string) *httptest.Server {
	store := session.NewMemoryStore(context.Background())
	t.Cleanup(func() { _ = store.Close() })
	deps := testDeps{MemoryStore: store, verifier: gate.NewVerifier(secret)}
	srv := api.NewServer(deps)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	ts := httptest.NewServer(srv.Gate().Wrap(mux))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given a gated server", t, func() {
		ts := newServer(t, "quicksilver")
		c, err := New(ts.URL)
		So(err, ShouldBeNil)

		Convey("When fetching before unlocking", func() {
			e, locked, err := c.Open(ctx)

			Convey("Then the deck is reported locked", func() {
				So(err, ShouldBeNil)
				So(locked, ShouldBeTrue)
				So(e, ShouldBeNil)
			})
		})

		Convey("When a wrong secret is submitted", func() {
			err := c.Verify(ctx, "nope")
			So(errors.Is(err, gate.ErrInvalidSecret), ShouldBeTrue)
		})

		Convey("When the gate machine attempts the right secret", func() {
			m := gate.NewMachine()
			m.Type("quicksilver")
			So(m.Attempt(ctx, c), ShouldBeNil)
			So(m.State(), ShouldEqual, gate.Unlocked)

			Convey("Then the engagement can be fetched without its password", func() {
				e, err := c.Engagement(ctx)
				So(err, ShouldBeNil)
				So(e.Client, ShouldEqual, "Acme Corp")
				So(e.Slides, ShouldHaveLength, 6)
				So(e.Password, ShouldBeEmpty)
			})

			Convey("Then logging out locks the deck again", func() {
				So(c.Logout(ctx), ShouldBeNil)
				_, err := c.Engagement(ctx)
				So(errors.Is(err, ErrLocked), ShouldBeTrue)
			})
		})
	})

	Convey("Given a server without a secret", t, func() {
		ts := newServer(t, "")
		c, err := New(ts.URL)
		So(err, ShouldBeNil)

		Convey("Then the deck opens directly", func() {
			e, locked, err := c.Open(ctx)
			So(err, ShouldBeNil)
			So(locked, ShouldBeFalse)
			So(e, ShouldNotBeNil)
		})

		Convey("Then verification reports the missing secret", func() {
			So(errors.Is(c.Verify(ctx, "x"), gate.ErrNotConfigured), ShouldBeTrue)
		})
	})

	Convey("Given an invalid base URL", t, func() {
		_, err := New("not a url")
		So(err, ShouldNotBeNil)
	})
}
