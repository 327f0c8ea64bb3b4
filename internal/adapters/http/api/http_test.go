package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/deck/internal/adapters/http/api"
	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/gate"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	verifier *gate.Verifier
	issueErr error

	mu     sync.Mutex
	tokens map[string]bool
	seq    int
}

func newMockDependencies(secret string) *mockDependencies {
	return &mockDependencies{verifier: gate.NewVerifier(secret), tokens: map[string]bool{}}
}

func (m *mockDependencies) GateEnabled() bool { return m.verifier.Enabled() }

func (m *mockDependencies) Verify(ctx context.Context, secret string) error {
	return m.verifier.Verify(ctx, secret)
}

func (m *mockDependencies) IssueSession(context.Context) (string, error) {
	if m.issueErr != nil {
		return "", m.issueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	token := "token-" + strings.Repeat("x", m.seq)
	m.tokens[token] = true
	return token, nil
}

func (m *mockDependencies) ValidSession(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[token], nil
}

func (m *mockDependencies) RevokeSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

func (m *mockDependencies) Engagement() *engagement.Engagement { return engagement.Example() }

func newMux(deps api.Dependencies, opts ...api.Option) (*http.ServeMux, *api.Server) {
	server := api.NewServer(deps, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux, server
}

func post(h http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func markerCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler(t *testing.T) {
	Convey("Given a server with a configured secret", t, func() {
		deps := newMockDependencies("quicksilver")
		mux, _ := newMux(deps, api.WithCookie("deck_auth", true))

		Convey("When the correct password is posted", func() {
			w := post(mux, "/api/auth", `{"password":"quicksilver"}`)

			Convey("Then it returns ok and sets a session cookie", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["ok"], ShouldEqual, true)
				c := markerCookie(w, "deck_auth")
				So(c, ShouldNotBeNil)
				So(c.Value, ShouldNotBeEmpty)
				So(c.HttpOnly, ShouldBeTrue)
				So(c.Secure, ShouldBeTrue)
				So(c.Path, ShouldEqual, "/")
				So(c.SameSite, ShouldEqual, http.SameSiteLaxMode)
				So(c.MaxAge, ShouldEqual, 0)
				So(c.Expires.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When a wrong password is posted", func() {
			w := post(mux, "/api/auth", `{"password":"nope"}`)

			Convey("Then it returns 401 and no cookie", func() {
				So(w.Code, ShouldEqual, http.StatusUnauthorized)
				body := decode(w)
				So(body["error"], ShouldEqual, "Invalid password")
				So(body["code"], ShouldEqual, "unauthorized")
				So(markerCookie(w, "deck_auth"), ShouldBeNil)
			})
		})

		Convey("When the body is malformed", func() {
			w := post(mux, "/api/auth", `{"password":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When the endpoint is called with GET", func() {
			w := get(mux, "/api/auth")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the session store fails", func() {
			deps.issueErr = errors.New("redis down")
			w := post(mux, "/api/auth", `{"password":"quicksilver"}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(markerCookie(w, "deck_auth"), ShouldBeNil)
		})

		Convey("When logging out with a marker", func() {
			c := markerCookie(post(mux, "/api/auth", `{"password":"quicksilver"}`), "deck_auth")
			w := post(mux, "/api/logout", "", c)

			Convey("Then the marker is revoked and the cookie cleared", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				ok, _ := deps.ValidSession(context.Background(), c.Value)
				So(ok, ShouldBeFalse)
				cleared := markerCookie(w, "deck_auth")
				So(cleared, ShouldNotBeNil)
				So(cleared.MaxAge, ShouldBeLessThan, 0)
			})
		})
	})

	Convey("Given a server without a secret", t, func() {
		mux, _ := newMux(newMockDependencies(""))

		Convey("When any password is posted", func() {
			w := post(mux, "/api/auth", `{"password":"anything"}`)

			Convey("Then it reports the misconfiguration", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decode(w)
				So(body["error"], ShouldEqual, "Server misconfigured: no password set")
				So(body["code"], ShouldEqual, "not_configured")
			})
		})
	})
}

func TestGate(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	Convey("Given the gate with a configured secret", t, func() {
		deps := newMockDependencies("quicksilver")
		mux, server := newMux(deps, api.WithPublicPaths([]string{"/healthz", "/static/"}))
		gated := server.Gate().Wrap(ok)

		cases := []struct {
			path     string
			status   int
			location string
		}{
			{"/", http.StatusTemporaryRedirect, "/gate"},
			{"/api/engagement", http.StatusTemporaryRedirect, "/gate"},
			{"/anything/else", http.StatusTemporaryRedirect, "/gate"},
			{"/gate", http.StatusOK, ""},
			{"/api/auth", http.StatusOK, ""},
			{"/healthz", http.StatusOK, ""},
			{"/static/deck.css", http.StatusOK, ""},
			{"/healthzz", http.StatusTemporaryRedirect, "/gate"},
		}

		Convey("When requests carry no marker", func() {
			for _, c := range cases {
				w := get(gated, c.path)
				So(w.Code, ShouldEqual, c.status)
				So(w.Header().Get("Location"), ShouldEqual, c.location)
			}
		})

		Convey("When a forged marker is presented", func() {
			w := get(gated, "/", &http.Cookie{Name: "deck_auth", Value: "authenticated"})
			So(w.Code, ShouldEqual, http.StatusTemporaryRedirect)
		})

		Convey("When a marker from the verification endpoint is presented", func() {
			c := markerCookie(post(mux, "/api/auth", `{"password":"quicksilver"}`), "deck_auth")

			Convey("Then protected paths pass", func() {
				So(get(gated, "/", c).Code, ShouldEqual, http.StatusOK)
				So(get(gated, "/api/engagement", c).Code, ShouldEqual, http.StatusOK)
			})

			Convey("Then the gate page redirects home", func() {
				w := get(gated, "/gate", c)
				So(w.Code, ShouldEqual, http.StatusTemporaryRedirect)
				So(w.Header().Get("Location"), ShouldEqual, "/")
			})
		})
	})

	Convey("Given the gate without a secret", t, func() {
		_, server := newMux(newMockDependencies(""))
		gated := server.Gate().Wrap(ok)

		Convey("Then every path passes", func() {
			So(get(gated, "/").Code, ShouldEqual, http.StatusOK)
			So(get(gated, "/api/engagement").Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the gate page redirects home", func() {
			w := get(gated, "/gate")
			So(w.Code, ShouldEqual, http.StatusTemporaryRedirect)
			So(w.Header().Get("Location"), ShouldEqual, "/")
		})
	})
}

func TestEngagementHandler(t *testing.T) {
	Convey("Given the engagement endpoint", t, func() {
		mux, _ := newMux(newMockDependencies("quicksilver"))

		Convey("When fetching the document", func() {
			w := get(mux, "/api/engagement")

			Convey("Then it is returned without the password", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				So(w.Body.String(), ShouldNotContainSubstring, "quicksilver")
				body := decode(w)
				So(body["client"], ShouldEqual, "Acme Corp")
				So(body["slides"], ShouldHaveLength, 6)
			})
		})

		Convey("When posting to it", func() {
			So(post(mux, "/api/engagement", "{}").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHealthHandler(t *testing.T) {
	Convey("Given the health endpoint", t, func() {
		mux, _ := newMux(newMockDependencies(""))

		Convey("Then it exposes metrics", func() {
			w := get(mux, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestKindError(t *testing.T) {
	Convey("Given wrapped kind errors", t, func() {
		cause := errors.New("eof")
		err := api.WrapKind("api.verify", api.ErrBadRequest, cause)

		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.verify: bad request: eof")
		So(errors.Is(api.NewKind("api.verify", api.ErrNotConfigured), api.ErrNotConfigured), ShouldBeTrue)
	})
}
