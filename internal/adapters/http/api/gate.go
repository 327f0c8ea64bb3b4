package api

import (
	"net/http"

	"github.com/okian/deck/pkg/logger"
	"github.com/okian/deck/pkg/metrics"
)

// Gate redirects requests without a valid session marker to the gate page.
type Gate struct {
	deps Dependencies
	opts Options
	log  logger.Logger
}

// NewGate builds the enforcement middleware.
func NewGate(deps Dependencies, opts Options, log logger.Logger) *Gate {
	if log == nil {
		log = logger.Nop()
	}
	return &Gate{deps: deps, opts: opts, log: log}
}

// Wrap returns next behind the gate.
//
// Without a secret everything passes and the gate page itself redirects to
// "/". With a secret, a valid marker passes everywhere except the gate page,
// which redirects to "/". Without a marker only the gate page, the
// verification endpoint and public paths pass.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if !g.deps.GateEnabled() {
			if path == g.opts.GatePath {
				g.redirect(w, r, "/", "disabled")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if g.authenticated(r) {
			if path == g.opts.GatePath {
				g.redirect(w, r, "/", "unlocked")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if path == g.opts.GatePath || path == g.opts.VerifyPath || g.opts.public(path) {
			next.ServeHTTP(w, r)
			return
		}
		g.redirect(w, r, g.opts.GatePath, "no_session")
	})
}

// Authenticated reports whether r carries a marker the server issued.
func (g *Gate) Authenticated(r *http.Request) bool {
	return g.authenticated(r)
}

func (g *Gate) authenticated(r *http.Request) bool {
	c, err := r.Cookie(g.opts.cookie.Name)
	if err != nil || c.Value == "" {
		return false
	}
	ok, err := g.deps.ValidSession(r.Context(), c.Value)
	if err != nil {
		metrics.RecordErrorByComponent("session", "lookup")
		g.log.Warn(r.Context(), "session lookup failed", logger.Error(err))
		return false
	}
	return ok
}

func (g *Gate) redirect(w http.ResponseWriter, r *http.Request, to, reason string) {
	metrics.RecordGateRedirect(reason)
	http.Redirect(w, r, to, http.StatusTemporaryRedirect)
}
