// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// GateEnabled reports whether a shared secret is configured.
	GateEnabled() bool
	// Verify checks a submitted secret. It returns gate.ErrInvalidSecret on
	// mismatch and gate.ErrNotConfigured when no secret is set.
	Verify(ctx context.Context, secret string) error

	// Session marker registry.
	IssueSession(ctx context.Context) (string, error)
	ValidSession(ctx context.Context, token string) (bool, error)
	RevokeSession(ctx context.Context, token string) error

	// Engagement returns the loaded engagement document.
	Engagement() *engagement.Engagement
}

// Server wires HTTP routes for the verification and engagement API.
type Server struct {
	opts Options
	deps Dependencies
	log  logger.Logger

	healthHandler     *HealthHandler
	authHandler       *AuthHandler
	engagementHandler *EngagementHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		opts:              o,
		deps:              deps,
		log:               log,
		healthHandler:     NewHealthHandler(),
		authHandler:       NewAuthHandler(deps, o.cookie, log),
		engagementHandler: NewEngagementHandler(deps),
	}
}

// Options returns the effective server options.
func (s *Server) Options() Options { return s.opts }

// Register attaches all API routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc(s.opts.VerifyPath, MetricsMiddleware(s.authHandler.HandleVerify, "auth"))
	mux.HandleFunc(s.opts.LogoutPath, MetricsMiddleware(s.authHandler.HandleLogout, "logout"))
	mux.HandleFunc(s.opts.EngagementPath, MetricsMiddleware(s.engagementHandler.HandleGetEngagement, "engagement"))
}

// Gate returns the enforcement middleware configured like the server.
func (s *Server) Gate() *Gate {
	return NewGate(s.deps, s.opts, s.log)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends a fixed public message. err stays in the logs.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
