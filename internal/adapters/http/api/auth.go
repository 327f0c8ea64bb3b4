package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/deck/internal/domain/gate"
	"github.com/okian/deck/pkg/logger"
	"github.com/okian/deck/pkg/metrics"
)

// Public messages of the verification endpoint.
const (
	msgInvalidPassword = "Invalid password"
	msgNotConfigured   = "Server misconfigured: no password set"
	msgBadRequest      = "Malformed request body"
	msgInternal        = "Could not start session"
)

// maxAuthBody bounds the verification request body.
const maxAuthBody = 4 << 10

// AuthHandler handles the verification and logout endpoints.
type AuthHandler struct {
	deps   Dependencies
	cookie CookieOptions
	log    logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(deps Dependencies, cookie CookieOptions, log logger.Logger) *AuthHandler {
	return &AuthHandler{deps: deps, cookie: cookie, log: log}
}

type authRequest struct {
	Password string `json:"password"`
}

// HandleVerify handles POST /api/auth requests.
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	const op = "api.verify"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	ctx := r.Context()

	if !h.deps.GateEnabled() {
		metrics.RecordGateAttempt("not_configured")
		h.log.Error(ctx, "verification attempted without a secret", logger.Error(NewKind(op, ErrNotConfigured)))
		writeError(w, http.StatusInternalServerError, "not_configured", msgNotConfigured)
		return
	}

	var req authRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAuthBody)).Decode(&req); err != nil {
		metrics.RecordGateAttempt("bad_request")
		h.log.Debug(ctx, "malformed verification body", logger.Error(WrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, "bad_request", msgBadRequest)
		return
	}

	err := h.deps.Verify(ctx, req.Password)
	switch {
	case errors.Is(err, gate.ErrNotConfigured):
		metrics.RecordGateAttempt("not_configured")
		writeError(w, http.StatusInternalServerError, "not_configured", msgNotConfigured)
		return
	case err != nil:
		metrics.RecordGateAttempt("rejected")
		h.log.Info(ctx, "gate rejected secret", logger.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "unauthorized", msgInvalidPassword)
		return
	}

	token, err := h.deps.IssueSession(ctx)
	if err != nil {
		metrics.RecordGateAttempt("error")
		metrics.RecordErrorByComponent("session", "issue")
		h.log.Error(ctx, "issue session failed", logger.Error(WrapKind(op, ErrInternal, err)))
		writeError(w, http.StatusInternalServerError, "internal", msgInternal)
		return
	}

	metrics.RecordGateAttempt("accepted")
	http.SetCookie(w, h.cookie.marker(token))
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// HandleLogout handles POST /api/logout requests. The marker is revoked
// server-side and the cookie is cleared.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	const op = "api.logout"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if c, err := r.Cookie(h.cookie.Name); err == nil && c.Value != "" {
		if err := h.deps.RevokeSession(r.Context(), c.Value); err != nil {
			metrics.RecordErrorByComponent("session", "revoke")
			h.log.Error(r.Context(), "revoke session failed", logger.Error(WrapKind(op, ErrInternal, err)))
		}
	}
	http.SetCookie(w, h.cookie.cleared())
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
