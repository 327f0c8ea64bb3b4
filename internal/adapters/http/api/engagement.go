package api

import "net/http"

// EngagementHandler serves the engagement document.
type EngagementHandler struct {
	deps Dependencies
}

// NewEngagementHandler creates a new engagement handler.
func NewEngagementHandler(deps Dependencies) *EngagementHandler {
	return &EngagementHandler{deps: deps}
}

// HandleGetEngagement handles GET /api/engagement requests. The password
// never leaves the server.
func (h *EngagementHandler) HandleGetEngagement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	e := h.deps.Engagement()
	if e == nil {
		writeError(w, http.StatusNotFound, "not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, e.Public())
}
