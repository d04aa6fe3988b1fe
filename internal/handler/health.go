package handler

import "net/http"

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	checks := h.service.Health(r.Context())

	status, code := "ok", http.StatusOK
	if checks["database"] != "ok" {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
}
