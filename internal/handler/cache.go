package handler

import (
	"errors"
	"net/http"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

// GET /cache/stats
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.CacheStats())
}

// DELETE /cache?scope=channels|videos|all
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Query parameter scope is required")
		return
	}

	removed, err := h.service.InvalidateCache(r.Context(), scope)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidScope) {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Scope must be one of channels, videos or all")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, InvalidateResponse{
		Scope:   scope,
		Removed: removed,
		Stats:   h.service.CacheStats(),
	})
}
