package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

// POST /influencers/sync
func (h *Handler) SyncInfluencers(w http.ResponseWriter, r *http.Request) {
	// A client disconnect must not abort a run halfway through persisting.
	ctx := context.WithoutCancel(r.Context())

	result, err := h.service.SyncInfluencers(ctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			writeError(w, http.StatusConflict, "sync_in_progress", "A sync is already running")
		case errors.Is(err, domain.ErrMissingCredential):
			writeJSON(w, http.StatusServiceUnavailable, SyncResponse{
				Success: false,
				Result:  result,
				Error:   "configuration_error",
				Message: "YouTube API key is not configured",
			})
		case errors.Is(err, context.DeadlineExceeded):
			writeJSON(w, http.StatusGatewayTimeout, SyncResponse{
				Success: false,
				Result:  result,
				Error:   "sync_timeout",
				Message: "Sync did not finish in time",
			})
		default:
			writeJSON(w, http.StatusInternalServerError, SyncResponse{
				Success: false,
				Result:  result,
				Error:   "sync_failed",
				Message: err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{Success: true, Result: result})
}

// GET /influencers/search
func (h *Handler) SearchInfluencers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Query parameter q is required")
		return
	}

	limit, ok := parseLimit(r, defaultLimit, maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}

	result, err := h.service.SearchInfluencers(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid search query")
			return
		}
		// Request timeout
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			writeError(w, http.StatusServiceUnavailable, "request_timeout",
				"Request timed out, please try again")
			return
		}
		writeError(w, http.StatusBadGateway, "search_unavailable",
			"Neither stored nor external influencers could be searched")
		return
	}

	errs := result.Errors
	if errs == nil {
		errs = []domain.ItemResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Query:    result.Query,
		Keywords: result.Keywords,
		Existing: result.Existing,
		External: result.External,
		Errors:   errs,
		Metadata: SearchMeta{
			CacheHit:      result.CacheHit,
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
			ExistingCount: len(result.Existing),
			ExternalCount: len(result.External),
		},
	})
}

// GET /influencers
func (h *Handler) ListInfluencers(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, defaultLimit, maxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}
	category := r.URL.Query().Get("category")

	items, err := h.service.ListInfluencers(r.Context(), category, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}
	if items == nil {
		items = []domain.Influencer{}
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Influencers: items,
		Category:    category,
		TotalCount:  len(items),
	})
}
