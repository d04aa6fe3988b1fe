package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/actuallystonmai/influencer-sync/internal/cache"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

// Service is what the HTTP layer needs from the influencer service.
type Service interface {
	SyncInfluencers(ctx context.Context) (*domain.SyncResult, error)
	SearchInfluencers(ctx context.Context, query string, limit int) (*domain.SearchResult, error)
	ListInfluencers(ctx context.Context, category string, limit int) ([]domain.Influencer, error)
	CacheStats() cache.Stats
	InvalidateCache(ctx context.Context, scope string) (int, error)
	Health(ctx context.Context) map[string]string
}

type Handler struct {
	service Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{service: svc}
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// parseLimit reads the limit query parameter, allowing 1..max.
func parseLimit(r *http.Request, fallback, max int) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed < 1 || parsed > max {
		return 0, false
	}
	return parsed, true
}
