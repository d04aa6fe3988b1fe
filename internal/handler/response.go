package handler

import (
	"github.com/actuallystonmai/influencer-sync/internal/cache"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

type SyncResponse struct {
	Success bool               `json:"success"`
	Result  *domain.SyncResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
	Message string             `json:"message,omitempty"`
}

type SearchResponse struct {
	Query    string                    `json:"query"`
	Keywords []string                  `json:"keywords"`
	Existing []domain.RankedInfluencer `json:"existing"`
	External []domain.Influencer       `json:"external"`
	Errors   []domain.ItemResult       `json:"errors"`
	Metadata SearchMeta                `json:"metadata"`
}

type SearchMeta struct {
	CacheHit      bool   `json:"cache_hit"`
	GeneratedAt   string `json:"generated_at"`
	ExistingCount int    `json:"existing_count"`
	ExternalCount int    `json:"external_count"`
}

type ListResponse struct {
	Influencers []domain.Influencer `json:"influencers"`
	Category    string              `json:"category,omitempty"`
	TotalCount  int                 `json:"total_count"`
}

type InvalidateResponse struct {
	Scope   string      `json:"scope"`
	Removed int         `json:"removed"`
	Stats   cache.Stats `json:"stats"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
