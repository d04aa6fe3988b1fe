package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/cache"
	"github.com/actuallystonmai/influencer-sync/internal/catalog"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/actuallystonmai/influencer-sync/internal/logging"
	"github.com/actuallystonmai/influencer-sync/internal/youtube"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultTermCount        = 5
	defaultResultsPerTerm   = 3
	defaultVideosPerChannel = 5
	defaultConcurrency      = 4
)

// Store is the datastore the service reads and writes influencers through.
type Store interface {
	UpsertInfluencer(ctx context.Context, inf *domain.Influencer) error
	SearchInfluencers(ctx context.Context, filter domain.SearchFilter) ([]domain.Influencer, error)
	ListIdentities(ctx context.Context) ([]domain.Identity, error)
	CountInfluencers(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type SearchCache interface {
	Get(ctx context.Context, query string, limit int) (*domain.SearchResult, bool, error)
	Set(ctx context.Context, query string, limit int, result *domain.SearchResult) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

type Options struct {
	TermCount        int
	ResultsPerTerm   int
	VideosPerChannel int
	Concurrency      int
	UsePopular       bool
	// SearchInterval is the minimum gap between upstream searches in a run.
	SearchInterval time.Duration
	// Timeout bounds one sync run. Zero leaves it to the caller's context.
	Timeout time.Duration
	Seed    int64
}

type Deps struct {
	Store       Store
	SearchCache SearchCache
	Cache       *cache.Memory
	Resolver    *youtube.Resolver
	Videos      *youtube.VideoFetcher
	Catalog     *catalog.Catalog
}

type Service struct {
	store       Store
	searchCache SearchCache
	cache       *cache.Memory
	resolver    *youtube.Resolver
	videos      *youtube.VideoFetcher
	catalog     *catalog.Catalog
	opts        Options

	// runMu admits one sync at a time; rng and limiter are only used under it.
	runMu   sync.Mutex
	rng     *rand.Rand
	limiter *rate.Limiter

	logger zerolog.Logger
	now    func() time.Time
}

func NewService(deps Deps, opts Options) *Service {
	if opts.TermCount <= 0 {
		opts.TermCount = defaultTermCount
	}
	if opts.ResultsPerTerm <= 0 {
		opts.ResultsPerTerm = defaultResultsPerTerm
	}
	if opts.VideosPerChannel <= 0 {
		opts.VideosPerChannel = defaultVideosPerChannel
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if deps.SearchCache == nil {
		deps.SearchCache = cache.NewSearchCache(nil, 0)
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	limit := rate.Inf
	if opts.SearchInterval > 0 {
		limit = rate.Every(opts.SearchInterval)
	}

	return &Service{
		store:       deps.Store,
		searchCache: deps.SearchCache,
		cache:       deps.Cache,
		resolver:    deps.Resolver,
		videos:      deps.Videos,
		catalog:     deps.Catalog,
		opts:        opts,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logging.Component("service"),
		now:         time.Now,
	}
}

// CountInfluencers reports how many influencers are stored.
func (s *Service) CountInfluencers(ctx context.Context) (int, error) {
	return s.store.CountInfluencers(ctx)
}

// Health pings the datastore and the search cache.
func (s *Service) Health(ctx context.Context) map[string]string {
	status := map[string]string{"database": "ok", "redis": "ok"}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("database ping failed")
		status["database"] = "unavailable"
	}
	if !searchCacheEnabled(s.searchCache) {
		status["redis"] = "disabled"
	} else if err := s.searchCache.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("redis ping failed")
		status["redis"] = "unavailable"
	}
	return status
}

func searchCacheEnabled(c SearchCache) bool {
	if c == nil {
		return false
	}
	if e, ok := c.(interface{ Enabled() bool }); ok {
		return e.Enabled()
	}
	return true
}

// categorizeError maps err to a stable machine code and a display message.
func categorizeError(err error) (string, string) {
	var apiErr *youtube.APIError
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return "configuration_error", "youtube api key is not configured"
	case youtube.IsQuotaError(err):
		return "quota_exceeded", "youtube quota or rate limit exceeded"
	case errors.Is(err, domain.ErrChannelNotFound):
		return "channel_not_found", "channel not found"
	case errors.Is(err, domain.ErrUploadsNotFound):
		return "uploads_not_found", "channel has no uploads playlist"
	case errors.As(err, &apiErr):
		return "upstream_error", apiErr.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout", "operation timed out"
	}
	return "internal_error", "an unexpected error occurred"
}
