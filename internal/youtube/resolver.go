package youtube

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/cache"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/actuallystonmai/influencer-sync/internal/logging"
	"github.com/actuallystonmai/influencer-sync/internal/retry"
	"github.com/rs/zerolog"
)

const (
	defaultChannelTTL        = 30 * time.Minute
	defaultSearchResults     = 5
	maxSearchResults         = 10
	defaultVerifiedThreshold = 1_000_000
)

type ResolverConfig struct {
	ChannelTTL time.Duration
	// VerifiedThreshold is the subscriber count above which a channel is
	// marked verified.
	VerifiedThreshold int64
}

// Resolver turns search terms and channel ids into channel records, caching
// every merged result.
type Resolver struct {
	upstream  Upstream
	cache     *cache.Memory
	policy    retry.Policy
	ttl       time.Duration
	threshold int64
	logger    zerolog.Logger
}

func NewResolver(upstream Upstream, c *cache.Memory, policy retry.Policy, cfg ResolverConfig) *Resolver {
	if cfg.ChannelTTL <= 0 {
		cfg.ChannelTTL = defaultChannelTTL
	}
	if cfg.VerifiedThreshold <= 0 {
		cfg.VerifiedThreshold = defaultVerifiedThreshold
	}
	return &Resolver{
		upstream:  upstream,
		cache:     c,
		policy:    policy,
		ttl:       cfg.ChannelTTL,
		threshold: cfg.VerifiedThreshold,
		logger:    logging.Component("resolver"),
	}
}

func channelsKey(ids []string) string {
	return "channels:" + strings.Join(ids, ",")
}

func searchKey(term string, maxResults int64) string {
	return fmt.Sprintf("channel_search:%s:%d", strings.ToLower(term), maxResults)
}

// ResolveByIDs fetches channel details in batches of MaxBatchSize. The merged
// result is cached under the sorted id list.
func (r *Resolver) ResolveByIDs(ctx context.Context, ids []string) ([]domain.Channel, error) {
	if r.upstream == nil {
		return nil, domain.ErrMissingCredential
	}

	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return []domain.Channel{}, nil
	}

	key := channelsKey(ids)
	if cached, ok := cache.GetAs[[]domain.Channel](r.cache, key); ok {
		r.logger.Debug().Str("key", key).Msg("channel cache hit")
		return slices.Clone(cached), nil
	}

	channels := make([]domain.Channel, 0, len(ids))
	for batch := range slices.Chunk(ids, MaxBatchSize) {
		found, err := retry.Execute(ctx, r.policy, func(ctx context.Context) ([]domain.Channel, error) {
			return r.upstream.ChannelsByID(ctx, batch)
		})
		if err != nil {
			return nil, fmt.Errorf("resolve %d channels: %w", len(batch), err)
		}
		channels = append(channels, found...)
	}

	for i := range channels {
		channels[i].Verified = channels[i].SubscriberCount > r.threshold
	}

	r.cache.Set(key, slices.Clone(channels), r.ttl)
	r.logger.Debug().Int("requested", len(ids)).Int("resolved", len(channels)).Msg("channels resolved")
	return channels, nil
}

// ResolveByQuery runs one channel search and resolves the candidates. An
// empty search result is an empty list, not an error.
func (r *Resolver) ResolveByQuery(ctx context.Context, term string, maxResults int64) ([]domain.Channel, error) {
	if r.upstream == nil {
		return nil, domain.ErrMissingCredential
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.ErrInvalidQuery
	}
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}
	maxResults = min(maxResults, maxSearchResults)

	key := searchKey(term, maxResults)
	if cached, ok := cache.GetAs[[]domain.Channel](r.cache, key); ok {
		r.logger.Debug().Str("key", key).Msg("search cache hit")
		return slices.Clone(cached), nil
	}

	ids, err := retry.Execute(ctx, r.policy, func(ctx context.Context) ([]string, error) {
		return r.upstream.SearchChannelIDs(ctx, term, maxResults)
	})
	if err != nil {
		return nil, fmt.Errorf("search channels %q: %w", term, err)
	}

	channels := []domain.Channel{}
	if len(ids) > 0 {
		channels, err = r.ResolveByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	r.cache.Set(key, slices.Clone(channels), r.ttl)
	r.logger.Info().Str("term", term).Int("channels", len(channels)).Msg("search resolved")
	return channels, nil
}

func uniqueSorted(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
