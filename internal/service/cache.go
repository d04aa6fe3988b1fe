package service

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/influencer-sync/internal/cache"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
)

const (
	ScopeChannels = "channels"
	ScopeVideos   = "videos"
	ScopeAll      = "all"
)

var scopePatterns = map[string]string{
	ScopeChannels: `^channel`,
	ScopeVideos:   `^(videos|uploads):`,
}

func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// InvalidateCache drops process cache entries for scope and returns how many
// were removed. The all scope also clears cached search results.
func (s *Service) InvalidateCache(ctx context.Context, scope string) (int, error) {
	if scope == ScopeAll {
		n := s.cache.Len()
		s.cache.Clear()
		if err := s.searchCache.Clear(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("search cache invalidation failed")
		}
		s.logger.Info().Str("scope", scope).Int("removed", n).Msg("cache cleared")
		return n, nil
	}

	pattern, ok := scopePatterns[scope]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidScope, scope)
	}

	n, err := s.cache.DeleteByPattern(pattern)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Str("scope", scope).Int("removed", n).Msg("cache invalidated")
	return n, nil
}
