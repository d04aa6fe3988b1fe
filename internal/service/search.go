package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/actuallystonmai/influencer-sync/internal/dedup"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/actuallystonmai/influencer-sync/internal/ranking"
	"github.com/actuallystonmai/influencer-sync/internal/youtube"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	externalResults    = 5
	maxKeywords        = 5
	minKeywordRunes    = 3
)

// ExtractKeywords lowercases query, splits it on non-word characters and
// keeps up to five distinct words longer than two characters.
func ExtractKeywords(query string) []string {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	keywords := []string{}
	seen := make(map[string]bool)
	for _, w := range words {
		if utf8.RuneCountInString(w) < minKeywordRunes || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// SearchInfluencers matches query against stored influencers and a live
// channel search. A failure on one side is reported in the result's Errors;
// an error is returned only when both sides fail.
func (s *Service) SearchInfluencers(ctx context.Context, query string, limit int) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	} else if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	cached, found, err := s.searchCache.Get(ctx, query, limit)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("search cache get failed")
	}
	if found {
		cached.CacheHit = true
		return cached, nil
	}

	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		keywords = []string{strings.ToLower(query)}
	}

	result := &domain.SearchResult{
		Query:    query,
		Keywords: keywords,
		Existing: []domain.RankedInfluencer{},
		External: []domain.Influencer{},
	}

	existing, dbErr := s.store.SearchInfluencers(ctx, domain.SearchFilter{Keywords: keywords, Limit: limit})
	if dbErr != nil {
		result.Errors = append(result.Errors, sourceError("datastore", query, dbErr))
	} else {
		categories, _ := s.catalog.Match(query)
		result.Existing = ranking.Rank(ranking.Input{
			Candidates: existing,
			Categories: categories,
			Limit:      limit,
		})
	}

	external, extErr := s.searchExternal(ctx, query, existing)
	if extErr != nil {
		result.Errors = append(result.Errors, sourceError("external", query, extErr))
	} else {
		result.External = external
	}

	if dbErr != nil && extErr != nil {
		return nil, fmt.Errorf("search %q: %w", query, errors.Join(dbErr, extErr))
	}

	if len(result.Errors) == 0 {
		if err := s.searchCache.Set(ctx, query, limit, result); err != nil {
			s.logger.Warn().Err(err).Str("query", query).Msg("search cache set failed")
		}
	}
	return result, nil
}

// searchExternal resolves channels for query that are not already stored,
// with their recent videos and aggregates.
func (s *Service) searchExternal(ctx context.Context, query string, existing []domain.Influencer) ([]domain.Influencer, error) {
	channels, err := s.resolver.ResolveByQuery(ctx, query, externalResults)
	if err != nil {
		return nil, err
	}

	known := dedup.NewIndex()
	for _, inf := range existing {
		known.Add(inf.Identity())
	}

	fresh := make([]domain.Channel, 0, len(channels))
	for _, ch := range channels {
		id := domain.Identity{Name: ch.Title, Handle: ch.Handle}
		if known.Contains(id) {
			continue
		}
		known.Add(id)
		fresh = append(fresh, ch)
	}

	categories := s.catalog.Categorize(query)
	records := make([]domain.Influencer, len(fresh))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, ch := range fresh {
		g.Go(func() error {
			videos, err := s.videos.FetchRecentVideos(ctx, ch.ID, s.opts.VideosPerChannel)
			if err != nil {
				s.logger.Warn().Err(err).Str("channel_id", ch.ID).Msg("recent videos unavailable")
				videos = nil
			}
			records[i] = domain.NewInfluencer(ch, videos, youtube.ComputeAggregates(videos), categories)
			return nil
		})
	}
	_ = g.Wait()

	return records, nil
}

func sourceError(source, query string, err error) domain.ItemResult {
	code, _ := categorizeError(err)
	return domain.ItemResult{
		Stage:   source,
		Subject: query,
		Status:  domain.StatusFailed,
		Error:   code,
		Message: err.Error(),
	}
}

// ListInfluencers lists stored influencers, optionally by category.
func (s *Service) ListInfluencers(ctx context.Context, category string, limit int) ([]domain.Influencer, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	} else if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	filter := domain.SearchFilter{Limit: limit}
	if category = strings.TrimSpace(category); category != "" {
		filter.Categories = []string{category}
	}

	items, err := s.store.SearchInfluencers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list influencers: %w", err)
	}
	return items, nil
}
