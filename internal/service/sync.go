package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/catalog"
	"github.com/actuallystonmai/influencer-sync/internal/dedup"
	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/actuallystonmai/influencer-sync/internal/youtube"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type candidate struct {
	channel  domain.Channel
	term     string
	videos   []domain.Video
	fetchErr error
}

// syncRun accumulates the outcome of one SyncInfluencers call.
type syncRun struct {
	result *domain.SyncResult
	logger zerolog.Logger
	start  time.Time
}

func (s *Service) newRun() *syncRun {
	start := s.now()
	runID := uuid.NewString()
	return &syncRun{
		result: &domain.SyncResult{
			RunID:     runID,
			Terms:     []string{},
			Errors:    []string{},
			Items:     []domain.ItemResult{},
			StartedAt: start.UTC(),
		},
		logger: s.logger.With().Str("run_id", runID).Logger(),
		start:  start,
	}
}

func (r *syncRun) enter(state domain.SyncState) {
	r.result.State = state
	r.logger.Debug().Str("state", string(state)).Msg("sync state")
}

func (r *syncRun) record(item domain.ItemResult) {
	r.result.Items = append(r.result.Items, item)
	switch item.Status {
	case domain.StatusFailed:
		r.result.Summary.FailedItems++
		r.result.Errors = append(r.result.Errors, fmt.Sprintf("%s %s: %s", item.Stage, item.Subject, item.Message))
		r.logger.Warn().Str("stage", item.Stage).Str("subject", item.Subject).Str("error", item.Error).
			Msg(item.Message)
	case domain.StatusSkipped:
		r.logger.Debug().Str("stage", item.Stage).Str("subject", item.Subject).Msg(item.Message)
	}
}

func (r *syncRun) recordError(stage domain.SyncState, subject string, err error) {
	code, _ := categorizeError(err)
	r.record(domain.ItemResult{
		Stage:   string(stage),
		Subject: subject,
		Status:  domain.StatusFailed,
		Error:   code,
		Message: err.Error(),
	})
}

func (r *syncRun) finish(now time.Time) {
	r.result.FinishedAt = now.UTC()
	r.result.Summary.ProcessingTimeMs = now.Sub(r.start).Milliseconds()
}

func (r *syncRun) fail(now time.Time, err error) (*domain.SyncResult, error) {
	r.result.FailedIn = r.result.State
	r.result.State = domain.StateFailed
	r.finish(now)
	r.logger.Error().Err(err).
		Str("failed_in", string(r.result.FailedIn)).
		Int("persisted", r.result.Count).
		Msg("sync failed")
	return r.result, fmt.Errorf("sync %s failed in %s: %w", r.result.RunID, r.result.FailedIn, err)
}

// SyncInfluencers runs one full sync: select terms, resolve channels, fetch
// videos, aggregate, deduplicate and persist. Per-term and per-channel
// failures are recorded in the result; a missing credential, a datastore
// failure or cancellation fails the run. Records persisted before a failure
// stay persisted.
func (s *Service) SyncInfluencers(ctx context.Context) (*domain.SyncResult, error) {
	if !s.runMu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer s.runMu.Unlock()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	run := s.newRun()
	run.logger.Info().Msg("sync started")

	run.enter(domain.StateSelectTerms)
	terms := s.catalog.SelectTerms(s.rng, s.opts.TermCount, true)
	run.result.Terms = terms

	run.enter(domain.StateResolveChannels)
	candidates, err := s.resolveCandidates(ctx, run, terms)
	if err != nil {
		return run.fail(s.now(), err)
	}

	run.enter(domain.StateFetchVideos)
	s.fetchVideos(ctx, run, candidates)
	if err := ctx.Err(); err != nil {
		return run.fail(s.now(), err)
	}

	run.enter(domain.StateAggregate)
	records := s.aggregate(run, candidates)

	run.enter(domain.StateDeduplicate)
	accepted, err := s.deduplicate(ctx, run, records)
	if err != nil {
		return run.fail(s.now(), err)
	}

	run.enter(domain.StatePersist)
	if err := s.persist(ctx, run, accepted); err != nil {
		return run.fail(s.now(), err)
	}

	if run.result.Count > 0 {
		if err := s.searchCache.Clear(ctx); err != nil {
			run.logger.Warn().Err(err).Msg("search cache invalidation failed")
		}
	}

	run.enter(domain.StateDone)
	run.finish(s.now())
	run.logger.Info().
		Int("persisted", run.result.Count).
		Int("failed_items", run.result.Summary.FailedItems).
		Int64("duration_ms", run.result.Summary.ProcessingTimeMs).
		Msg("sync finished")
	return run.result, nil
}

// fatalUpstream reports errors that end the run instead of skipping a term.
func fatalUpstream(ctx context.Context, err error) bool {
	return errors.Is(err, domain.ErrMissingCredential) || ctx.Err() != nil
}

func (s *Service) resolveCandidates(ctx context.Context, run *syncRun, terms []string) ([]*candidate, error) {
	seen := make(map[string]bool)
	var out []*candidate
	add := func(channels []domain.Channel, term string) {
		for _, ch := range channels {
			if seen[ch.ID] {
				continue
			}
			seen[ch.ID] = true
			out = append(out, &candidate{channel: ch, term: term})
		}
	}

	if s.opts.UsePopular && len(s.catalog.PopularChannels) > 0 {
		channels, err := s.resolver.ResolveByIDs(ctx, s.catalog.PopularChannels)
		if err != nil {
			if fatalUpstream(ctx, err) {
				return nil, err
			}
			run.recordError(domain.StateResolveChannels, catalog.PopularTerm, err)
		} else {
			add(channels, catalog.PopularTerm)
			run.record(resolvedItem(catalog.PopularTerm, len(channels)))
		}
	}

	for _, term := range terms {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		channels, err := s.resolver.ResolveByQuery(ctx, term, int64(s.opts.ResultsPerTerm))
		run.result.Summary.TermsSearched++
		if err != nil {
			if fatalUpstream(ctx, err) {
				return nil, err
			}
			run.recordError(domain.StateResolveChannels, term, err)
			continue
		}
		add(channels, term)
		run.record(resolvedItem(term, len(channels)))
	}

	run.result.Summary.ChannelsResolved = len(out)
	return out, nil
}

func resolvedItem(term string, n int) domain.ItemResult {
	return domain.ItemResult{
		Stage:   string(domain.StateResolveChannels),
		Subject: term,
		Status:  domain.StatusSuccess,
		Message: fmt.Sprintf("%d channels resolved", n),
	}
}

// fetchVideos loads recent videos concurrently. A failed channel keeps an
// empty video list.
func (s *Service) fetchVideos(ctx context.Context, run *syncRun, candidates []*candidate) {
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)

	for _, c := range candidates {
		g.Go(func() error {
			c.videos, c.fetchErr = s.videos.FetchRecentVideos(ctx, c.channel.ID, s.opts.VideosPerChannel)
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range candidates {
		if c.fetchErr != nil {
			c.videos = nil
			run.recordError(domain.StateFetchVideos, c.channel.ID, c.fetchErr)
		}
	}
}

func (s *Service) aggregate(run *syncRun, candidates []*candidate) []domain.Influencer {
	records := make([]domain.Influencer, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.channel.Title) == "" {
			run.record(domain.ItemResult{
				Stage:   string(domain.StateAggregate),
				Subject: c.channel.ID,
				Status:  domain.StatusSkipped,
				Message: "channel has no title",
			})
			continue
		}
		metrics := youtube.ComputeAggregates(c.videos)
		records = append(records, domain.NewInfluencer(c.channel, c.videos, metrics, s.catalog.Categorize(c.term)))
	}
	return records
}

// deduplicate keeps records that collide neither with one accepted earlier in
// the run nor with a stored influencer. A stored match with the exact same
// name is the upsert target and is not a collision.
func (s *Service) deduplicate(ctx context.Context, run *syncRun, records []domain.Influencer) ([]domain.Influencer, error) {
	persisted, err := s.store.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored identities: %w", err)
	}
	stored := dedup.NewIndex(persisted...)
	accepted := dedup.NewIndex()

	out := make([]domain.Influencer, 0, len(records))
	for _, rec := range records {
		id := rec.Identity()

		reason := ""
		if accepted.Contains(id) {
			reason = "duplicate of a record in this run"
		} else if name, ok := storedConflict(stored, id); ok {
			reason = fmt.Sprintf("duplicate of stored influencer %q", name)
		}

		if reason != "" {
			run.result.Summary.Duplicates++
			run.record(domain.ItemResult{
				Stage:   string(domain.StateDeduplicate),
				Subject: rec.Name,
				Status:  domain.StatusSkipped,
				Message: reason,
			})
			continue
		}

		accepted.Add(id)
		out = append(out, rec)
	}
	return out, nil
}

func storedConflict(stored *dedup.Index, id domain.Identity) (string, bool) {
	for _, name := range stored.Matches(id) {
		if name != id.Name {
			return name, true
		}
	}
	return "", false
}

func (s *Service) persist(ctx context.Context, run *syncRun, records []domain.Influencer) error {
	for i := range records {
		if err := s.store.UpsertInfluencer(ctx, &records[i]); err != nil {
			return fmt.Errorf("persist %q: %w", records[i].Name, err)
		}
		run.result.Count++
		run.record(domain.ItemResult{
			Stage:   string(domain.StatePersist),
			Subject: records[i].Name,
			Status:  domain.StatusSuccess,
		})
	}
	return nil
}
