package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Syncer runs one influencer sync.
type Syncer interface {
	SyncInfluencers(ctx context.Context) (*domain.SyncResult, error)
}

// Scheduler triggers syncs on a cron schedule. Runs are cancelled on Stop.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	syncer  Syncer
	logger  zerolog.Logger

	lifeCtx    context.Context
	lifeCancel context.CancelFunc
	wg         sync.WaitGroup
}

func New(schedule string, syncer Syncer, logger zerolog.Logger) (*Scheduler, error) {
	lifeCtx, lifeCancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       cron.New(),
		syncer:     syncer,
		logger:     logger,
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
	}

	id, err := s.cron.AddFunc(schedule, s.runOnce)
	if err != nil {
		lifeCancel()
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Time("next_run", s.Next()).Msg("sync scheduler started")
}

// Stop cancels a running sync and waits for it to return.
func (s *Scheduler) Stop() {
	s.lifeCancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// Next reports when the next sync fires, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) runOnce() {
	s.wg.Add(1)
	defer s.wg.Done()

	result, err := s.syncer.SyncInfluencers(s.lifeCtx)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		s.logger.Info().Msg("scheduled sync skipped: another sync is running")
	case err != nil:
		evt := s.logger.Error().Err(err)
		if result != nil {
			evt = evt.Str("run_id", result.RunID).Int("persisted", result.Count)
		}
		evt.Msg("scheduled sync failed")
	default:
		s.logger.Info().Str("run_id", result.RunID).Int("persisted", result.Count).
			Int("failed_items", result.Summary.FailedItems).Msg("scheduled sync finished")
	}
}
