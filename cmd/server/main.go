package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/actuallystonmai/influencer-sync/internal/cache"
	"github.com/actuallystonmai/influencer-sync/internal/catalog"
	"github.com/actuallystonmai/influencer-sync/internal/config"
	"github.com/actuallystonmai/influencer-sync/internal/handler"
	"github.com/actuallystonmai/influencer-sync/internal/logging"
	"github.com/actuallystonmai/influencer-sync/internal/repository"
	"github.com/actuallystonmai/influencer-sync/internal/retry"
	"github.com/actuallystonmai/influencer-sync/internal/router"
	"github.com/actuallystonmai/influencer-sync/internal/scheduler"
	"github.com/actuallystonmai/influencer-sync/internal/service"
	"github.com/actuallystonmai/influencer-sync/internal/youtube"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", "influencer-sync")
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.LogLevel, "influencer-sync")

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse database config")
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("database not ready")
	}
	log.Info().Msg("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if command == "migrate-down" {
		if err := repository.MigrateDown(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate down")
		}
		log.Info().Msg("migrations dropped")
		return
	}

	if err := repository.MigrateUp(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate up")
	}

	// ------------ Redis ---------------
	redisClient := connectRedis(ctx, cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// ------------ Service ---------------
	svc, err := buildService(ctx, cfg, repository.New(pool), redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build service")
	}

	if command == "sync" {
		result, err := svc.SyncInfluencers(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("sync failed")
		}
		log.Info().Str("run_id", result.RunID).Int("persisted", result.Count).
			Strs("errors", result.Errors).Msg("sync complete")
		return
	}
	if command != "serve" {
		log.Fatal().Str("command", command).Msg("unknown command, expected serve, sync or migrate-down")
	}

	// ------------ Setup Seed Data ---------------
	if cfg.SeedOnEmpty {
		go seedIfEmpty(ctx, svc)
	}

	// ------------ Scheduler ---------------
	if cfg.SyncSchedule != "" {
		sched, err := scheduler.New(cfg.SyncSchedule, svc, logging.Component("scheduler"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create scheduler")
		}
		sched.Start()
		defer sched.Stop()
	}

	// ---------------- Server --------------------
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(handler.NewHandler(svc)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func buildService(ctx context.Context, cfg *config.Config, repo *repository.Repository, redisClient *redis.Client) (*service.Service, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	// A missing key leaves upstream nil; resolvers then fail with a
	// configuration error on first use.
	var upstream youtube.Upstream
	api, err := youtube.NewAPI(ctx, youtube.APIConfig{APIKey: cfg.GoogleAPIKey, Endpoint: cfg.YouTubeEndpoint})
	if err != nil {
		log.Warn().Err(err).Msg("youtube api unavailable")
	} else {
		upstream = api
	}

	mem := cache.NewMemory(cfg.CacheMaxEntries)
	policy := retry.Policy{
		MaxRetries: cfg.RetryMaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		Classifier: youtube.IsQuotaError,
	}

	var searchCache service.SearchCache
	if redisClient != nil {
		searchCache = cache.NewSearchCache(redisClient, cfg.SearchCacheTTL)
	}

	return service.NewService(service.Deps{
		Store:       repo,
		SearchCache: searchCache,
		Cache:       mem,
		Resolver:    youtube.NewResolver(upstream, mem, policy, youtube.ResolverConfig{VerifiedThreshold: cfg.VerifiedThreshold}),
		Videos:      youtube.NewVideoFetcher(upstream, mem, policy, youtube.VideoConfig{}),
		Catalog:     cat,
	}, service.Options{
		TermCount:        cfg.SyncTermCount,
		ResultsPerTerm:   cfg.SyncResultsPerTerm,
		VideosPerChannel: cfg.SyncVideosPerChannel,
		Concurrency:      cfg.SyncConcurrency,
		UsePopular:       cfg.SyncUsePopular,
		SearchInterval:   cfg.SearchInterval,
		Timeout:          cfg.SyncTimeout,
	}), nil
}

// connectRedis returns nil when redis is disabled or unreachable; search
// results are then not cached.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		log.Info().Msg("redis disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn().Err(err).Msg("invalid REDIS_URL, search cache disabled")
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, search cache disabled")
		client.Close()
		return nil
	}
	log.Info().Msg("connected to Redis")
	return client
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		log.Info().Msgf("waiting for database... (%d/30)", i+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func seedIfEmpty(ctx context.Context, svc *service.Service) {
	count, err := svc.CountInfluencers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to check seed")
		return
	}
	if count > 0 {
		log.Info().Msgf("database already seeded (%d influencers), skipping", count)
		return
	}
	result, err := svc.SyncInfluencers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("seed sync failed")
		return
	}
	log.Info().Int("persisted", result.Count).Msg("seed sync complete")
}
