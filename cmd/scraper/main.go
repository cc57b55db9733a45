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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/adapter/chromedp_fetcher"
	"github.com/connecta/gig-scraper/internal/adapter/colly_fetcher"
	"github.com/connecta/gig-scraper/internal/adapter/connecta"
	"github.com/connecta/gig-scraper/internal/adapter/memory"
	"github.com/connecta/gig-scraper/internal/adapter/postgres"
	redis_adapter "github.com/connecta/gig-scraper/internal/adapter/redis"
	"github.com/connecta/gig-scraper/internal/delivery/http/handler"
	"github.com/connecta/gig-scraper/internal/delivery/http/router"
	"github.com/connecta/gig-scraper/internal/proxy"
	"github.com/connecta/gig-scraper/internal/repository"
	"github.com/connecta/gig-scraper/internal/scheduler"
	"github.com/connecta/gig-scraper/internal/scraper"
	"github.com/connecta/gig-scraper/internal/usecase"
	"github.com/connecta/gig-scraper/pkg/config"
	"github.com/connecta/gig-scraper/pkg/logger"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 on completion or signal, 1 on a fatal error.
func run() int {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Scrapers ---
	profiles, err := scraper.LoadProfiles(cfg.SiteProfilesFile)
	if err != nil {
		log.Error("could not load site profiles", zap.Error(err))
		return 1
	}
	profiles, err = scraper.SelectProfiles(profiles, cfg.Enabled())
	if err != nil {
		log.Error("invalid ENABLED_SCRAPERS", zap.Error(err))
		return 1
	}
	proxies := proxy.NewManager(cfg.Proxies())
	browser := chromedp_fetcher.NewChromedpFetcher(cfg.PageLoadTimeout(), proxies, log)
	static := colly_fetcher.NewCollyFetcher(cfg.PageLoadTimeout(), proxies, log)

	scrapers := make([]repository.SiteScraper, 0, len(profiles))
	for _, p := range profiles {
		var fetcher repository.PageFetcher = static
		if p.Render {
			fetcher = browser
		}
		scrapers = append(scrapers, scraper.NewEngine(p, fetcher, cfg.PolitenessDelay(), log))
	}

	// --- Repositories ---
	client := connecta.NewClient(cfg.ConnectaAPIURL, cfg.ConnectaAPIKey, cfg.HTTPTimeout(), cfg.BackendRPS, log)

	var history repository.RunHistoryRepository = memory.NewRunHistoryRepo(memory.DefaultHistorySize)
	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("unable to connect to database", zap.Error(err))
			return 1
		}
		defer dbpool.Close()
		pgHistory := postgres.NewRunHistoryRepo(dbpool)
		if err := pgHistory.EnsureSchema(ctx); err != nil {
			log.Error("unable to prepare run history table", zap.Error(err))
			return 1
		}
		history = pgHistory
		log.Info("run history stored in postgres")
	}

	var lock repository.RunLock
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("unable to connect to redis", zap.Error(err))
			return 1
		}
		lock = redis_adapter.NewRunLock(rdb, cfg.ConnectaAPIURL)
		log.Info("shared run lock enabled", zap.String("redis", cfg.RedisAddr))
	}

	// --- Use Cases ---
	scraperSvc := usecase.NewScraperService(client, history, lock, usecase.ScraperOptions{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay(),
		LockTTL:    cfg.RunLockTTL(),
	}, log)
	cleanupSvc := usecase.NewCleanupService(client, usecase.RetentionPolicy{
		StaleAfter:   cfg.StaleAfter(),
		ActiveWithin: cfg.ActiveWithin(),
	}, log)
	ingestion := usecase.NewIngestionUseCase(scraperSvc, cleanupSvc, scrapers, log)

	if cfg.Mode == config.ModeOnce {
		return runOnce(ctx, ingestion, log)
	}
	return runScheduled(ctx, cfg, ingestion, scraperSvc, cleanupSvc, log)
}

func runOnce(ctx context.Context, ingestion usecase.Ingestion, log *zap.Logger) int {
	log.Info("running one ingestion cycle")
	err := ingestion.Run(ctx)
	switch {
	case err == nil:
		log.Info("ingestion cycle complete")
		return 0
	case errors.Is(err, context.Canceled):
		log.Info("interrupted, exiting")
		return 0
	case errors.Is(err, repository.ErrRunInProgress):
		log.Warn("another ingestion cycle is running, skipped")
		return 0
	default:
		log.Error("ingestion cycle failed", zap.Error(err))
		return 1
	}
}

func runScheduled(ctx context.Context, cfg *config.Config, ingestion usecase.Ingestion,
	scraperSvc *usecase.ScraperService, cleanupSvc *usecase.CleanupService, log *zap.Logger) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(ingestion, cfg.CronSpec(), log)
	if err := sched.Start(ctx, true); err != nil {
		log.Error("could not start scheduler", zap.Error(err))
		return 1
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(sched, scraperSvc, cleanupSvc, log)
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, log),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting ops server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		log.Error("could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		code = 1
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}
	cancel()
	sched.Stop()
	log.Info("scheduler exiting")
	return code
}
