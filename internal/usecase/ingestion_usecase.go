package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/repository"
)

// Ingestion is one full cycle: every scraper, then retention cleanup.
type Ingestion interface {
	Run(ctx context.Context) error
	IsRunning() bool
}

type ingestionUseCase struct {
	scraper  *ScraperService
	cleanup  *CleanupService
	scrapers []repository.SiteScraper
	logger   *zap.Logger
}

func NewIngestionUseCase(scraper *ScraperService, cleanup *CleanupService, scrapers []repository.SiteScraper, logger *zap.Logger) Ingestion {
	return &ingestionUseCase{scraper: scraper, cleanup: cleanup, scrapers: scrapers, logger: logger}
}

// Run scrapes all sources and then expires stale gigs. A skipped run returns
// ErrRunInProgress and performs no cleanup. A cleanup failure is logged, not
// returned, since the scrape itself completed; the stats query is skipped then.
func (uc *ingestionUseCase) Run(ctx context.Context) error {
	runs, err := uc.scraper.RunAll(ctx, uc.scrapers)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range runs {
		if r.FailureReason != "" {
			failed++
		}
	}

	report, err := uc.cleanup.CleanupStaleExternalGigs(ctx)
	if err != nil {
		uc.logger.Error("cleanup failed, skipping stats", zap.Error(err))
		uc.logger.Info("ingestion cycle finished",
			zap.Int("scrapers", len(runs)), zap.Int("failed", failed))
		return nil
	}
	stats := uc.cleanup.GetExternalGigStats(ctx)
	uc.logger.Info("ingestion cycle finished",
		zap.Int("scrapers", len(runs)), zap.Int("failed", failed),
		zap.Int("deleted", report.Deleted),
		zap.Int("total", stats.Total), zap.Int("recently_active", stats.RecentlyActive), zap.Int("stale", stats.Stale))
	return nil
}

func (uc *ingestionUseCase) IsRunning() bool { return uc.scraper.IsRunning() }
