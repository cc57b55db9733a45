package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/internal/repository"
	"github.com/connecta/gig-scraper/pkg/metrics"
)

// cleanupPageSize is the single page fetched per pass; gigs beyond it wait for
// the next pass.
const cleanupPageSize = 10000

// RetentionPolicy defines when an unseen gig expires.
type RetentionPolicy struct {
	StaleAfter   time.Duration // deleted once unseen this long
	ActiveWithin time.Duration // counted as recently active
}

func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{StaleAfter: 14 * 24 * time.Hour, ActiveWithin: 7 * 24 * time.Hour}
}

// CleanupService enforces the retention window on the backend's external gigs.
type CleanupService struct {
	repo   repository.GigRepository
	policy RetentionPolicy
	logger *zap.Logger
	now    func() time.Time
}

func NewCleanupService(repo repository.GigRepository, policy RetentionPolicy, logger *zap.Logger) *CleanupService {
	return &CleanupService{repo: repo, policy: policy, logger: logger, now: time.Now}
}

// CleanupStaleExternalGigs deletes every gig whose lastScrapedAt is older than
// the stale window, one request at a time. Gigs never stamped are left alone.
// Only a failure to list the gigs is returned; failed deletes are counted.
func (s *CleanupService) CleanupStaleExternalGigs(ctx context.Context) (entity.CleanupReport, error) {
	s.logger.Info("starting cleanup of stale external gigs")
	gigs, err := s.repo.ListAll(ctx, cleanupPageSize)
	if err != nil {
		s.logger.Error("error during cleanup", zap.Error(err))
		return entity.CleanupReport{}, fmt.Errorf("list external gigs: %w", err)
	}

	cutoff := s.now().Add(-s.policy.StaleAfter)
	var stale []entity.ExternalGig
	for _, g := range gigs {
		if g.LastScrapedAt != nil && g.LastScrapedAt.Before(cutoff) {
			stale = append(stale, g)
		}
	}
	s.logger.Info("found stale external gigs", zap.Int("count", len(stale)), zap.Duration("stale_after", s.policy.StaleAfter))

	report := entity.CleanupReport{Candidates: len(stale)}
	for _, g := range stale {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if s.repo.Delete(ctx, g.Source, g.ExternalID) {
			report.Deleted++
			metrics.CleanupDeletedTotal.Inc()
			s.logger.Debug("deleted stale gig", zap.String("title", g.Title), zap.Time("last_seen", *g.LastScrapedAt))
			continue
		}
		report.Failed++
		s.logger.Error("failed to delete stale gig", zap.String("source", g.Source), zap.String("external_id", g.ExternalID))
	}

	s.logger.Info("cleanup complete", zap.Int("deleted", report.Deleted), zap.Int("candidates", report.Candidates), zap.Int("failed", report.Failed))
	return report, nil
}

// GetExternalGigStats buckets the stored gigs by last sighting. Gigs seen
// between the active and stale windows count toward Total only. Errors yield
// zero stats.
func (s *CleanupService) GetExternalGigStats(ctx context.Context) entity.GigStats {
	gigs, err := s.repo.ListAll(ctx, cleanupPageSize)
	if err != nil {
		s.logger.Error("error getting stats", zap.Error(err))
		return entity.GigStats{}
	}

	now := s.now()
	activeSince := now.Add(-s.policy.ActiveWithin)
	staleBefore := now.Add(-s.policy.StaleAfter)
	stats := entity.GigStats{Total: len(gigs)}
	for _, g := range gigs {
		if g.LastScrapedAt == nil {
			continue
		}
		switch seen := *g.LastScrapedAt; {
		case !seen.Before(activeSince):
			stats.RecentlyActive++
		case seen.Before(staleBefore):
			stats.Stale++
		}
	}

	metrics.ExternalGigs.WithLabelValues("total").Set(float64(stats.Total))
	metrics.ExternalGigs.WithLabelValues("recently_active").Set(float64(stats.RecentlyActive))
	metrics.ExternalGigs.WithLabelValues("stale").Set(float64(stats.Stale))
	return stats
}
