package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/internal/repository"
	"github.com/connecta/gig-scraper/pkg/metrics"
)

const (
	stateIdle int32 = iota
	stateRunning
)

// scrapedAtLayout matches the millisecond ISO-8601 form the backend stores.
const scrapedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// ScraperOptions tunes the retry policy and the optional cross-process lock.
type ScraperOptions struct {
	MaxRetries int
	RetryDelay time.Duration
	// LockTTL bounds how long a crashed process can hold the shared run lock.
	// The lock is renewed before every scraper after the first.
	LockTTL time.Duration
}

// ScraperService runs scrapers through validate, classify, enrich, diff and
// persist. At most one RunAll executes at a time; an overlapping call is
// skipped, not queued.
type ScraperService struct {
	repo       repository.GigRepository
	history    repository.RunHistoryRepository
	lock       repository.RunLock
	validator  *JobValidator
	classifier *CategoryClassifier
	diff       *DiffService
	opts       ScraperOptions
	logger     *zap.Logger

	state atomic.Int32
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewScraperService wires the pipeline. history and lock may be nil.
func NewScraperService(
	repo repository.GigRepository,
	history repository.RunHistoryRepository,
	lock repository.RunLock,
	opts ScraperOptions,
	logger *zap.Logger,
) *ScraperService {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Hour
	}
	return &ScraperService{
		repo:       repo,
		history:    history,
		lock:       lock,
		validator:  NewJobValidator(logger),
		classifier: NewCategoryClassifier(logger),
		diff:       NewDiffService(),
		opts:       opts,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// IsRunning reports whether a RunAll is in progress in this process.
func (s *ScraperService) IsRunning() bool {
	return s.state.Load() == stateRunning
}

// RunAll runs each scraper in turn and returns one record per scraper started.
// It returns ErrRunInProgress without doing any work when another run holds
// the guard. A scraper that exhausts its retries does not stop the others.
func (s *ScraperService) RunAll(ctx context.Context, scrapers []repository.SiteScraper) ([]entity.ScrapeRun, error) {
	if !s.state.CompareAndSwap(stateIdle, stateRunning) {
		s.logger.Warn("scraping already in progress, skipping")
		return nil, repository.ErrRunInProgress
	}
	defer s.state.Store(stateIdle)

	held := false
	if s.lock != nil {
		ok, err := s.lock.Acquire(ctx, s.opts.LockTTL)
		switch {
		case err != nil:
			s.logger.Warn("run lock unavailable, continuing without it", zap.Error(err))
		case !ok:
			s.logger.Warn("another process is scraping, skipping")
			return nil, repository.ErrRunInProgress
		default:
			held = true
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
					s.logger.Warn("failed to release run lock", zap.Error(err))
				}
			}()
		}
	}

	s.logger.Info("starting scraping job", zap.Int("scrapers", len(scrapers)))
	runs := make([]entity.ScrapeRun, 0, len(scrapers))
	for i, sc := range scrapers {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("scraping job cancelled", zap.Error(err))
			return runs, err
		}
		if held && i > 0 {
			s.extendLock(ctx)
		}
		runs = append(runs, s.runScraper(ctx, sc))
	}
	s.logger.Info("scraping job completed")
	return runs, ctx.Err()
}

// extendLock renews the shared lock so a long cycle keeps it past one ttl.
func (s *ScraperService) extendLock(ctx context.Context) {
	ok, err := s.lock.Extend(ctx, s.opts.LockTTL)
	switch {
	case err != nil:
		s.logger.Warn("failed to extend run lock", zap.Error(err))
	case !ok:
		s.logger.Warn("run lock expired before renewal, another process may start")
	}
}

func (s *ScraperService) runScraper(ctx context.Context, sc repository.SiteScraper) entity.ScrapeRun {
	source := sc.Name()
	log := s.logger.With(zap.String("source", source))
	start := s.now()
	run := &entity.ScrapeRun{ID: uuid.New(), Source: source, Status: entity.RunStatusRunning, StartedAt: start}
	s.saveRun(ctx, run)
	log.Info("running scraper", zap.String("run_id", run.ID.String()))

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		run.Attempts = attempt
		lastErr = s.processOnce(ctx, sc, run)
		if lastErr == nil {
			break
		}
		metrics.ScraperAttemptFailuresTotal.WithLabelValues(source).Inc()
		log.Error("scraper attempt failed", zap.Int("attempt", attempt), zap.Int("max_retries", s.opts.MaxRetries), zap.Error(lastErr))
		if ctx.Err() != nil || attempt == s.opts.MaxRetries {
			break
		}
		delay := s.opts.RetryDelay * time.Duration(attempt)
		log.Info("retrying scraper", zap.Duration("delay", delay))
		if err := s.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	if lastErr != nil {
		run.Status = entity.RunStatusFailed
		run.FailureReason = lastErr.Error()
		log.Error("scraper failed", zap.Int("attempts", run.Attempts), zap.Error(lastErr))
	}
	finished := s.now()
	run.FinishedAt = &finished
	s.saveRun(ctx, run)

	metrics.ScraperRunsTotal.WithLabelValues(source, string(run.Status)).Inc()
	metrics.ScraperRunDuration.WithLabelValues(source).Observe(finished.Sub(start).Seconds())
	return *run
}

// processOnce is one full attempt. Counts on run are overwritten each attempt.
func (s *ScraperService) processOnce(ctx context.Context, sc repository.SiteScraper, run *entity.ScrapeRun) error {
	source := sc.Name()
	log := s.logger.With(zap.String("source", source))

	scraped, err := sc.Scrape(ctx)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", source, err)
	}
	run.Scraped = len(scraped)
	metrics.GigsScrapedTotal.WithLabelValues(source).Add(float64(len(scraped)))
	log.Info("scraped gigs", zap.Int("count", len(scraped)))
	if len(scraped) == 0 {
		log.Warn("no gigs found")
		run.Status = entity.RunStatusEmpty
		return nil
	}

	batch := s.validator.ValidateBatch(scraped)
	for _, inv := range batch.Invalid {
		log.Debug("rejected gig", zap.String("title", inv.Gig.Title), zap.Strings("errors", inv.Errors))
	}
	metrics.GigsRejectedTotal.WithLabelValues(source).Add(float64(len(batch.Invalid)))

	classified := s.classifier.ClassifyBatch(batch.Valid)
	enriched := enrich(classified, s.now())

	previous := s.repo.ListBySource(ctx, source)
	diff := s.diff.Compare(enriched, previous)

	log.Info("creating/updating gigs", zap.Int("count", len(diff.ToCreateOrUpdate)))
	saved := 0
	for _, g := range diff.ToCreateOrUpdate {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.repo.CreateOrUpdate(ctx, g) {
			saved++
		}
	}
	metrics.GigsSavedTotal.WithLabelValues(source).Add(float64(saved))

	// Missing listings are left for the retention cleanup to expire.
	if len(diff.ToDelete) > 0 {
		log.Info("gigs no longer found in source, left for cleanup", zap.Int("count", len(diff.ToDelete)))
	}

	run.Valid = len(batch.Valid)
	run.Rejected = len(batch.Invalid)
	run.Saved = saved
	run.Missing = len(diff.ToDelete)
	run.Status = entity.RunStatusSucceeded
	log.Info("completed scraper",
		zap.Int("saved", saved), zap.Int("attempted", len(diff.ToCreateOrUpdate)),
		zap.Int("rejected", run.Rejected), zap.Int("missing", run.Missing))
	return nil
}

// enrich stamps both sighting timestamps; the backend keeps the original
// firstScrapedAt for gigs it already has.
func enrich(gigs []entity.Gig, now time.Time) []entity.Gig {
	stamp := now.UTC().Format(scrapedAtLayout)
	out := make([]entity.Gig, len(gigs))
	for i, g := range gigs {
		g.LastScrapedAt = stamp
		g.FirstScrapedAt = stamp
		out[i] = g
	}
	return out
}

func (s *ScraperService) saveRun(ctx context.Context, run *entity.ScrapeRun) {
	if s.history == nil {
		return
	}
	if err := s.history.Save(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn("failed to record scrape run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}

// RecentRuns returns the latest recorded runs, or none without a history store.
func (s *ScraperService) RecentRuns(ctx context.Context, limit int) ([]entity.ScrapeRun, error) {
	if s.history == nil {
		return []entity.ScrapeRun{}, nil
	}
	return s.history.Recent(ctx, limit)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
