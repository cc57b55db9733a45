package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/internal/repository"
)

const defaultExperience = "Any"

// Engine scrapes any board described by a SiteProfile. Every Scrape call opens
// its own fetch session and visits pages strictly one after another.
type Engine struct {
	profile    SiteProfile
	fetcher    repository.PageFetcher
	politeness time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine creates a scraper for profile. politeness is the pause after each
// detail page.
func NewEngine(profile SiteProfile, fetcher repository.PageFetcher, politeness time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		profile:    profile,
		fetcher:    fetcher,
		politeness: politeness,
		logger:     logger.With(zap.String("source", profile.Name)),
		now:        time.Now,
	}
}

func (e *Engine) Name() string { return e.profile.Name }

// Scrape loads the listing index and returns every live listing. Only a failure
// to open the session or load the index is returned as an error; a broken
// detail page skips that listing.
func (e *Engine) Scrape(ctx context.Context) ([]entity.Gig, error) {
	session, err := e.fetcher.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: open session: %w", e.profile.Name, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			e.logger.Warn("failed to close fetch session", zap.Error(err))
		}
	}()

	e.logger.Info("loading listing page", zap.String("url", e.profile.ListURL))
	page, err := session.Visit(ctx, e.profile.ListURL, e.profile.WaitSelector)
	if err != nil {
		return nil, fmt.Errorf("%s: load listing page: %w", e.profile.Name, err)
	}
	if !page.SelectorFound {
		e.logger.Warn("listing selector not found, continuing with rendered page", zap.String("selector", e.profile.WaitSelector))
	}

	if !e.profile.followsLinks() {
		return e.scrapeListPage(page)
	}
	return e.scrapeDetailPages(ctx, session, page)
}

func (e *Engine) scrapeListPage(page repository.Page) ([]entity.Gig, error) {
	items, err := extractListItems(page.HTML, e.profile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.profile.Name, err)
	}
	e.logger.Info("found listings", zap.Int("count", len(items)))

	now := e.now()
	gigs := make([]entity.Gig, 0, len(items))
	for _, it := range items {
		it.Description = listDescription(it)
		gigs = append(gigs, e.buildGig(it, DefaultDeadlineFor(now, e.profile.Defaults.DeadlineDays), now))
	}
	e.logger.Info("scraped listings", zap.Int("count", len(gigs)))
	return gigs, nil
}

func (e *Engine) scrapeDetailPages(ctx context.Context, session repository.PageSession, page repository.Page) ([]entity.Gig, error) {
	links, err := ExtractLinks(page.HTML, e.profile.BaseURL, e.profile.LinkSelector)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.profile.Name, err)
	}
	e.logger.Info("found listings, visiting detail pages", zap.Int("count", len(links)))

	gigs := make([]entity.Gig, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		gig, ok := e.scrapeDetail(ctx, session, link)
		if ok {
			gigs = append(gigs, gig)
		}
		if err := e.pause(ctx); err != nil {
			return nil, err
		}
	}
	e.logger.Info("scraped active listings", zap.Int("count", len(gigs)))
	return gigs, nil
}

func (e *Engine) scrapeDetail(ctx context.Context, session repository.PageSession, link string) (entity.Gig, bool) {
	page, err := session.Visit(ctx, link, e.profile.DetailWaitSelector)
	if err != nil {
		e.logger.Warn("skipping listing, detail page failed", zap.String("url", link), zap.Error(err))
		return entity.Gig{}, false
	}
	it, err := extractDetail(page.HTML, e.profile)
	if err != nil {
		e.logger.Warn("skipping listing, detail page unreadable", zap.String("url", link), zap.Error(err))
		return entity.Gig{}, false
	}
	it.Link = link

	now := e.now()
	deadline := DefaultDeadlineFor(now, e.profile.Defaults.DeadlineDays)
	switch {
	case it.DeadlineFound && it.Deadline.Before(now):
		e.logger.Info("skipping expired listing", zap.String("title", it.Title), zap.String("deadline", it.DeadlineRaw))
		return entity.Gig{}, false
	case it.DeadlineFound:
		deadline = it.Deadline
	case it.DeadlineRaw != "":
		e.logger.Debug("unparseable deadline, using default", zap.String("url", link), zap.String("raw", it.DeadlineRaw))
	default:
		e.logger.Debug("no deadline on page, using default", zap.String("url", link))
	}
	return e.buildGig(it, deadline, now), true
}

func (e *Engine) buildGig(it listing, deadline time.Time, now time.Time) entity.Gig {
	d := e.profile.Defaults
	title := pickNonEmpty(it.Title, "Untitled")
	location := pickNonEmpty(it.Location, d.Location)
	return entity.Gig{
		ExternalID:   GenerateID(it.Link),
		Source:       e.profile.Name,
		Title:        title,
		Company:      pickNonEmpty(it.Company, d.Company, "Unknown"),
		Location:     location,
		LocationType: locationType(location),
		JobScope:     jobScope(location),
		JobType:      NormalizeJobType(pickNonEmpty(it.JobType, d.JobType)),
		Description:  CleanDescription(pickNonEmpty(it.Description, title), DefaultDescriptionLength),
		ApplyURL:     it.Link,
		PostedAt:     now.UTC().Format(time.RFC3339),
		Deadline:     deadline.UTC().Format(time.RFC3339),
		Skills:       []string{},
		Category:     d.Category,
		Experience:   defaultExperience,
	}
}

func (e *Engine) pause(ctx context.Context) error {
	if e.politeness <= 0 {
		return nil
	}
	t := time.NewTimer(e.politeness)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DefaultDeadlineFor applies a profile's horizon, falling back to 14 days.
func DefaultDeadlineFor(now time.Time, days int) time.Time {
	if days <= 0 {
		return DefaultDeadline(now)
	}
	return now.AddDate(0, 0, days)
}

// listDescription stands in for the body list-only boards never show.
func listDescription(it listing) string {
	desc := it.Title
	if it.Company != "" {
		desc += " at " + it.Company
	}
	if it.Location != "" {
		desc += " (" + it.Location + ")"
	}
	return desc
}
