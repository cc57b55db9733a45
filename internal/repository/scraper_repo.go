package repository

import (
	"context"

	"github.com/connecta/gig-scraper/internal/entity"
)

// SiteScraper extracts the current listings of one job board.
type SiteScraper interface {
	Name() string
	// Scrape returns every listing found in one pass. An error means the
	// listing index itself could not be loaded.
	Scrape(ctx context.Context) ([]entity.Gig, error)
}

// Page is a fetched document.
type Page struct {
	URL  string
	HTML string
	// SelectorFound is false when the wait selector never appeared; the HTML is
	// still whatever the page rendered.
	SelectorFound bool
}

// PageFetcher opens isolated fetch sessions. Each session owns its own browser
// or client and must be closed by the caller.
type PageFetcher interface {
	Open(ctx context.Context) (PageSession, error)
}

type PageSession interface {
	Visit(ctx context.Context, url string, waitSelector string) (Page, error)
	Close() error
}
