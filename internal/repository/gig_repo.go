package repository

import (
	"context"

	"github.com/connecta/gig-scraper/internal/entity"
)

// GigRepository is the backend's store of external gigs, the source of truth
// every scrape run is diffed against.
type GigRepository interface {
	// ListBySource returns the stored gigs of one source. Failures are logged
	// and yield an empty slice.
	ListBySource(ctx context.Context, source string) []entity.ExternalGig
	// ListAll fetches up to limit external gigs across all sources in one page.
	ListAll(ctx context.Context, limit int) ([]entity.ExternalGig, error)
	// CreateOrUpdate upserts a gig by its natural key and reports success.
	CreateOrUpdate(ctx context.Context, gig entity.Gig) bool
	// Delete removes a gig by natural key. A gig that is already gone counts as deleted.
	Delete(ctx context.Context, source, externalID string) bool
}
