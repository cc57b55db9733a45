package repository

import (
	"context"

	"github.com/connecta/gig-scraper/internal/entity"
)

// RunHistoryRepository records the outcome of scraper runs.
type RunHistoryRepository interface {
	// Save creates or updates a run record by ID.
	Save(ctx context.Context, run *entity.ScrapeRun) error
	// Recent returns the latest runs, newest first.
	Recent(ctx context.Context, limit int) ([]entity.ScrapeRun, error)
}
