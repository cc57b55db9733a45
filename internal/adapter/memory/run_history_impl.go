package memory

import (
	"context"
	"sync"

	"github.com/connecta/gig-scraper/internal/entity"
)

// DefaultHistorySize is how many runs the in-memory history keeps.
const DefaultHistorySize = 50

// RunHistoryRepoImpl keeps the most recent runs in process memory.
type RunHistoryRepoImpl struct {
	mu   sync.RWMutex
	size int
	runs []entity.ScrapeRun // oldest first
}

func NewRunHistoryRepo(size int) *RunHistoryRepoImpl {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &RunHistoryRepoImpl{size: size}
}

func (r *RunHistoryRepoImpl) Save(_ context.Context, run *entity.ScrapeRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.runs {
		if r.runs[i].ID == run.ID {
			r.runs[i] = *run
			return nil
		}
	}
	r.runs = append(r.runs, *run)
	if over := len(r.runs) - r.size; over > 0 {
		r.runs = append([]entity.ScrapeRun(nil), r.runs[over:]...)
	}
	return nil
}

func (r *RunHistoryRepoImpl) Recent(_ context.Context, limit int) ([]entity.ScrapeRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.runs) {
		limit = len(r.runs)
	}
	out := make([]entity.ScrapeRun, 0, limit)
	for i := len(r.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.runs[i])
	}
	return out, nil
}
