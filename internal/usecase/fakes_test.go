package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/internal/repository"
)

// fakeGigRepo is an in-memory backend keyed by (source, external id).
type fakeGigRepo struct {
	mu       sync.Mutex
	stored   []entity.ExternalGig
	upserted []entity.Gig
	deleted  []entity.GigKey
	failKeys map[entity.GigKey]bool
	listErr  error
	calls    int
}

func (r *fakeGigRepo) ListBySource(_ context.Context, source string) []entity.ExternalGig {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var out []entity.ExternalGig
	for _, g := range r.stored {
		if g.Source == source {
			out = append(out, g)
		}
	}
	return out
}

func (r *fakeGigRepo) ListAll(_ context.Context, limit int) ([]entity.ExternalGig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	if limit < len(r.stored) {
		return append([]entity.ExternalGig(nil), r.stored[:limit]...), nil
	}
	return append([]entity.ExternalGig(nil), r.stored...), nil
}

func (r *fakeGigRepo) CreateOrUpdate(_ context.Context, gig entity.Gig) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failKeys[gig.Key()] {
		return false
	}
	r.upserted = append(r.upserted, gig)
	return true
}

func (r *fakeGigRepo) Delete(_ context.Context, source, externalID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	k := entity.GigKey{Source: source, ExternalID: externalID}
	if r.failKeys[k] {
		return false
	}
	r.deleted = append(r.deleted, k)
	return true
}

func (r *fakeGigRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// stubScraper returns results[i] on the i-th call, repeating the last one.
type stubScraper struct {
	name    string
	results []scrapeResult
	calls   int
}

type scrapeResult struct {
	gigs []entity.Gig
	err  error
}

func (s *stubScraper) Name() string { return s.name }

func (s *stubScraper) Scrape(context.Context) ([]entity.Gig, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i].gigs, s.results[i].err
}

// blockingScraper parks inside Scrape until release is closed.
type blockingScraper struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingScraper) Name() string { return "blocking" }

func (b *blockingScraper) Scrape(ctx context.Context) ([]entity.Gig, error) {
	close(b.started)
	select {
	case <-b.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakeLock struct {
	free     bool
	err      error
	released bool
	extended []time.Duration
}

func (l *fakeLock) Acquire(context.Context, time.Duration) (bool, error) { return l.free, l.err }

func (l *fakeLock) Extend(_ context.Context, ttl time.Duration) (bool, error) {
	l.extended = append(l.extended, ttl)
	return true, nil
}

func (l *fakeLock) Release(context.Context) error {
	l.released = true
	return nil
}

var (
	_ repository.GigRepository = (*fakeGigRepo)(nil)
	_ repository.SiteScraper   = (*stubScraper)(nil)
	_ repository.RunLock       = (*fakeLock)(nil)

	errBoom = errors.New("boom")
)
