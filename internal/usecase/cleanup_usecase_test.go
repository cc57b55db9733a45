package usecase

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/entity"
)

func daysAgo(n int) *time.Time {
	t := testNow.AddDate(0, 0, -n)
	return &t
}

func newTestCleanup(repo *fakeGigRepo) *CleanupService {
	s := NewCleanupService(repo, DefaultRetentionPolicy(), zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}

func TestCleanupStaleExternalGigs(t *testing.T) {
	repo := &fakeGigRepo{stored: []entity.ExternalGig{
		{Source: "jobberman", ExternalID: "old", LastScrapedAt: daysAgo(20)},
		{Source: "jobberman", ExternalID: "fresh", LastScrapedAt: daysAgo(3)},
		{Source: "myjobmag", ExternalID: "borderline", LastScrapedAt: daysAgo(10)},
		{Source: "myjobmag", ExternalID: "never-stamped"},
		{Source: "weworkremotely", ExternalID: "locked", LastScrapedAt: daysAgo(30)},
	}}
	repo.failKeys = map[entity.GigKey]bool{{Source: "weworkremotely", ExternalID: "locked"}: true}

	report, err := newTestCleanup(repo).CleanupStaleExternalGigs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report != (entity.CleanupReport{Candidates: 2, Deleted: 1, Failed: 1}) {
		t.Errorf("report = %+v", report)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != (entity.GigKey{Source: "jobberman", ExternalID: "old"}) {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestCleanupStaleExternalGigs_ListFailure(t *testing.T) {
	repo := &fakeGigRepo{listErr: errBoom}
	if _, err := newTestCleanup(repo).CleanupStaleExternalGigs(context.Background()); err == nil {
		t.Fatal("expected error when gigs cannot be listed")
	}
}

func TestGetExternalGigStats(t *testing.T) {
	repo := &fakeGigRepo{stored: []entity.ExternalGig{
		{ExternalID: "a", LastScrapedAt: daysAgo(20)},
		{ExternalID: "b", LastScrapedAt: daysAgo(3)},
		{ExternalID: "c", LastScrapedAt: daysAgo(7)},
		{ExternalID: "d", LastScrapedAt: daysAgo(10)},
		{ExternalID: "e"},
	}}
	stats := newTestCleanup(repo).GetExternalGigStats(context.Background())
	if stats != (entity.GigStats{Total: 5, RecentlyActive: 2, Stale: 1}) {
		t.Errorf("stats = %+v", stats)
	}

	failing := &fakeGigRepo{listErr: errBoom}
	if stats := newTestCleanup(failing).GetExternalGigStats(context.Background()); stats != (entity.GigStats{}) {
		t.Errorf("stats on error = %+v, want zeros", stats)
	}
}
