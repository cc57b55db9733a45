package usecase

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/internal/repository"
)

func TestIngestion_RunScrapesThenCleansUp(t *testing.T) {
	repo := &fakeGigRepo{stored: []entity.ExternalGig{
		{Source: "jobberman", ExternalID: "old", LastScrapedAt: daysAgo(20)},
	}}
	sc := &stubScraper{name: "jobberman", results: []scrapeResult{{gigs: []entity.Gig{scrapedGig("jobberman", "1", "Backend Developer")}}}}
	svc, _, _ := newTestService(repo, nil, 1)
	uc := NewIngestionUseCase(svc, newTestCleanup(repo), []repository.SiteScraper{sc}, zap.NewNop())

	if err := uc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(repo.upserted) != 1 || len(repo.deleted) != 1 {
		t.Errorf("upserted %d deleted %d", len(repo.upserted), len(repo.deleted))
	}
	if uc.IsRunning() {
		t.Error("still running")
	}
}

func TestIngestion_CleanupFailureIsNotFatal(t *testing.T) {
	repo := &fakeGigRepo{listErr: errBoom}
	sc := &stubScraper{name: "jobberman", results: []scrapeResult{{}}}
	svc, _, _ := newTestService(repo, nil, 1)
	uc := NewIngestionUseCase(svc, newTestCleanup(repo), []repository.SiteScraper{sc}, zap.NewNop())

	if err := uc.Run(context.Background()); err != nil {
		t.Fatalf("Run = %v", err)
	}
	// Only the cleanup listing reaches the backend; stats are not queried.
	if n := repo.callCount(); n != 1 {
		t.Errorf("backend calls = %d, want 1", n)
	}
}
