package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/adapter/memory"
	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/internal/repository"
)

var testNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

type sleepRecorder struct{ delays []time.Duration }

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestService(repo repository.GigRepository, lock repository.RunLock, retries int) (*ScraperService, *memory.RunHistoryRepoImpl, *sleepRecorder) {
	history := memory.NewRunHistoryRepo(0)
	svc := NewScraperService(repo, history, lock, ScraperOptions{MaxRetries: retries, RetryDelay: time.Second}, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	svc.validator.now = svc.now
	rec := &sleepRecorder{}
	svc.sleep = rec.sleep
	return svc, history, rec
}

func scrapedGig(source, id, title string) entity.Gig {
	return entity.Gig{
		ExternalID:  id,
		Source:      source,
		Title:       title,
		Company:     "Acme",
		Description: "Design and operate backend services in Go.",
		ApplyURL:    "https://example.com/jobs/" + id,
		JobType:     entity.JobTypeFullTime,
		Deadline:    "2026-06-15T00:00:00Z",
		Skills:      []string{},
	}
}

func TestRunAll_Pipeline(t *testing.T) {
	repo := &fakeGigRepo{stored: []entity.ExternalGig{
		{Source: "jobberman", ExternalID: "1"},
		{Source: "jobberman", ExternalID: "gone"},
		{Source: "myjobmag", ExternalID: "other-source"},
	}}
	invalid := scrapedGig("jobberman", "3", "")
	sc := &stubScraper{name: "jobberman", results: []scrapeResult{{gigs: []entity.Gig{
		scrapedGig("jobberman", "1", "Backend Developer"),
		scrapedGig("jobberman", "2", "Mobile Engineer"),
		invalid,
	}}}}
	svc, history, _ := newTestService(repo, nil, 3)

	runs, err := svc.RunAll(context.Background(), []repository.SiteScraper{sc})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs", len(runs))
	}
	r := runs[0]
	if r.Status != entity.RunStatusSucceeded || r.Scraped != 3 || r.Valid != 2 || r.Rejected != 1 || r.Saved != 2 || r.Missing != 1 {
		t.Errorf("unexpected run: %+v", r)
	}
	if len(repo.upserted) != 2 {
		t.Fatalf("upserted %d gigs, want 2", len(repo.upserted))
	}
	g := repo.upserted[0]
	if g.LastScrapedAt != "2026-06-01T09:30:00.000Z" || g.FirstScrapedAt != g.LastScrapedAt {
		t.Errorf("timestamps not enriched: %q / %q", g.LastScrapedAt, g.FirstScrapedAt)
	}
	if g.Category != "Technology & Programming" {
		t.Errorf("gig not classified: %q", g.Category)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("missing gigs deleted during scrape: %v", repo.deleted)
	}
	recorded, _ := history.Recent(context.Background(), 10)
	if len(recorded) != 1 || recorded[0].Status != entity.RunStatusSucceeded || recorded[0].FinishedAt == nil {
		t.Errorf("history = %+v", recorded)
	}
	if svc.IsRunning() {
		t.Error("service still running after RunAll")
	}
}

func TestRunAll_RetriesWithLinearBackoff(t *testing.T) {
	repo := &fakeGigRepo{}
	sc := &stubScraper{name: "jobberman", results: []scrapeResult{
		{err: errBoom},
		{err: errBoom},
		{gigs: []entity.Gig{scrapedGig("jobberman", "1", "Backend Developer")}},
	}}
	svc, _, rec := newTestService(repo, nil, 3)

	runs, _ := svc.RunAll(context.Background(), []repository.SiteScraper{sc})
	if runs[0].Status != entity.RunStatusSucceeded || runs[0].Attempts != 3 {
		t.Errorf("unexpected run: %+v", runs[0])
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(rec.delays) != len(want) || rec.delays[0] != want[0] || rec.delays[1] != want[1] {
		t.Errorf("delays = %v, want %v", rec.delays, want)
	}
}

func TestRunAll_ExhaustedScraperDoesNotStopOthers(t *testing.T) {
	repo := &fakeGigRepo{}
	broken := &stubScraper{name: "jobberman", results: []scrapeResult{{err: repository.ErrNavigationFailed}}}
	ok := &stubScraper{name: "weworkremotely", results: []scrapeResult{{gigs: []entity.Gig{scrapedGig("weworkremotely", "1", "Go Engineer")}}}}
	svc, _, rec := newTestService(repo, nil, 2)

	runs, err := svc.RunAll(context.Background(), []repository.SiteScraper{broken, ok})
	if err != nil {
		t.Fatal(err)
	}
	if runs[0].Status != entity.RunStatusFailed || runs[0].Attempts != 2 || runs[0].FailureReason == "" {
		t.Errorf("broken run: %+v", runs[0])
	}
	if broken.calls != 2 || len(rec.delays) != 1 {
		t.Errorf("scrape calls %d, sleeps %d", broken.calls, len(rec.delays))
	}
	if runs[1].Status != entity.RunStatusSucceeded || runs[1].Saved != 1 {
		t.Errorf("second run: %+v", runs[1])
	}
}

func TestRunAll_EmptyScrapeSkipsBackend(t *testing.T) {
	repo := &fakeGigRepo{}
	sc := &stubScraper{name: "myjobmag", results: []scrapeResult{{}}}
	svc, _, _ := newTestService(repo, nil, 3)

	runs, _ := svc.RunAll(context.Background(), []repository.SiteScraper{sc})
	if runs[0].Status != entity.RunStatusEmpty || sc.calls != 1 {
		t.Errorf("run %+v after %d calls", runs[0], sc.calls)
	}
	if repo.callCount() != 0 {
		t.Errorf("backend called %d times for an empty scrape", repo.callCount())
	}
}

func TestRunAll_SecondCallWhileRunningIsSkipped(t *testing.T) {
	repo := &fakeGigRepo{}
	blocker := &blockingScraper{started: make(chan struct{}), release: make(chan struct{})}
	svc, _, _ := newTestService(repo, nil, 1)

	done := make(chan error, 1)
	go func() {
		_, err := svc.RunAll(context.Background(), []repository.SiteScraper{blocker})
		done <- err
	}()
	<-blocker.started

	if !svc.IsRunning() {
		t.Fatal("service not running while a scraper is in flight")
	}
	other := &stubScraper{name: "jobberman", results: []scrapeResult{{gigs: []entity.Gig{scrapedGig("jobberman", "1", "Dev")}}}}
	runs, err := svc.RunAll(context.Background(), []repository.SiteScraper{other})
	if !errors.Is(err, repository.ErrRunInProgress) || runs != nil {
		t.Fatalf("second RunAll = %v, %v; want ErrRunInProgress", runs, err)
	}
	if other.calls != 0 || repo.callCount() != 0 {
		t.Errorf("skipped run did work: %d scrapes, %d backend calls", other.calls, repo.callCount())
	}

	close(blocker.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if svc.IsRunning() {
		t.Error("guard not released")
	}
}

func TestRunAll_SharedLock(t *testing.T) {
	repo := &fakeGigRepo{}
	sc := &stubScraper{name: "jobberman", results: []scrapeResult{{}}}

	held := &fakeLock{free: false}
	svc, _, _ := newTestService(repo, held, 1)
	if _, err := svc.RunAll(context.Background(), []repository.SiteScraper{sc}); !errors.Is(err, repository.ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}
	if sc.calls != 0 || held.released {
		t.Error("work done or lock released without owning it")
	}

	free := &fakeLock{free: true}
	svc, _, _ = newTestService(repo, free, 1)
	if _, err := svc.RunAll(context.Background(), []repository.SiteScraper{sc}); err != nil {
		t.Fatal(err)
	}
	if !free.released {
		t.Error("lock not released after run")
	}

	broken := &fakeLock{err: errBoom}
	svc, _, _ = newTestService(repo, broken, 1)
	if _, err := svc.RunAll(context.Background(), []repository.SiteScraper{sc}); err != nil {
		t.Fatalf("lock outage should not block scraping: %v", err)
	}
}

func TestRunAll_RenewsLockBetweenScrapers(t *testing.T) {
	repo := &fakeGigRepo{}
	scrapers := []repository.SiteScraper{
		&stubScraper{name: "jobberman", results: []scrapeResult{{}}},
		&stubScraper{name: "myjobmag", results: []scrapeResult{{}}},
		&stubScraper{name: "weworkremotely", results: []scrapeResult{{}}},
	}
	lock := &fakeLock{free: true}
	svc, _, _ := newTestService(repo, lock, 1)
	svc.opts.LockTTL = 30 * time.Minute

	if _, err := svc.RunAll(context.Background(), scrapers); err != nil {
		t.Fatal(err)
	}
	if len(lock.extended) != 2 {
		t.Fatalf("extended %d times, want 2", len(lock.extended))
	}
	for _, ttl := range lock.extended {
		if ttl != 30*time.Minute {
			t.Errorf("extended with ttl %s, want 30m", ttl)
		}
	}

	broken := &fakeLock{err: errBoom}
	svc, _, _ = newTestService(repo, broken, 1)
	if _, err := svc.RunAll(context.Background(), scrapers); err != nil {
		t.Fatal(err)
	}
	if len(broken.extended) != 0 {
		t.Error("extended a lock that was never acquired")
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	repo := &fakeGigRepo{}
	sc := &stubScraper{name: "jobberman", results: []scrapeResult{{err: errBoom}}}
	svc, _, rec := newTestService(repo, nil, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runs, err := svc.RunAll(ctx, []repository.SiteScraper{sc})
	if !errors.Is(err, context.Canceled) || len(runs) != 0 {
		t.Errorf("RunAll = %v, %v", runs, err)
	}
	if sc.calls != 0 || len(rec.delays) != 0 {
		t.Error("cancelled run did work")
	}
}
