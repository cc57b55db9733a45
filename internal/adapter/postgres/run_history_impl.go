package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/connecta/gig-scraper/internal/entity"
)

const schema = `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id             UUID PRIMARY KEY,
		source         TEXT NOT NULL,
		status         TEXT NOT NULL,
		attempts       INT NOT NULL DEFAULT 0,
		scraped        INT NOT NULL DEFAULT 0,
		valid          INT NOT NULL DEFAULT 0,
		rejected       INT NOT NULL DEFAULT 0,
		saved          INT NOT NULL DEFAULT 0,
		missing        INT NOT NULL DEFAULT 0,
		failure_reason TEXT NOT NULL DEFAULT '',
		started_at     TIMESTAMPTZ NOT NULL,
		finished_at    TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS scrape_runs_started_at_idx ON scrape_runs (started_at DESC);
`

// RunHistoryRepoImpl stores scrape runs in PostgreSQL.
type RunHistoryRepoImpl struct {
	db *pgxpool.Pool
}

func NewRunHistoryRepo(db *pgxpool.Pool) *RunHistoryRepoImpl {
	return &RunHistoryRepoImpl{db: db}
}

// EnsureSchema creates the scrape_runs table when missing.
func (r *RunHistoryRepoImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create scrape_runs schema: %w", err)
	}
	return nil
}

// Save inserts the run or updates the row with the same id.
func (r *RunHistoryRepoImpl) Save(ctx context.Context, run *entity.ScrapeRun) error {
	query := `
		INSERT INTO scrape_runs (id, source, status, attempts, scraped, valid, rejected, saved, missing, failure_reason, started_at, finished_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			scraped = EXCLUDED.scraped,
			valid = EXCLUDED.valid,
			rejected = EXCLUDED.rejected,
			saved = EXCLUDED.saved,
			missing = EXCLUDED.missing,
			failure_reason = EXCLUDED.failure_reason,
			finished_at = EXCLUDED.finished_at;
	`
	_, err := r.db.Exec(ctx, query,
		run.ID.String(),
		run.Source,
		string(run.Status),
		run.Attempts,
		run.Scraped,
		run.Valid,
		run.Rejected,
		run.Saved,
		run.Missing,
		run.FailureReason,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save scrape run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (r *RunHistoryRepoImpl) Recent(ctx context.Context, limit int) ([]entity.ScrapeRun, error) {
	query := `
		SELECT id::text, source, status, attempts, scraped, valid, rejected, saved, missing, failure_reason, started_at, finished_at
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query scrape runs: %w", err)
	}
	defer rows.Close()

	var runs []entity.ScrapeRun
	for rows.Next() {
		var (
			run      entity.ScrapeRun
			id       string
			status   string
			finished *time.Time
		)
		if err := rows.Scan(&id, &run.Source, &status, &run.Attempts, &run.Scraped, &run.Valid,
			&run.Rejected, &run.Saved, &run.Missing, &run.FailureReason, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan scrape run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		run.Status = entity.RunStatus(status)
		run.FinishedAt = finished
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
