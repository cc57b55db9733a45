package entity

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusEmpty     RunStatus = "empty" // scraper returned no listings
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun records one scraper's pass through the pipeline, retries included.
type ScrapeRun struct {
	ID            uuid.UUID  `json:"id"`
	Source        string     `json:"source"`
	Status        RunStatus  `json:"status"`
	Attempts      int        `json:"attempts"`
	Scraped       int        `json:"scraped"`
	Valid         int        `json:"valid"`
	Rejected      int        `json:"rejected"`
	Saved         int        `json:"saved"`
	Missing       int        `json:"missing"`
	FailureReason string     `json:"failure_reason,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
