package entity

import "time"

// JobType is the normalized employment type sent to the backend.
type JobType string

const (
	JobTypeFullTime  JobType = "full-time"
	JobTypePartTime  JobType = "part-time"
	JobTypeContract  JobType = "contract"
	JobTypeFreelance JobType = "freelance"
)

// GigKey is the natural key of a gig across scrape runs.
type GigKey struct {
	Source     string `json:"source"`
	ExternalID string `json:"externalId"`
}

// Gig is a listing produced by a scraper and pushed to the external-gigs API.
// Timestamps are ISO-8601 strings, the shape the backend accepts.
type Gig struct {
	ExternalID   string   `json:"external_id"`
	Source       string   `json:"source"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	LocationType string   `json:"locationType,omitempty"`
	JobScope     string   `json:"jobScope,omitempty"`
	JobType      JobType  `json:"job_type"`
	Description  string   `json:"description"`
	ApplyURL     string   `json:"apply_url"`
	PostedAt     string   `json:"posted_at"`
	Deadline     string   `json:"deadline,omitempty"`
	Skills       []string `json:"skills"`
	Category     string   `json:"category,omitempty"`
	Niche        string   `json:"niche,omitempty"`
	Experience   string   `json:"experience,omitempty"`

	LastScrapedAt  string `json:"lastScrapedAt,omitempty"`
	FirstScrapedAt string `json:"firstScrapedAt,omitempty"`
}

func (g Gig) Key() GigKey {
	return GigKey{Source: g.Source, ExternalID: g.ExternalID}
}

// ExternalGig is the backend's stored copy of a scraped gig.
type ExternalGig struct {
	ID             string     `json:"_id,omitempty"`
	ExternalID     string     `json:"externalId"`
	Source         string     `json:"source"`
	Title          string     `json:"title"`
	Company        string     `json:"company,omitempty"`
	LastScrapedAt  *time.Time `json:"lastScrapedAt,omitempty"`
	FirstScrapedAt *time.Time `json:"firstScrapedAt,omitempty"`
}

func (g ExternalGig) Key() GigKey {
	return GigKey{Source: g.Source, ExternalID: g.ExternalID}
}
