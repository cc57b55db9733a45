package entity

// GigStats buckets the backend's external gigs by last sighting.
type GigStats struct {
	Total          int `json:"total"`
	RecentlyActive int `json:"recently_active"`
	Stale          int `json:"stale"`
}

// CleanupReport summarises one retention pass.
type CleanupReport struct {
	Candidates int `json:"candidates"`
	Deleted    int `json:"deleted"`
	Failed     int `json:"failed"`
}
