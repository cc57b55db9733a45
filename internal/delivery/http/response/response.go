package response

import "github.com/connecta/gig-scraper/internal/entity"

type HealthResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

type TriggerRunResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type RunsResponse struct {
	Runs []entity.ScrapeRun `json:"runs"`
}
