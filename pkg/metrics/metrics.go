package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served by the ops API.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of ops API HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	GigsScrapedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigs_scraped_total",
			Help: "Listings extracted from job boards.",
		},
		[]string{"source"},
	)

	GigsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigs_rejected_total",
			Help: "Listings dropped by validation.",
		},
		[]string{"source"},
	)

	GigsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigs_saved_total",
			Help: "Listings accepted by the backend.",
		},
		[]string{"source"},
	)

	ScraperRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_runs_total",
			Help: "Scraper run outcomes.",
		},
		[]string{"source", "status"}, // status: succeeded, empty, failed
	)

	ScraperAttemptFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_attempt_failures_total",
			Help: "Failed scraper attempts, including ones later retried.",
		},
		[]string{"source"},
	)

	ScraperRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Wall time of a scraper run including retries.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"source"},
	)

	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Requests sent to the Connecta external-gigs API.",
		},
		[]string{"method", "status"},
	)

	CleanupDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cleanup_deleted_total",
			Help: "Stale external gigs deleted by cleanup.",
		},
	)

	ExternalGigs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "external_gigs",
			Help: "External gigs known to the backend by freshness bucket.",
		},
		[]string{"bucket"}, // total, recently_active, stale
	)
)
