package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/delivery/http/handler"
	"github.com/connecta/gig-scraper/internal/delivery/http/middleware"
)

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)

	r.Get("/api/health", h.HandleHealthCheck)
	r.Get("/api/runs", h.HandleListRuns)
	r.Post("/api/runs", h.HandleTriggerRun)
	r.Get("/api/stats", h.HandleGetStats)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
