package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/delivery/http/response"
	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/internal/repository"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 50
)

// RunTrigger starts ingestion cycles on demand.
type RunTrigger interface {
	RunNow() error
	IsRunning() bool
}

type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]entity.ScrapeRun, error)
}

type StatsProvider interface {
	GetExternalGigStats(ctx context.Context) entity.GigStats
}

type Handler struct {
	trigger RunTrigger
	history RunHistory
	stats   StatsProvider
	logger  *zap.Logger
}

func NewHandler(trigger RunTrigger, history RunHistory, stats StatsProvider, logger *zap.Logger) *Handler {
	return &Handler{trigger: trigger, history: history, stats: stats, logger: logger}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok", Running: h.trigger.IsRunning()})
}

// HandleTriggerRun starts a cycle in the background.
func (h *Handler) HandleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if err := h.trigger.RunNow(); err != nil {
		if errors.Is(err, repository.ErrRunInProgress) {
			h.writeJSONError(w, "A scrape run is already in progress", http.StatusConflict)
			return
		}
		h.logger.Error("failed to trigger run", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusAccepted, response.TriggerRunResponse{
		Status:  "success",
		Message: "Scrape run started",
	})
}

func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.history.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load run history", zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []entity.ScrapeRun{}
	}
	h.writeJSON(w, http.StatusOK, response.RunsResponse{Runs: runs})
}

func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.stats.GetExternalGigStats(r.Context()))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
