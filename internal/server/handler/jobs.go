package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sevigo/taxonomy-bot/internal/core"
	"github.com/sevigo/taxonomy-bot/internal/history"
)

const defaultJobsLimit = 50

// JobsHandler serves the recorded job history.
type JobsHandler struct {
	history history.Store
	logger  *slog.Logger
}

// NewJobsHandler creates a handler backed by the given history store.
func NewJobsHandler(hist history.Store, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{history: hist, logger: logger}
}

// Recent returns the most recently updated jobs as JSON. The optional
// "limit" query parameter caps the number of rows.
func (h *JobsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load job history", "error", err)
		http.Error(w, "Failed to load job history", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []core.JobRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		h.logger.Error("failed to encode job history", "error", err)
	}
}
