package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/FOLIOGEN/foliogen/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// GenerationHistory is the read side of the generation store. Both the
// Postgres repository and the in-memory store satisfy it.
type GenerationHistory interface {
	List(ctx context.Context, query models.GenerationQuery) ([]models.GenerationRecord, error)
	Get(ctx context.Context, id string) (*models.GenerationRecord, error)
	Stats(ctx context.Context) (*models.GenerationStats, error)
}

// AdminHandler serves the operator views over generation telemetry.
type AdminHandler struct {
	history GenerationHistory
	logger  *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(history GenerationHistory, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		history: history,
		logger:  logger,
	}
}

// ListGenerations handles GET /api/admin/generations
func (h *AdminHandler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := models.GenerationQuery{
		Provider: r.URL.Query().Get("provider"),
		Status:   r.URL.Query().Get("status"),
		Limit:    defaultListLimit,
		Offset:   0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			if limit > maxListLimit {
				limit = maxListLimit
			}
			query.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			query.Offset = offset
		}
	}

	generations, err := h.history.List(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list generations", "error", err)
		http.Error(w, "Failed to list generations", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generations": generations,
		"count":       len(generations),
		"limit":       query.Limit,
		"offset":      query.Offset,
	})
}

// GetGeneration handles GET /api/admin/generations/:id
func (h *AdminHandler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 || parts[4] == "" {
		http.Error(w, "Generation ID required", http.StatusBadRequest)
		return
	}
	id := parts[4]

	record, err := h.history.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get generation", "id", id, "error", err)
		http.Error(w, "Failed to get generation", http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Generation not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.history.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to get generation stats", "error", err)
		http.Error(w, "Failed to get generation stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
