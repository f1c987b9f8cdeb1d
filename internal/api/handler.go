// Package api provides HTTP handlers for the chatbot API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moyam/chatbot/internal/catalog"
)

// Handler provides common handler utilities.
type Handler struct {
	catalog catalog.Catalog
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(cat catalog.Catalog) *Handler {
	return &Handler{catalog: cat}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ListScenarios handles GET /api/scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.catalog.Scenarios(r.Context())
	if err != nil {
		slog.Error("Failed to list scenarios", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list scenarios")
		return
	}
	JSON(w, http.StatusOK, scenarios)
}
