package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/service"
	"github.com/esgai/esgsearch/internal/store"
)

const version = "1.0.0"

// HealthHandler handles GET /health with dependency checks
type HealthHandler struct {
	client       *service.SearchClient
	recorder     store.Recorder
	persistence  bool
	agentEnabled bool
}

// NewHealthHandler creates the handler. persistence reports whether recorder
// is backed by a database worth pinging.
func NewHealthHandler(client *service.SearchClient, recorder store.Recorder, persistence, agentEnabled bool) *HealthHandler {
	return &HealthHandler{
		client:       client,
		recorder:     recorder,
		persistence:  persistence,
		agentEnabled: agentEnabled,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	// Use a short timeout for health checks so they don't block
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.client != nil && h.client.Configured() {
		checks["search_backend"] = "configured"
	} else {
		checks["search_backend"] = "not configured"
		overallStatus = "degraded"
	}

	if h.persistence && h.recorder != nil {
		if err := h.recorder.Ping(ctx); err != nil {
			checks["postgres"] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks["postgres"] = "ok"
		}
	} else {
		checks["postgres"] = "disabled"
	}

	if h.agentEnabled {
		checks["agent"] = "enabled"
	} else {
		checks["agent"] = "disabled"
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}
