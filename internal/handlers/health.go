// Package handlers exposes the ops HTTP surface: a health endpoint
// aggregating the state of the bot's external collaborators.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// HealthChecker is anything that can report whether it is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ConnChecker is a checker without a context (connection-state checks).
type ConnChecker interface {
	HealthCheck() error
}

// Handler serves the ops endpoints. Optional components may be nil and are
// reported as disabled.
type Handler struct {
	vision    HealthChecker
	publisher ConnChecker
	archive   HealthChecker
}

// NewHandler creates the ops handler.
func NewHandler(vision HealthChecker, publisher ConnChecker, archive HealthChecker) *Handler {
	return &Handler{
		vision:    vision,
		publisher: publisher,
		archive:   archive,
	}
}

// HealthCheckHandler returns health status for all configured components.
func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{}
	healthy := true

	if h.vision != nil {
		checks["vision"] = "ok"
		if err := h.vision.HealthCheck(ctx); err != nil {
			checks["vision"] = err.Error()
			healthy = false
		}
	}

	if h.publisher != nil {
		checks["rabbitmq"] = "ok"
		if err := h.publisher.HealthCheck(); err != nil {
			checks["rabbitmq"] = err.Error()
			healthy = false
		}
	} else {
		checks["rabbitmq"] = "disabled"
	}

	if h.archive != nil {
		checks["archive"] = "ok"
		if err := h.archive.HealthCheck(ctx); err != nil {
			checks["archive"] = err.Error()
			healthy = false
		}
	} else {
		checks["archive"] = "disabled"
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
