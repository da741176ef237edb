package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/edubot/internal/store"
)

const healthCheckTimeout = 5 * time.Second

// Pinger is implemented by stores that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the status of the API and its stores.
type HealthHandler struct {
	users   store.UserStore
	history store.KV
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(users store.UserStore, history store.KV) *HealthHandler {
	return &HealthHandler{users: users, history: history}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if p, ok := h.history.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			status["status"] = "degraded"
			checks["history"] = "unreachable"
			statusCode = http.StatusServiceUnavailable
		} else {
			checks["history"] = "ok"
		}
	} else {
		checks["history"] = "ok"
	}

	if n, err := h.users.Count(ctx); err == nil {
		status["users"] = n
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the detailed health route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}
