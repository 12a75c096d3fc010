package api

import (
	"context"
	"net/http"
	"time"

	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker reports database reachability.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthHandler serves GET /api/health.
type HealthHandler struct {
	checker HealthChecker
	env     string
}

// NewHealthHandler creates a HealthHandler reporting env as the environment.
func NewHealthHandler(checker HealthChecker, env string) *HealthHandler {
	return &HealthHandler{checker: checker, env: env}
}

// Health always answers 200; the db field tells whether the database is up.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	db := "connected"
	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.checker.CheckHealth(ctx); err != nil {
			logger.FromContext(r.Context()).Warn("health check: database unreachable", "error", err)
			db = "disconnected"
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ok",
		DB:     db,
		Env:    h.env,
	})
}
