package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// DependencyPing reports whether a backing dependency is reachable.
type DependencyPing func(ctx context.Context) error

type HealthHandler struct {
	logger *slog.Logger
	pings  map[string]DependencyPing
}

func NewHealthHandler(logger *slog.Logger, pings map[string]DependencyPing) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		pings:  pings,
	}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	deps := make(map[string]string, len(h.pings))
	for name, ping := range h.pings {
		if err := ping(ctx); err != nil {
			h.logger.Warn("Dependency health check failed", "dependency", name, "error", err)
			deps[name] = "unreachable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       status,
		"timestamp":    time.Now().Format(time.RFC3339),
		"dependencies": deps,
	})
}
