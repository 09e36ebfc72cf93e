package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"linkstash/internal/domain"
)

// QueueStatsProvider exposes per-job-type queue statistics
type QueueStatsProvider interface {
	GetQueueStats(ctx context.Context, jobType string) (map[string]int64, error)
}

type StatsHandler struct {
	logger *slog.Logger
	stats  QueueStatsProvider
}

func NewStatsHandler(logger *slog.Logger, stats QueueStatsProvider) *StatsHandler {
	return &StatsHandler{
		logger: logger,
		stats:  stats,
	}
}

func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	queues := make(map[string]map[string]int64)
	for _, jobType := range []string{domain.JobTypeExtractPreview, domain.JobTypeRefreshPreview} {
		stats, err := h.stats.GetQueueStats(ctx, jobType)
		if err != nil {
			h.logger.Error("Failed to retrieve queue stats",
				"error", err,
				"job_type", jobType,
			)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		queues[jobType] = stats
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"queues":    queues,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
