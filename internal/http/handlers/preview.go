package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"linkstash/internal/domain"
	"linkstash/internal/pkg/urlnorm"
	"linkstash/internal/preview"
)

// PreviewResolver resolves free-form input into a preview result
type PreviewResolver interface {
	Resolve(ctx context.Context, input string, opts preview.Options) *domain.PreviewResult
}

type PreviewHandler struct {
	logger   *slog.Logger
	resolver PreviewResolver
	cache    domain.PreviewCache
	cacheTTL time.Duration
	baseOpts preview.Options
}

// PreviewRequest is the resolve-preview request body
type PreviewRequest struct {
	URL             string `json:"url"`
	UserAccessToken string `json:"user_access_token,omitempty"`
}

// PreviewResponse wraps the resolved preview
type PreviewResponse struct {
	Success bool                  `json:"success"`
	Cached  bool                  `json:"cached"`
	Data    *domain.PreviewResult `json:"data"`
}

func NewPreviewHandler(logger *slog.Logger, resolver PreviewResolver, cache domain.PreviewCache, cacheTTL time.Duration, baseOpts preview.Options) *PreviewHandler {
	return &PreviewHandler{
		logger:   logger,
		resolver: resolver,
		cache:    cache,
		cacheTTL: cacheTTL,
		baseOpts: baseOpts,
	}
}

// HandleResolve resolves a preview for the posted URL, cache-first
func (h *PreviewHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	// Tokened resolutions bypass the shared cache: their results can carry
	// account-scoped data
	cacheKey := ""
	if h.cache != nil && req.UserAccessToken == "" {
		if normalized, err := urlnorm.Normalize(req.URL); err == nil {
			cacheKey = normalized
		}
	}

	if cacheKey != "" {
		cached, err := h.cache.Get(ctx, cacheKey)
		if err != nil {
			h.logger.Warn("Preview cache lookup failed", "error", err, "url", req.URL)
		} else if cached != nil {
			h.writeJSON(w, &PreviewResponse{
				Success: cached.Success,
				Cached:  true,
				Data:    cached,
			})
			return
		}
	}

	opts := h.baseOpts
	if req.UserAccessToken != "" {
		opts.InstagramToken = req.UserAccessToken
	}
	result := h.resolver.Resolve(ctx, req.URL, opts)

	if cacheKey != "" {
		if err := h.cache.Set(ctx, cacheKey, result, h.cacheTTL); err != nil {
			h.logger.Warn("Failed to cache preview", "error", err, "url", req.URL)
		}
	}

	h.writeJSON(w, &PreviewResponse{
		Success: result.Success,
		Data:    result,
	})
}

func (h *PreviewHandler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
