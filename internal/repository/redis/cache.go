package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"linkstash/internal/domain"
)

// Cache key prefix for resolved previews, keyed by normalized URL
const previewKeyPrefix = "preview:"

// Fallback previews cache for a short window only, so a transient outage
// does not pin a placeholder for the full TTL.
const fallbackCacheTTL = 10 * time.Minute

// PreviewCache implements the domain.PreviewCache interface using Redis
type PreviewCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPreviewCache creates a new Redis preview cache
func NewPreviewCache(client *redis.Client, logger *slog.Logger) *PreviewCache {
	return &PreviewCache{
		client: client,
		logger: logger,
	}
}

// Get returns the cached preview for a normalized URL, or nil on miss
func (c *PreviewCache) Get(ctx context.Context, normalizedURL string) (*domain.PreviewResult, error) {
	key := previewKeyPrefix + normalizedURL

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached preview: %w", err)
	}

	var preview domain.PreviewResult
	if err := json.Unmarshal([]byte(data), &preview); err != nil {
		// Corrupt entry: drop it and treat as a miss
		c.logger.Warn("Dropping corrupt cached preview",
			"url", normalizedURL,
			"error", err,
		)
		c.client.Del(ctx, key)
		return nil, nil
	}

	c.logger.Debug("Preview cache hit", "url", normalizedURL, "source", preview.Source)
	return &preview, nil
}

// Set stores a preview with the given TTL. Fallback results get a shorter
// TTL regardless of what the caller asked for.
func (c *PreviewCache) Set(ctx context.Context, normalizedURL string, preview *domain.PreviewResult, ttl time.Duration) error {
	if preview == nil {
		return nil
	}

	if domain.IsFallbackSource(preview.Source) && ttl > fallbackCacheTTL {
		ttl = fallbackCacheTTL
	}

	data, err := json.Marshal(preview)
	if err != nil {
		return fmt.Errorf("failed to marshal preview for cache: %w", err)
	}

	key := previewKeyPrefix + normalizedURL
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache preview: %w", err)
	}

	c.logger.Debug("Preview cached",
		"url", normalizedURL,
		"source", preview.Source,
		"ttl", ttl,
	)

	return nil
}
