package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"linkstash/internal/domain"
	"linkstash/internal/preview"
)

// PreviewResolver resolves a URL into a preview result
type PreviewResolver interface {
	Resolve(ctx context.Context, input string, opts preview.Options) *domain.PreviewResult
}

// JobProcessor handles preview extraction jobs
type JobProcessor struct {
	logger   *slog.Logger
	linkRepo domain.LinkRepository
	resolver PreviewResolver
	cache    domain.PreviewCache
	cacheTTL time.Duration
	opts     preview.Options
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(
	logger *slog.Logger,
	linkRepo domain.LinkRepository,
	resolver PreviewResolver,
	cache domain.PreviewCache,
	cacheTTL time.Duration,
	opts preview.Options,
) *JobProcessor {
	return &JobProcessor{
		logger:   logger,
		linkRepo: linkRepo,
		resolver: resolver,
		cache:    cache,
		cacheTTL: cacheTTL,
		opts:     opts,
	}
}

// ProcessPreviewExtraction resolves a preview for a saved link and writes the
// result back onto the link row
func (p *JobProcessor) ProcessPreviewExtraction(ctx context.Context, payload map[string]interface{}, logger *slog.Logger) error {
	linkIDStr, ok := payload["link_id"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid link_id in payload")
	}

	linkID, err := uuid.Parse(linkIDStr)
	if err != nil {
		return fmt.Errorf("invalid link_id format: %w", err)
	}

	url, ok := payload["url"].(string)
	if !ok {
		return fmt.Errorf("missing or invalid url in payload")
	}

	logger.Info("Processing preview extraction job",
		"link_id", linkID,
		"url", url,
	)

	if err := p.linkRepo.UpdateExtractionStatus(ctx, linkID, domain.ExtractionStatusProcessing); err != nil {
		logger.Warn("Failed to update link status to processing", "error", err)
	}

	// Resolve never errors: total failure degrades to a placeholder result
	result := p.resolver.Resolve(ctx, url, p.opts)

	if p.cache != nil {
		if err := p.cache.Set(ctx, url, result, p.cacheTTL); err != nil {
			logger.Warn("Failed to cache resolved preview", "error", err, "url", url)
		}
	}

	link, err := p.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return fmt.Errorf("failed to get link for update: %w", err)
	}

	link.ApplyPreview(result)
	if result.Success {
		link.ExtractionStatus = domain.ExtractionStatusComplete
	} else {
		// A placeholder still fills the row, but stays eligible for refresh
		link.ExtractionStatus = domain.ExtractionStatusFailed
	}

	if err := p.linkRepo.Update(ctx, link); err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	logger.Info("Preview extraction completed",
		"link_id", linkID,
		"source", result.Source,
		"success", result.Success,
	)

	return nil
}
