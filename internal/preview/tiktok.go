package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"linkstash/internal/domain"
)

// tiktokPlaceholderURL is the static fallback thumbnail.
const tiktokPlaceholderURL = "https://upload.wikimedia.org/wikipedia/commons/3/34/Ionicons_logo-tiktok.svg"

// TikTokFetcher resolves previews for TikTok URLs with a single
// authoritative oEmbed call, delegating to the generic enhanced-metadata
// path on failure.
type TikTokFetcher struct {
	logger         *slog.Logger
	httpClient     *http.Client
	oembedEndpoint string
	generic        *GenericFetcher
}

// NewTikTokFetcher creates a TikTok fetcher that falls back to the given
// generic fetcher.
func NewTikTokFetcher(logger *slog.Logger, generic *GenericFetcher) *TikTokFetcher {
	return &TikTokFetcher{
		logger:         logger,
		httpClient:     &http.Client{Timeout: oembedTimeout},
		oembedEndpoint: "https://www.tiktok.com/oembed",
		generic:        generic,
	}
}

// Fetch runs the TikTok strategy chain.
func (f *TikTokFetcher) Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult {
	oembed, err := fetchOEmbed(ctx, f.httpClient, f.oembedEndpoint, rawURL)
	if err == nil && (oembed.Title != "" || oembed.ThumbnailURL != "") {
		f.logger.Info("TikTok oEmbed extraction successful",
			"url", rawURL,
			"title", oembed.Title,
		)

		title := CleanTitle(oembed.Title)
		description := "Watch this video on TikTok"
		if oembed.AuthorName != "" {
			description = fmt.Sprintf("By %s on TikTok", oembed.AuthorName)
		}

		return &domain.PreviewResult{
			Title:              title,
			Description:        description,
			Image:              strPtr(oembed.ThumbnailURL),
			SiteName:           "TikTok",
			Timestamp:          domain.NewTimestamp(),
			Source:             domain.SourceTikTokOEmbed,
			Success:            true,
			Author:             oembed.AuthorName,
			MediaType:          "video",
			TitleExtracted:     title != "",
			ThumbnailExtracted: oembed.ThumbnailURL != "",
		}
	}
	if err != nil {
		f.logger.Warn("TikTok oEmbed failed, delegating to generic path",
			"url", rawURL,
			"error", err,
		)
	}

	// Delegate to the shared enhanced-metadata resolver
	if res := f.generic.Fetch(ctx, rawURL, opts); usable(res) && res.Success {
		res.SiteName = "TikTok"
		return res
	}

	return &domain.PreviewResult{
		Title:       "TikTok Video",
		Description: "Watch this video on TikTok",
		Image:       strPtr(tiktokPlaceholderURL),
		SiteName:    "TikTok",
		Timestamp:   domain.NewTimestamp(),
		Source:      domain.SourceTikTokFallback,
		Success:     false,
		MediaType:   "video",
	}
}
