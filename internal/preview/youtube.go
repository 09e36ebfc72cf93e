package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	"linkstash/internal/domain"
)

// videoIDPatterns cover the five known YouTube URL shapes. A video ID is
// always exactly 11 characters.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/v/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
}

// YouTubeFetcher resolves previews for YouTube URLs: official oEmbed first,
// then a deterministic thumbnail fallback built from the video ID.
type YouTubeFetcher struct {
	logger         *slog.Logger
	httpClient     *http.Client
	oembedEndpoint string
}

// NewYouTubeFetcher creates a YouTube fetcher against the official oEmbed
// endpoint.
func NewYouTubeFetcher(logger *slog.Logger) *YouTubeFetcher {
	return &YouTubeFetcher{
		logger:         logger,
		httpClient:     &http.Client{Timeout: oembedTimeout},
		oembedEndpoint: "https://www.youtube.com/oembed",
	}
}

// extractVideoID returns the 11-character video ID, or "" if the URL matches
// none of the known shapes.
func extractVideoID(rawURL string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// Fetch runs the YouTube strategy chain.
func (f *YouTubeFetcher) Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult {
	videoID := extractVideoID(rawURL)

	oembed, err := fetchOEmbed(ctx, f.httpClient, f.oembedEndpoint, rawURL)
	if err == nil && oembed.Title != "" {
		f.logger.Info("YouTube oEmbed extraction successful",
			"url", rawURL,
			"title", oembed.Title,
		)

		description := "Watch this video on YouTube"
		if oembed.AuthorName != "" {
			description = fmt.Sprintf("By %s", oembed.AuthorName)
		}

		image := oembed.ThumbnailURL
		if image == "" && videoID != "" {
			image = maxresThumbnailURL(videoID)
		}

		return &domain.PreviewResult{
			Title:              oembed.Title,
			Description:        description,
			Image:              strPtr(image),
			SiteName:           "YouTube",
			Timestamp:          domain.NewTimestamp(),
			Source:             domain.SourceYouTubeOEmbed,
			Success:            true,
			Author:             oembed.AuthorName,
			MediaType:          "video",
			TitleExtracted:     true,
			ThumbnailExtracted: image != "",
		}
	}
	if err != nil {
		f.logger.Warn("YouTube oEmbed failed, using thumbnail fallback",
			"url", rawURL,
			"error", err,
		)
	}

	// Deterministic fallback: the thumbnail endpoint works even when oEmbed
	// is down, as long as we have a video ID
	fallback := &domain.PreviewResult{
		Title:       "YouTube Video",
		Description: "Watch this video on YouTube",
		SiteName:    "YouTube",
		Timestamp:   domain.NewTimestamp(),
		Source:      domain.SourceYouTubeFallback,
		Success:     false,
		MediaType:   "video",
	}
	if videoID != "" {
		fallback.Image = strPtr(maxresThumbnailURL(videoID))
		fallback.ThumbnailExtracted = true
	}
	return fallback
}

func maxresThumbnailURL(videoID string) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID)
}
