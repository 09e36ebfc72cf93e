package preview

import (
	"context"
	"log/slog"

	"linkstash/internal/domain"
)

// facebookPlaceholderURL is the static fallback thumbnail.
const facebookPlaceholderURL = "https://upload.wikimedia.org/wikipedia/commons/5/51/Facebook_f_logo_%282019%29.svg"

// FacebookFetcher resolves previews for Facebook URLs. Direct fetches are
// skipped entirely - Facebook blocks them - so the chain goes straight to
// the proxy relays, then meta extraction, then an img scan restricted to
// facebook-hosted images, then a static placeholder.
type FacebookFetcher struct {
	logger *slog.Logger
	relay  *ProxyRelay
}

// NewFacebookFetcher creates a Facebook fetcher sharing the given relay.
func NewFacebookFetcher(logger *slog.Logger, relay *ProxyRelay) *FacebookFetcher {
	return &FacebookFetcher{
		logger: logger,
		relay:  relay,
	}
}

// Fetch runs the Facebook strategy chain.
func (f *FacebookFetcher) Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult {
	body, relayName, err := f.relay.Fetch(ctx, rawURL, browserUserAgent)
	if err != nil {
		f.logger.Warn("Facebook relay chain failed",
			"url", rawURL,
			"error", err,
		)
		return f.fallback()
	}

	f.logger.Info("Facebook HTML fetched via relay", "relay", relayName, "url", rawURL)

	tags := extractMetaTags(body)
	title := cleanFacebookTitle(tags.Title)
	image := tags.Image

	if image == "" {
		// Restrict the img scan to facebook-hosted URLs so we never pick up
		// relay chrome or ads
		for _, src := range scanImgTags(body, "fbcdn") {
			image = src
			break
		}
		if image == "" {
			for _, src := range scanImgTags(body, "facebook.com") {
				image = src
				break
			}
		}
	}

	if title == "" && image == "" {
		return f.fallback()
	}

	description := tags.Description
	if description == "" {
		description = "View this post on Facebook"
	}

	return &domain.PreviewResult{
		Title:              title,
		Description:        description,
		Image:              strPtr(image),
		SiteName:           "Facebook",
		Timestamp:          domain.NewTimestamp(),
		Source:             domain.SourceFacebookProxy,
		Success:            title != "",
		TitleExtracted:     title != "",
		ThumbnailExtracted: image != "",
	}
}

func (f *FacebookFetcher) fallback() *domain.PreviewResult {
	return &domain.PreviewResult{
		Title:       "Facebook Content",
		Description: "View this content on Facebook",
		Image:       strPtr(facebookPlaceholderURL),
		SiteName:    "Facebook",
		Timestamp:   domain.NewTimestamp(),
		Source:      domain.SourceFacebookFallback,
		Success:     false,
	}
}

// cleanFacebookTitle strips Facebook-specific suffixes on top of the shared
// cleanup.
func cleanFacebookTitle(title string) string {
	return CleanTitle(title)
}
