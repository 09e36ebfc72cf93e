package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"linkstash/internal/domain"
)

// instagramLogoURL is the last-resort placeholder thumbnail.
const instagramLogoURL = "https://upload.wikimedia.org/wikipedia/commons/a/a5/Instagram_icon.png"

var (
	// shortcodeRe extracts the post/reel/tv shortcode from an Instagram URL
	shortcodeRe = regexp.MustCompile(`instagram\.com/(p|reel|reels|tv)/([A-Za-z0-9_-]+)`)

	// sharedDataRe captures the embedded window._sharedData JSON blob
	sharedDataRe = regexp.MustCompile(`window\._sharedData\s*=\s*(\{.+?\});\s*</script>`)

	// displayURLRe is the raw regex fallback for thumbnail extraction
	displayURLRe = regexp.MustCompile(`"display_url"\s*:\s*"(https:[^"]+?\.jpg[^"]*?)"`)
)

// InstagramFetcher resolves previews for Instagram posts, reels and tv. It
// runs the longest strategy chain in the engine: Graph API (token-gated),
// public oEmbed, direct mobile-agent fetch, proxy relays, then a ladder of
// thumbnail-only fallbacks ending in a static logo placeholder.
type InstagramFetcher struct {
	logger     *slog.Logger
	httpClient *http.Client
	relay      *ProxyRelay

	oembedEndpoint string
	graphEndpoint  string
}

// NewInstagramFetcher creates an Instagram fetcher sharing the given relay.
func NewInstagramFetcher(logger *slog.Logger, relay *ProxyRelay) *InstagramFetcher {
	return &InstagramFetcher{
		logger:         logger,
		httpClient:     &http.Client{Timeout: directTimeout},
		relay:          relay,
		oembedEndpoint: "https://api.instagram.com/oembed",
		graphEndpoint:  "https://graph.instagram.com",
	}
}

// extractShortcode returns the media shortcode and its kind ("p", "reel",
// "tv"), or ("", "") when the URL has no recognizable post ID.
func extractShortcode(rawURL string) (string, string) {
	m := shortcodeRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", ""
	}
	kind := m[1]
	if kind == "reels" {
		kind = "reel"
	}
	return m[2], kind
}

// Fetch runs the Instagram strategy chain in priority order. Each strategy
// logs and swallows its own failure; only exhaustion of all of them produces
// the placeholder.
func (f *InstagramFetcher) Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult {
	shortcode, kind := extractShortcode(rawURL)

	// Strategy 0: Graph API. Highest priority, short-circuits everything
	// else when a caller token is present and the call succeeds.
	if opts.InstagramToken != "" {
		res, err := f.fetchGraphAPI(ctx, rawURL, shortcode, opts.InstagramToken)
		if err != nil {
			f.logger.Warn("Instagram Graph API failed",
				"url", rawURL,
				"error", err,
			)
		} else if usable(res) {
			return res
		}
	}

	// Strategy 1: public oEmbed for title + thumbnail
	if res, err := f.fetchOEmbedPreview(ctx, rawURL); err != nil {
		f.logger.Debug("Instagram oEmbed failed", "url", rawURL, "error", err)
	} else if usable(res) {
		return res
	}

	// Strategy 2: direct HTML fetch with a mobile user agent. Instagram
	// serves meta tags to mobile agents that it strips for desktop.
	if body, err := f.fetchHTMLDirect(ctx, rawURL); err != nil {
		f.logger.Debug("Instagram direct fetch failed", "url", rawURL, "error", err)
	} else if res := f.extractFromHTML(body, rawURL, shortcode, kind, domain.SourceInstagramDirect); usable(res) {
		return res
	}

	// Strategy 3: proxy relay chain
	if body, relayName, err := f.relay.Fetch(ctx, rawURL, mobileUserAgent); err != nil {
		f.logger.Debug("Instagram relay chain failed", "url", rawURL, "error", err)
	} else {
		f.logger.Info("Instagram HTML fetched via relay", "relay", relayName, "url", rawURL)
		if res := f.extractFromHTML(body, rawURL, shortcode, kind, domain.SourceInstagramProxy); usable(res) {
			return res
		}
	}

	// Textual fallback: a recognizable post ID still beats a generic label
	if shortcode != "" {
		label := "Post"
		if kind == "reel" {
			label = "Reel"
		} else if kind == "tv" {
			label = "Video"
		}
		return &domain.PreviewResult{
			Title:       fmt.Sprintf("Instagram %s %s", label, shortcode),
			Description: "View this post on Instagram",
			Image:       strPtr(instagramLogoURL),
			SiteName:    "Instagram",
			Timestamp:   domain.NewTimestamp(),
			Source:      domain.SourceInstagramTextual,
			Success:     false,
		}
	}

	// Final network-failure fallback
	return &domain.PreviewResult{
		Title:       "Instagram Content",
		Description: "View this content on Instagram",
		Image:       strPtr(instagramLogoURL),
		SiteName:    "Instagram",
		Timestamp:   domain.NewTimestamp(),
		Source:      domain.SourceInstagramFallback,
		Success:     false,
	}
}

// graphMediaResponse is the subset of Graph API media fields we request.
type graphMediaResponse struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Username      string `json:"username"`
	LikeCount     int    `json:"like_count"`
	CommentsCount int    `json:"comments_count"`
}

// fetchGraphAPI queries the authenticated Graph API for structured post data.
func (f *InstagramFetcher) fetchGraphAPI(ctx context.Context, rawURL, shortcode, token string) (*domain.PreviewResult, error) {
	if shortcode == "" {
		return nil, fmt.Errorf("no media ID in URL")
	}

	ctx, cancel := context.WithTimeout(ctx, graphAPITimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s?fields=id,caption,media_type,media_url,thumbnail_url,username,like_count,comments_count&access_token=%s",
		f.graphEndpoint, url.PathEscape(shortcode), url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("HTTP error: %d (body: %s)", resp.StatusCode, string(body))
	}

	var media graphMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, fmt.Errorf("failed to parse Graph API response: %w", err)
	}

	title := cleanInstagramTitle(media.Caption)
	if title == "" {
		title = "Instagram " + mediaTypeLabel(media.MediaType)
	}

	image := media.MediaURL
	if media.MediaType == "VIDEO" && media.ThumbnailURL != "" {
		image = media.ThumbnailURL
	}

	f.logger.Info("Instagram Graph API extraction successful",
		"url", rawURL,
		"media_type", media.MediaType,
		"likes", media.LikeCount,
	)

	return &domain.PreviewResult{
		Title:              title,
		Description:        media.Caption,
		Image:              strPtr(image),
		SiteName:           "Instagram",
		Timestamp:          domain.NewTimestamp(),
		Source:             domain.SourceInstagramGraphAPI,
		Success:            true,
		Author:             media.Username,
		Likes:              media.LikeCount,
		Comments:           media.CommentsCount,
		MediaType:          strings.ToLower(media.MediaType),
		TitleExtracted:     title != "",
		ThumbnailExtracted: image != "",
	}, nil
}

// fetchOEmbedPreview tries the public oEmbed endpoint.
func (f *InstagramFetcher) fetchOEmbedPreview(ctx context.Context, rawURL string) (*domain.PreviewResult, error) {
	oembed, err := fetchOEmbed(ctx, f.httpClient, f.oembedEndpoint, rawURL)
	if err != nil {
		return nil, err
	}

	title := cleanInstagramTitle(oembed.Title)
	if title == "" && oembed.AuthorName != "" {
		title = "Post by @" + oembed.AuthorName
	}

	return &domain.PreviewResult{
		Title:              title,
		Description:        oembed.Title,
		Image:              strPtr(oembed.ThumbnailURL),
		SiteName:           "Instagram",
		Timestamp:          domain.NewTimestamp(),
		Source:             domain.SourceInstagramOEmbed,
		Success:            true,
		Author:             oembed.AuthorName,
		TitleExtracted:     title != "",
		ThumbnailExtracted: oembed.ThumbnailURL != "",
	}, nil
}

// fetchHTMLDirect fetches the post page with a mobile user agent.
func (f *InstagramFetcher) fetchHTMLDirect(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, directTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", mobileUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	return string(body), nil
}

// extractFromHTML pulls title, description and thumbnail out of a fetched
// post page. When meta tags yield no image it descends the thumbnail
// fallback ladder: img tag scan, the embedded _sharedData blob, then the raw
// display_url regex.
func (f *InstagramFetcher) extractFromHTML(body, rawURL, shortcode, kind, source string) *domain.PreviewResult {
	tags := extractMetaTags(body)

	title := cleanInstagramTitle(tags.Title)
	image := tags.Image

	if image == "" {
		image = f.extractThumbnailFallbacks(body)
	}

	if title == "" && image == "" {
		return nil
	}

	// A post ID makes a better synthesized title than nothing
	if title == "" && shortcode != "" {
		label := "Post"
		if kind == "reel" {
			label = "Reel"
		}
		title = fmt.Sprintf("Instagram %s %s", label, shortcode)
	}

	description := tags.Description
	if description == "" {
		description = "View this post on Instagram"
	}

	return &domain.PreviewResult{
		Title:              title,
		Description:        description,
		Image:              strPtr(image),
		SiteName:           "Instagram",
		Timestamp:          domain.NewTimestamp(),
		Source:             source,
		Success:            tags.Title != "" || tags.Image != "",
		TitleExtracted:     tags.Title != "",
		ThumbnailExtracted: image != "",
	}
}

// extractThumbnailFallbacks runs the thumbnail-only strategies against a
// fetched page, in priority order.
func (f *InstagramFetcher) extractThumbnailFallbacks(body string) string {
	// Raw img tags hosted on Instagram's CDN
	for _, src := range scanImgTags(body, "cdninstagram") {
		return src
	}
	for _, src := range scanImgTags(body, "fbcdn") {
		return src
	}

	// Embedded window._sharedData JSON blob
	if displayURL := extractSharedDataDisplayURL(body); displayURL != "" {
		return displayURL
	}

	// Raw display_url regex over the whole document
	if m := displayURLRe.FindStringSubmatch(body); m != nil {
		return unescapeJSONURL(m[1])
	}

	return ""
}

// sharedData mirrors the slice of window._sharedData we care about.
type sharedData struct {
	EntryData struct {
		PostPage []struct {
			Graphql struct {
				ShortcodeMedia struct {
					DisplayURL string `json:"display_url"`
				} `json:"shortcode_media"`
			} `json:"graphql"`
		} `json:"PostPage"`
	} `json:"entry_data"`
}

// extractSharedDataDisplayURL parses the embedded _sharedData blob for
// shortcode_media.display_url.
func extractSharedDataDisplayURL(body string) string {
	m := sharedDataRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}

	var data sharedData
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return ""
	}

	if len(data.EntryData.PostPage) == 0 {
		return ""
	}
	return data.EntryData.PostPage[0].Graphql.ShortcodeMedia.DisplayURL
}

// unescapeJSONURL undoes the escaping Instagram applies inside embedded JSON.
func unescapeJSONURL(s string) string {
	s = strings.ReplaceAll(s, `\u0026`, "&")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, `\/`, "/")
	return s
}

// mediaTypeLabel maps Graph API media types onto display labels.
func mediaTypeLabel(mediaType string) string {
	switch strings.ToUpper(mediaType) {
	case "VIDEO":
		return "Video"
	case "CAROUSEL_ALBUM":
		return "Album"
	default:
		return "Post"
	}
}

// cleanInstagramTitle strips Instagram's title decoration: "on Instagram"
// suffixes, site-name suffixes, @handles and #hashtags.
func cleanInstagramTitle(title string) string {
	title = CleanTitle(title)
	title = StripHandlesAndHashtags(title)
	// Captions commonly end in a colon from "user on Instagram: caption"
	title = strings.Trim(title, `:" `)
	return strings.TrimSpace(title)
}
