package domain

import (
	"strings"
	"time"
)

// PreviewResult is the link preview returned to callers. Every resolution
// produces one of these - failed extractions degrade to a placeholder with
// Success=false rather than surfacing an error.
type PreviewResult struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	SiteName    string  `json:"siteName"`
	Timestamp   string  `json:"timestamp"`
	Source      string  `json:"source"`
	Success     bool    `json:"success"`

	// Extension fields produced only by richer strategies
	Author             string `json:"author,omitempty"`
	Likes              int    `json:"likes,omitempty"`
	Comments           int    `json:"comments,omitempty"`
	MediaType          string `json:"mediaType,omitempty"`
	TitleExtracted     bool   `json:"titleExtracted,omitempty"`
	ThumbnailExtracted bool   `json:"thumbnailExtracted,omitempty"`
	Enhanced           bool   `json:"enhanced,omitempty"`
	Error              string `json:"error,omitempty"`
}

// Source provenance tags. Anything ending in _fallback or _placeholder
// implies Success=false; the enhancer enforces this.
const (
	SourceYouTubeOEmbed       = "youtube_oembed"
	SourceYouTubeFallback     = "youtube_fallback"
	SourceInstagramGraphAPI   = "instagram_graph_api"
	SourceInstagramOEmbed     = "instagram_oembed"
	SourceInstagramDirect     = "instagram_direct"
	SourceInstagramProxy      = "instagram_proxy"
	SourceInstagramTextual    = "instagram_textual_fallback"
	SourceInstagramFallback   = "instagram_fallback"
	SourceFacebookProxy       = "facebook_proxy"
	SourceFacebookFallback    = "facebook_fallback"
	SourceTikTokOEmbed        = "tiktok_oembed"
	SourceTikTokFallback      = "tiktok_fallback"
	SourceMicrolink           = "microlink"
	SourceOpenGraph           = "opengraph"
	SourceSmartPlaceholder    = "smart_placeholder"
	SourcePreviewServer       = "preview_server"
	SourceRateLimitedFallback = "rate_limited_fallback"
	SourceTimeoutFallback     = "timeout_fallback"
	SourceURLFallback         = "url_fallback"
)

// IsFallbackSource reports whether a provenance tag names a degraded path.
func IsFallbackSource(source string) bool {
	return strings.HasSuffix(source, "_fallback") || strings.HasSuffix(source, "_placeholder")
}

// NewTimestamp returns the creation timestamp format used on PreviewResult.
func NewTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
