// Package preview implements the multi-strategy link preview resolution
// engine: platform routing, ordered extraction strategy chains, proxy relay
// fallbacks, and the placeholder synthesis that guarantees every resolution
// terminates with a displayable result.
package preview

import (
	"time"

	"linkstash/internal/domain"
)

// Options carries the per-call configuration recognized across the pipeline.
type Options struct {
	// InstagramToken enables the Graph API strategy, which short-circuits
	// every other Instagram strategy when it succeeds
	InstagramToken string

	// PreviewServerURL points at a trusted first-party resolver tried before
	// the public strategy chains
	PreviewServerURL string

	// Timeout overrides the per-hostname budget when > 0
	Timeout time.Duration
}

// User agents. Instagram serves meta tags to the mobile agent that it strips
// for desktop browsers.
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

// Call-class timeouts, tuned shorter for proxy relays and longer for direct
// or official-API calls.
const (
	oembedTimeout    = 8 * time.Second
	directTimeout    = 10 * time.Second
	relayTimeout     = 6 * time.Second
	graphAPITimeout  = 12 * time.Second
	microlinkTimeout = 15 * time.Second
)

// usable reports whether a strategy result is good enough to short-circuit
// the chain: minimally a non-empty title, or for thumbnail-only strategies,
// a non-nil image.
func usable(res *domain.PreviewResult) bool {
	if res == nil {
		return false
	}
	return res.Title != "" || res.Image != nil
}

// strPtr returns a pointer to its argument; nil for the empty string so that
// Image stays null rather than becoming "".
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
