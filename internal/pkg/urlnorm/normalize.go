package urlnorm

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are stripped during normalization so that the same shared
// link always produces the same cache key.
var trackingParams = []string{
	// Google Analytics
	"utm_source",
	"utm_medium",
	"utm_campaign",
	"utm_content",
	"utm_term",
	// Platform-specific tracking
	"si",     // Spotify/YouTube share ID
	"fbclid", // Facebook click ID
	"gclid",  // Google click ID
	"ref",    // Generic referrer
	"source", // Generic source
	// Additional tracking params
	"msclkid", // Microsoft click ID
	"igshid",  // Instagram share ID
	"igsh",    // Instagram share ID (newer form)
}

// Normalize creates a canonical form of a URL for cache keys and
// deduplication. It handles:
// - Adding https:// protocol if missing
// - Lowercasing the domain
// - Removing www. prefix
// - Removing tracking parameters (utm_*, si, fbclid, ref, source)
// - Validating the URL structure
func Normalize(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("empty URL")
	}

	if !strings.HasPrefix(strings.ToLower(rawURL), "http://") &&
		!strings.HasPrefix(strings.ToLower(rawURL), "https://") {
		if strings.Contains(rawURL, ".") {
			rawURL = "https://" + rawURL
		} else {
			return "", fmt.Errorf("invalid URL: no domain found")
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	if u.Host == "" {
		return "", fmt.Errorf("invalid URL: no host found")
	}

	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimPrefix(u.Host, "www.")

	q := u.Query()
	for _, param := range trackingParams {
		q.Del(param)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Hostname returns the lowercased hostname of a URL, or "" if it cannot be
// parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
