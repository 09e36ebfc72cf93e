package preview

import (
	"regexp"
	"strings"

	"linkstash/internal/domain"
	"linkstash/internal/pkg/urlnorm"
)

// titleSuffixPatterns strip the decoration each platform appends to shared
// titles. Applied for every platform regardless of source, since raw titles
// from different strategies carry different suffix conventions. Stripping is
// idempotent: a clean title matches none of these.
var titleSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+on Instagram\s*$`),
	regexp.MustCompile(`(?i)\s*[•|\-–]\s*Instagram( photos and videos)?\s*$`),
	regexp.MustCompile(`(?i)\s+on Facebook\s*$`),
	regexp.MustCompile(`(?i)\s*[•|\-–]\s*Facebook( Watch)?\s*$`),
	regexp.MustCompile(`(?i)\s*[|\-–]\s*TikTok\s*([|\-–]\s*Make Your Day)?\s*$`),
	regexp.MustCompile(`(?i)^TikTok\s*[\-–]\s*Make Your Day$`),
	regexp.MustCompile(`(?i)\s*[\-–]\s*YouTube\s*$`),
	regexp.MustCompile(`(?i)\s*[/|]\s*X\s*$`),
	regexp.MustCompile(`(?i)\s*[/|]\s*Twitter\s*$`),
}

// titlePrefixPatterns strip the leading decoration of the dominant Instagram
// convention, "user on Instagram: caption", keeping only the caption.
var titlePrefixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^[^:]*\bon Instagram:\s*`),
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanTitle strips platform suffix decoration and collapses whitespace.
// Applying it to an already-clean title returns the title unchanged.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, pattern := range titlePrefixPatterns {
		title = pattern.ReplaceAllString(title, "")
	}
	for _, pattern := range titleSuffixPatterns {
		title = pattern.ReplaceAllString(title, "")
	}
	title = whitespaceRe.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// StripHandlesAndHashtags removes @handles and #hashtags from a caption-style
// title. Used by the Instagram chain, whose captions are mostly decoration.
func StripHandlesAndHashtags(title string) string {
	title = regexp.MustCompile(`@[\w.]+`).ReplaceAllString(title, "")
	title = regexp.MustCompile(`#[\w]+`).ReplaceAllString(title, "")
	title = whitespaceRe.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// Enhance normalizes a raw strategy result into the guaranteed shape: titles
// cleaned of platform suffixes, empty fields defaulted from the site name,
// and the fallback-source invariant enforced. Always returns the same
// pointer it was given.
func Enhance(res *domain.PreviewResult, rawURL string) *domain.PreviewResult {
	if res == nil {
		res = &domain.PreviewResult{}
	}

	host := urlnorm.Hostname(rawURL)

	if res.SiteName == "" || res.SiteName == "Unknown site" {
		res.SiteName = domain.SiteNameForHost(host)
	}

	res.Title = CleanTitle(res.Title)
	if res.Title == "" {
		res.Title = res.SiteName + " Content"
	}

	res.Description = strings.TrimSpace(res.Description)
	if res.Description == "" {
		res.Description = "View this " + res.SiteName + " content"
	}

	if res.Timestamp == "" {
		res.Timestamp = domain.NewTimestamp()
	}

	// Fallback/placeholder provenance implies a degraded result
	if domain.IsFallbackSource(res.Source) {
		res.Success = false
	}

	res.Enhanced = true
	return res
}
