package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

// candidatePatterns are tried in priority order: fully schemed URLs first,
// then bare host/path forms. The first candidate that survives validation
// wins - multiple URLs in one input are never aggregated.
var candidatePatterns = []*regexp.Regexp{
	// scheme://host/path
	regexp.MustCompile(`https?://[^\s<>"']+`),
	// bare host/path without scheme (host must have at least one dot)
	regexp.MustCompile(`(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?:/[^\s<>"']*)?`),
}

// ExtractCleanURL pulls the first valid URL out of free-form input text.
// The input may contain surrounding prose, emoji, or nothing at all.
// Returns ("", false) when no candidate validates. Pure function.
func ExtractCleanURL(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	for _, pattern := range candidatePatterns {
		for _, candidate := range pattern.FindAllString(input, -1) {
			candidate = cleanTrailingPunctuation(candidate)
			if candidate == "" {
				continue
			}

			withScheme := candidate
			if !strings.HasPrefix(strings.ToLower(candidate), "http://") &&
				!strings.HasPrefix(strings.ToLower(candidate), "https://") {
				withScheme = "https://" + candidate
			}

			if isValidURL(withScheme) {
				return withScheme, true
			}
		}
	}

	return "", false
}

// isValidURL requires a parseable URL whose hostname contains at least one dot.
func isValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host != "" && strings.Contains(host, ".") &&
		!strings.HasPrefix(host, ".") && !strings.HasSuffix(host, ".")
}

// cleanTrailingPunctuation removes trailing punctuation that is not valid at
// the end of a URL. Closing parentheses are preserved when balanced
// (Wikipedia-style URLs).
func cleanTrailingPunctuation(urlStr string) string {
	if strings.Contains(urlStr, "(") && strings.HasSuffix(urlStr, ")") {
		openCount := strings.Count(urlStr, "(")
		closeCount := strings.Count(urlStr, ")")
		if openCount >= closeCount {
			return urlStr
		}
	}

	return strings.TrimRight(urlStr, `.,!?;:"')`)
}
