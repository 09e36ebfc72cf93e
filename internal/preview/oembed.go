package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// oEmbedResponse represents the standard oEmbed JSON response
// See: https://oembed.com/#section2.3
type oEmbedResponse struct {
	Type            string      `json:"type"`
	Version         interface{} `json:"version"` // should be "1.0" string, but some providers send numeric 1.0
	Title           string      `json:"title"`
	AuthorName      string      `json:"author_name"`
	AuthorURL       string      `json:"author_url"`
	ProviderName    string      `json:"provider_name"`
	ProviderURL     string      `json:"provider_url"`
	ThumbnailURL    string      `json:"thumbnail_url"`
	ThumbnailWidth  int         `json:"thumbnail_width"`
	ThumbnailHeight int         `json:"thumbnail_height"`
	HTML            string      `json:"html"`
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	Description     string      `json:"description"` // not in the oEmbed standard, but some providers include it
}

// buildOEmbedURL constructs the oEmbed API URL with proper parameters
func buildOEmbedURL(endpoint, resourceURL string) (string, error) {
	// Some endpoints have placeholders like {format}
	endpoint = strings.ReplaceAll(endpoint, "{format}", "json")

	baseURL, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint URL: %w", err)
	}

	query := baseURL.Query()
	query.Set("url", resourceURL)
	query.Set("format", "json")
	baseURL.RawQuery = query.Encode()

	return baseURL.String(), nil
}

// fetchOEmbed makes the HTTP request to an oEmbed endpoint and decodes the
// standard response.
func fetchOEmbed(ctx context.Context, client *http.Client, endpoint, resourceURL string) (*oEmbedResponse, error) {
	oembedURL, err := buildOEmbedURL(endpoint, resourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build oEmbed URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", oembedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set a realistic User-Agent (some providers check this)
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("HTTP error: %d %s (body: %s)", resp.StatusCode, resp.Status, string(body))
	}

	var oembedResp oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&oembedResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	return &oembedResp, nil
}
