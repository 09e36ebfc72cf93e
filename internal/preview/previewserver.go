package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"linkstash/internal/domain"
)

const previewServerTimeout = 10 * time.Second

// PreviewServerClient talks to the optional trusted first-party preview
// service. When it succeeds it bypasses all platform-specific logic.
type PreviewServerClient struct {
	logger     *slog.Logger
	httpClient *http.Client
}

// NewPreviewServerClient creates a preview server client.
func NewPreviewServerClient(logger *slog.Logger) *PreviewServerClient {
	return &PreviewServerClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: previewServerTimeout},
	}
}

type previewServerRequest struct {
	URL             string `json:"url"`
	UserAccessToken string `json:"userAccessToken,omitempty"`
}

type previewServerResponse struct {
	Success bool                  `json:"success"`
	Data    *domain.PreviewResult `json:"data"`
}

// Resolve posts the URL to {base}/api/preview and returns the server's
// result. Any failure is an error; the caller falls back to the public
// strategy chains.
func (c *PreviewServerClient) Resolve(ctx context.Context, baseURL, rawURL, userToken string) (*domain.PreviewResult, error) {
	payload, err := json.Marshal(previewServerRequest{
		URL:             rawURL,
		UserAccessToken: userToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, previewServerTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/api/preview", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("HTTP error: %d (body: %s)", resp.StatusCode, string(body))
	}

	var serverResp previewServerResponse
	if err := json.NewDecoder(resp.Body).Decode(&serverResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !serverResp.Success || serverResp.Data == nil {
		return nil, fmt.Errorf("preview server reported failure")
	}

	result := serverResp.Data
	if result.Source == "" {
		result.Source = domain.SourcePreviewServer
	}
	if result.Timestamp == "" {
		result.Timestamp = domain.NewTimestamp()
	}

	c.logger.Info("Preview server resolution successful",
		"url", rawURL,
		"title", result.Title,
	)

	return result, nil
}
