package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"linkstash/internal/domain"
	"linkstash/internal/pkg/urlnorm"
)

// microlinkCooldown spaces consecutive Microlink requests; the free tier
// throttles aggressively.
const microlinkCooldown = 1 * time.Second

// GenericFetcher is the shared enhanced-metadata resolver: Microlink.io,
// then Open Graph extraction (Instagram/Facebook hosts only), then a smart
// per-platform placeholder.
//
// The OG restriction mirrors a compliance decision made elsewhere in the
// product: this path does not scrape arbitrary hosts, even though the
// platform modules above it fetch and parse HTML freely. The inconsistency
// is known and deliberately preserved.
type GenericFetcher struct {
	logger     *slog.Logger
	httpClient *http.Client
	relay      *ProxyRelay

	microlinkEndpoint string

	mu          sync.Mutex
	lastRequest time.Time
}

// NewGenericFetcher creates the generic fetcher sharing the given relay.
func NewGenericFetcher(logger *slog.Logger, relay *ProxyRelay) *GenericFetcher {
	return &GenericFetcher{
		logger:            logger,
		httpClient:        &http.Client{Timeout: microlinkTimeout},
		relay:             relay,
		microlinkEndpoint: "https://api.microlink.io",
	}
}

// Fetch runs the generic strategy chain.
func (f *GenericFetcher) Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult {
	if res, err := f.fetchMicrolink(ctx, rawURL); err != nil {
		f.logger.Debug("Microlink failed", "url", rawURL, "error", err)
	} else if usable(res) {
		return res
	}

	// OG extraction only for Instagram/Facebook hosts
	host := urlnorm.Hostname(rawURL)
	if strings.Contains(host, "instagram.com") || strings.Contains(host, "facebook.com") {
		if res := f.fetchOpenGraph(ctx, rawURL); usable(res) {
			return res
		}
	}

	return f.smartPlaceholder(rawURL)
}

// microlinkResponse is Microlink's JSON envelope.
type microlinkResponse struct {
	Status string `json:"status"`
	Data   struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Publisher   string `json:"publisher"`
		Author      string `json:"author"`
		Image       struct {
			URL string `json:"url"`
		} `json:"image"`
		Logo struct {
			URL string `json:"url"`
		} `json:"logo"`
	} `json:"data"`
}

// fetchMicrolink queries Microlink.io, honoring the request-spacing cooldown.
func (f *GenericFetcher) fetchMicrolink(ctx context.Context, rawURL string) (*domain.PreviewResult, error) {
	if err := f.waitCooldown(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, microlinkTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/?url=%s", f.microlinkEndpoint, url.QueryEscape(rawURL))
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

	var ml microlinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&ml); err != nil {
		return nil, fmt.Errorf("failed to parse Microlink response: %w", err)
	}

	if ml.Status != "success" {
		return nil, fmt.Errorf("Microlink status: %s", ml.Status)
	}

	title := CleanTitle(ml.Data.Title)
	image := ml.Data.Image.URL
	if image == "" {
		image = ml.Data.Logo.URL
	}

	if title == "" && image == "" {
		return nil, fmt.Errorf("Microlink returned no usable fields")
	}

	siteName := ml.Data.Publisher
	if siteName == "" {
		siteName = domain.SiteNameForHost(urlnorm.Hostname(rawURL))
	}

	f.logger.Info("Microlink extraction successful",
		"url", rawURL,
		"title", title,
		"has_image", image != "",
	)

	return &domain.PreviewResult{
		Title:              title,
		Description:        ml.Data.Description,
		Image:              strPtr(image),
		SiteName:           siteName,
		Timestamp:          domain.NewTimestamp(),
		Source:             domain.SourceMicrolink,
		Success:            true,
		Author:             ml.Data.Author,
		TitleExtracted:     title != "",
		ThumbnailExtracted: image != "",
	}, nil
}

// waitCooldown blocks until the request-spacing interval has elapsed, or the
// context is cancelled.
func (f *GenericFetcher) waitCooldown(ctx context.Context) error {
	f.mu.Lock()
	now := time.Now()
	wait := microlinkCooldown - now.Sub(f.lastRequest)
	if wait <= 0 {
		f.lastRequest = now
		f.mu.Unlock()
		return nil
	}
	// Reserve the slot before sleeping so concurrent callers queue behind it.
	f.lastRequest = now.Add(wait)
	f.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fetchOpenGraph pulls OG tags through the relay layer.
func (f *GenericFetcher) fetchOpenGraph(ctx context.Context, rawURL string) *domain.PreviewResult {
	body, relayName, err := f.relay.Fetch(ctx, rawURL, browserUserAgent)
	if err != nil {
		f.logger.Debug("OG relay fetch failed", "url", rawURL, "error", err)
		return nil
	}

	tags := extractMetaTags(body)
	title := CleanTitle(tags.Title)
	if title == "" && tags.Image == "" {
		return nil
	}

	f.logger.Info("Open Graph extraction successful",
		"url", rawURL,
		"relay", relayName,
		"title", title,
	)

	siteName := tags.SiteName
	if siteName == "" {
		siteName = domain.SiteNameForHost(urlnorm.Hostname(rawURL))
	}

	return &domain.PreviewResult{
		Title:              title,
		Description:        tags.Description,
		Image:              strPtr(tags.Image),
		SiteName:           siteName,
		Timestamp:          domain.NewTimestamp(),
		Source:             domain.SourceOpenGraph,
		Success:            title != "",
		TitleExtracted:     title != "",
		ThumbnailExtracted: tags.Image != "",
	}
}

// smartPlaceholder synthesizes a displayable result from nothing but the URL.
func (f *GenericFetcher) smartPlaceholder(rawURL string) *domain.PreviewResult {
	siteName := domain.SiteNameForHost(urlnorm.Hostname(rawURL))

	return &domain.PreviewResult{
		Title:       siteName + " Content",
		Description: "View this " + siteName + " content",
		Image:       nil,
		SiteName:    siteName,
		Timestamp:   domain.NewTimestamp(),
		Source:      domain.SourceSmartPlaceholder,
		Success:     false,
	}
}
