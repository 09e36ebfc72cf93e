package preview

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// relayCandidate is one third-party CORS-relay service. Format holds a
// printf-style template whose single %s receives the query-escaped target
// URL.
type relayCandidate struct {
	Name   string
	Format string
}

// relayCandidates is the single ordered list shared by every platform module
// that needs relay transport, highest confidence first.
var relayCandidates = []relayCandidate{
	{Name: "allorigins", Format: "https://api.allorigins.win/raw?url=%s"},
	{Name: "corsproxy", Format: "https://corsproxy.io/?%s"},
	{Name: "codetabs", Format: "https://api.codetabs.com/v1/proxy?quest=%s"},
	{Name: "cors-sh", Format: "https://proxy.cors.sh/%s"},
	{Name: "thingproxy", Format: "https://thingproxy.freeboard.io/fetch/%s"},
	{Name: "cors-anywhere", Format: "https://cors-anywhere.herokuapp.com/%s"},
	{Name: "whateverorigin", Format: "https://whateverorigin.org/get?url=%s"},
}

// minRelayContentLength rejects relay responses that are too small to be a
// real page (error stubs, empty wrappers).
const minRelayContentLength = 500

const maxRelayBodyBytes = 2 * 1024 * 1024

// ProxyRelay fetches target pages through an ordered list of third-party
// relay services, skipping known-bad candidates. One instance is shared by
// every platform module.
type ProxyRelay struct {
	logger     *slog.Logger
	httpClient *http.Client
	candidates []relayCandidate

	// skipped maps candidate name to the reason it is excluded
	skipped map[string]string
}

// NewProxyRelay creates the shared relay with the default candidate list.
// thingproxy is skipped: its TLS certificate fails for https targets.
func NewProxyRelay(logger *slog.Logger) *ProxyRelay {
	return &ProxyRelay{
		logger: logger,
		httpClient: &http.Client{
			Timeout: relayTimeout,
		},
		candidates: relayCandidates,
		skipped: map[string]string{
			"thingproxy": "known SSL certificate failures",
		},
	}
}

// Skip excludes a candidate by name for the lifetime of this relay.
func (p *ProxyRelay) Skip(name, reason string) {
	p.skipped[name] = reason
}

// SetCandidates replaces the candidate list (tests point it at local servers).
func (p *ProxyRelay) SetCandidates(candidates []relayCandidate) {
	p.candidates = candidates
}

// Fetch retrieves the target URL through the first relay that returns a
// plausible body (2xx and at least minRelayContentLength bytes). Returns the
// body and the name of the relay that served it.
func (p *ProxyRelay) Fetch(ctx context.Context, targetURL, userAgent string) (string, string, error) {
	var lastErr error

	for _, candidate := range p.candidates {
		if reason, skip := p.skipped[candidate.Name]; skip {
			p.logger.Debug("Skipping relay candidate",
				"relay", candidate.Name,
				"reason", reason,
			)
			continue
		}

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		default:
		}

		body, err := p.fetchVia(ctx, candidate, targetURL, userAgent)
		if err != nil {
			p.logger.Debug("Relay attempt failed",
				"relay", candidate.Name,
				"target", targetURL,
				"error", err,
			)
			lastErr = err
			continue
		}

		if len(body) < minRelayContentLength {
			p.logger.Debug("Relay returned too little content",
				"relay", candidate.Name,
				"bytes", len(body),
			)
			lastErr = fmt.Errorf("relay %s returned %d bytes, want >= %d", candidate.Name, len(body), minRelayContentLength)
			continue
		}

		p.logger.Info("Relay fetch succeeded",
			"relay", candidate.Name,
			"target", targetURL,
			"bytes", len(body),
		)
		return body, candidate.Name, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no relay candidates available")
	}
	return "", "", fmt.Errorf("all relay candidates failed: %w", lastErr)
}

func (p *ProxyRelay) fetchVia(ctx context.Context, candidate relayCandidate, targetURL, userAgent string) (string, error) {
	relayURL := fmt.Sprintf(candidate.Format, url.QueryEscape(targetURL))

	ctx, cancel := context.WithTimeout(ctx, relayTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", relayURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if userAgent == "" {
		userAgent = browserUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	p.logger.Debug("Relay response received",
		"relay", candidate.Name,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)

	return string(body), nil
}
