package preview

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"linkstash/internal/domain"
	"linkstash/internal/pkg/ratelimit"
	"linkstash/internal/pkg/urlnorm"
)

// platformFetcher is one platform's ordered strategy chain. A fetcher never
// returns nil: exhaustion of its strategies produces that module's fallback
// object.
type platformFetcher interface {
	Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult
}

// route pairs a hostname predicate with the fetcher that handles it.
type route struct {
	platform string
	match    func(host string) bool
	fetcher  platformFetcher
}

// Per-hostname timeout budgets. Instagram and Facebook run the longest
// chains and historically respond slowest.
var hostBudgets = map[string]time.Duration{
	domain.PlatformInstagram: 30 * time.Second,
	domain.PlatformFacebook:  28 * time.Second,
	domain.PlatformTikTok:    25 * time.Second,
	domain.PlatformYouTube:   22 * time.Second,
}

const defaultBudget = 25 * time.Second

// Resolver is the main coordinator: it normalizes input, consults the rate
// limiter, routes to the right platform module, races the chain against a
// per-host timeout, and synthesizes a terminal placeholder when everything
// fails. Resolve never returns an error and never panics past its boundary.
type Resolver struct {
	logger  *slog.Logger
	limiter *ratelimit.Limiter
	relay   *ProxyRelay

	previewServer *PreviewServerClient
	routes        []route
	generic       platformFetcher

	// group dedupes concurrent resolutions of the same normalized URL
	group singleflight.Group
}

// NewResolver wires the coordinator with the default platform modules and a
// shared proxy relay.
func NewResolver(logger *slog.Logger, limiter *ratelimit.Limiter) *Resolver {
	relay := NewProxyRelay(logger)
	generic := NewGenericFetcher(logger, relay)

	r := &Resolver{
		logger:        logger,
		limiter:       limiter,
		relay:         relay,
		previewServer: NewPreviewServerClient(logger),
		generic:       generic,
	}

	r.routes = []route{
		{
			platform: domain.PlatformYouTube,
			match:    hostContainsAny("youtube.com", "youtu.be"),
			fetcher:  NewYouTubeFetcher(logger),
		},
		{
			platform: domain.PlatformInstagram,
			match:    hostContainsAny("instagram.com", "instagr.am"),
			fetcher:  NewInstagramFetcher(logger, relay),
		},
		{
			platform: domain.PlatformFacebook,
			match:    hostContainsAny("facebook.com", "fb.watch", "fb.com"),
			fetcher:  NewFacebookFetcher(logger, relay),
		},
		{
			platform: domain.PlatformTikTok,
			match:    hostContainsAny("tiktok.com"),
			fetcher:  NewTikTokFetcher(logger, generic),
		},
	}

	return r
}

func hostContainsAny(fragments ...string) func(string) bool {
	return func(host string) bool {
		for _, fragment := range fragments {
			if strings.Contains(host, fragment) {
				return true
			}
		}
		return false
	}
}

// Resolve turns free-form input into a PreviewResult. It always returns a
// well-shaped result within the timeout budget plus a small grace margin -
// internal failures degrade to placeholders, never errors.
func (r *Resolver) Resolve(ctx context.Context, input string, opts Options) *domain.PreviewResult {
	cleanURL, ok := urlnorm.ExtractCleanURL(input)
	if !ok {
		// Second chance: the input may be a bare URL the extractor's
		// patterns rejected for want of a scheme
		retry := "https://" + strings.TrimSpace(input)
		if _, err := urlnorm.Normalize(retry); err == nil {
			cleanURL = retry
		} else {
			r.logger.Warn("No URL found in input", "input", truncate(input, 120))
			return r.inputFallback(input)
		}
	}

	key := resolveKey(cleanURL, opts)
	result, _, _ := r.group.Do(key, func() (interface{}, error) {
		return r.resolveURL(ctx, cleanURL, opts), nil
	})

	return result.(*domain.PreviewResult)
}

// resolveKey keys singleflight dedupe. Token presence changes the strategy
// chain, so tokened and anonymous calls never share a flight.
func resolveKey(cleanURL string, opts Options) string {
	key, err := urlnorm.Normalize(cleanURL)
	if err != nil {
		key = cleanURL
	}
	if opts.InstagramToken != "" {
		key += "|token"
	}
	return key
}

// resolveURL runs one full resolution for a clean URL.
func (r *Resolver) resolveURL(ctx context.Context, cleanURL string, opts Options) *domain.PreviewResult {
	host := urlnorm.Hostname(cleanURL)

	// Rate-limit denial is not an error: skip network work entirely
	if !r.limiter.Allow(cleanURL) {
		r.logger.Info("Rate limited, returning placeholder", "url", cleanURL)
		res := &domain.PreviewResult{
			SiteName: domain.SiteNameForHost(host),
			Source:   domain.SourceRateLimitedFallback,
			Success:  false,
		}
		return Enhance(res, cleanURL)
	}

	// Trusted first-party preview server bypasses the public chains
	if opts.PreviewServerURL != "" {
		res, err := r.previewServer.Resolve(ctx, opts.PreviewServerURL, cleanURL, opts.InstagramToken)
		if err != nil {
			r.logger.Warn("Preview server failed, falling back to strategy chains",
				"url", cleanURL,
				"error", err,
			)
		} else {
			return Enhance(res, cleanURL)
		}
	}

	platform, fetcher := r.routeFor(host)
	budget := r.budgetFor(platform, opts)

	r.logger.Info("Routing preview resolution",
		"url", cleanURL,
		"platform", platform,
		"budget", budget,
	)

	// Race the chain against the budget. The context carries the deadline
	// into every strategy, so the losing branch is torn down rather than
	// left running.
	raceCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	resultCh := make(chan *domain.PreviewResult, 1)
	go func() {
		defer func() {
			// A panicking strategy must not take the caller down
			if rec := recover(); rec != nil {
				r.logger.Error("Strategy chain panicked",
					"url", cleanURL,
					"panic", rec,
				)
				resultCh <- nil
			}
		}()
		resultCh <- fetcher.Fetch(raceCtx, cleanURL, opts)
	}()

	select {
	case res := <-resultCh:
		if res == nil {
			return r.terminalFallback(cleanURL, domain.SourceURLFallback)
		}
		return Enhance(res, cleanURL)
	case <-raceCtx.Done():
		r.logger.Warn("Preview resolution timed out",
			"url", cleanURL,
			"platform", platform,
			"budget", budget,
		)
		return r.terminalFallback(cleanURL, domain.SourceTimeoutFallback)
	}
}

// routeFor returns the platform ID and fetcher for a hostname; unmatched
// hostnames go to the generic path.
func (r *Resolver) routeFor(host string) (string, platformFetcher) {
	for _, rt := range r.routes {
		if rt.match(host) {
			return rt.platform, rt.fetcher
		}
	}
	return domain.PlatformGeneric, r.generic
}

// budgetFor returns the timeout budget for a platform, honoring a caller
// override.
func (r *Resolver) budgetFor(platform string, opts Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	if budget, ok := hostBudgets[platform]; ok {
		return budget
	}
	return defaultBudget
}

// terminalFallback synthesizes the total-failure placeholder from the clean
// URL alone.
func (r *Resolver) terminalFallback(cleanURL, source string) *domain.PreviewResult {
	res := &domain.PreviewResult{
		SiteName: domain.SiteNameForHost(urlnorm.Hostname(cleanURL)),
		Source:   source,
		Success:  false,
	}
	return Enhance(res, cleanURL)
}

// inputFallback handles input with no extractable URL at all.
func (r *Resolver) inputFallback(input string) *domain.PreviewResult {
	res := &domain.PreviewResult{
		SiteName: "Unknown site",
		Source:   domain.SourceURLFallback,
		Success:  false,
	}
	return Enhance(res, "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
