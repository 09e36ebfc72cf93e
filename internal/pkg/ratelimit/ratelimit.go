// Package ratelimit provides a fixed-window per-domain request budget for the
// preview resolution pipeline. Counters reset on a fixed wall-clock interval,
// so bursts are possible at window boundaries - this is a best-effort
// throttle, not a correctness-critical limiter.
package ratelimit

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultWindow is the reset interval for all buckets.
const DefaultWindow = 60 * time.Second

// bucket tracks requests for one domain within the current window
type bucket struct {
	requests    int
	maxRequests int
}

// Limiter is a per-domain fixed-window request limiter with an explicit
// Start/Stop lifecycle. It is safe for concurrent use.
type Limiter struct {
	logger *slog.Logger
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	stopOnce sync.Once
	done     chan struct{}
	started  bool
}

// New creates a limiter with the default per-domain budgets. The background
// reset timer does not run until Start is called.
func New(logger *slog.Logger) *Limiter {
	return NewWithWindow(logger, DefaultWindow)
}

// NewWithWindow creates a limiter with a custom reset window (used in tests).
func NewWithWindow(logger *slog.Logger, window time.Duration) *Limiter {
	return &Limiter{
		logger: logger,
		window: window,
		buckets: map[string]*bucket{
			"instagram.com": {maxRequests: 10},
			"facebook.com":  {maxRequests: 10},
			"tiktok.com":    {maxRequests: 15},
			"twitter.com":   {maxRequests: 15},
			"youtube.com":   {maxRequests: 20},
			"default":       {maxRequests: 30},
		},
		done: make(chan struct{}),
	}
}

// Start launches the background reset timer. Calling Start twice is a no-op.
func (l *Limiter) Start() {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	go func() {
		ticker := time.NewTicker(l.window)
		defer ticker.Stop()
		for {
			select {
			case <-l.done:
				return
			case <-ticker.C:
				l.ResetAll()
			}
		}
	}()
}

// Stop terminates the reset timer. Safe to call multiple times.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Allow reports whether a request to the URL's domain fits in the current
// window, incrementing the domain counter when it does. Denial means the
// caller should skip network work and return a placeholder immediately, not
// queue or retry.
//
// If the hostname cannot be parsed the limiter fails open - availability over
// strictness.
func (l *Limiter) Allow(rawURL string) bool {
	key := l.domainKey(rawURL)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b.requests >= b.maxRequests {
		l.logger.Warn("Rate limit exceeded",
			"domain", key,
			"requests", b.requests,
			"max_requests", b.maxRequests,
		)
		return false
	}

	b.requests++
	return true
}

// ResetAll zeroes every bucket. Called by the window timer; exported for the
// dbutil maintenance path and tests.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.buckets {
		b.requests = 0
	}
	l.logger.Debug("Rate limit window reset")
}

// Remaining returns how many requests are left for the URL's domain in the
// current window.
func (l *Limiter) Remaining(rawURL string) int {
	key := l.domainKey(rawURL)
	if key == "" {
		return -1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	remaining := b.maxRequests - b.requests
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// domainKey maps a URL's hostname onto a bucket key. Unknown hosts share the
// default bucket; unparsable hosts return "" (fail open).
func (l *Limiter) domainKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}

	switch {
	case strings.Contains(host, "instagram.com"), strings.Contains(host, "instagr.am"):
		return "instagram.com"
	case strings.Contains(host, "facebook.com"), strings.Contains(host, "fb.watch"), strings.Contains(host, "fb.com"):
		return "facebook.com"
	case strings.Contains(host, "tiktok.com"):
		return "tiktok.com"
	case strings.Contains(host, "twitter.com"), host == "x.com", strings.HasSuffix(host, ".x.com"):
		return "twitter.com"
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return "youtube.com"
	default:
		return "default"
	}
}
