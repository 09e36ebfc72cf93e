package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkstash/internal/domain"
	"linkstash/internal/pkg/ratelimit"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	limiter := ratelimit.New(createTestLogger())
	return NewResolver(createTestLogger(), limiter)
}

// hangingFetcher never produces a result within the timeout budget.
type hangingFetcher struct{}

func (hangingFetcher) Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult {
	<-ctx.Done()
	// Stay slow past cancellation so the caller's timeout branch always wins
	time.Sleep(200 * time.Millisecond)
	return nil
}

// stubFetcher returns a fixed result.
type stubFetcher struct {
	result *domain.PreviewResult
}

func (s stubFetcher) Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult {
	return s.result
}

func assertWellShaped(t *testing.T, res *domain.PreviewResult) {
	t.Helper()
	if res == nil {
		t.Fatal("Resolve() returned nil")
	}
	if res.Title == "" {
		t.Error("Title is empty")
	}
	if res.Description == "" {
		t.Error("Description is empty")
	}
	if res.SiteName == "" {
		t.Error("SiteName is empty")
	}
	if res.Timestamp == "" {
		t.Error("Timestamp is empty")
	}
	if res.Source == "" {
		t.Error("Source is empty")
	}
}

func TestResolveTotalityForGarbageInput(t *testing.T) {
	r := testResolver(t)
	// Some garbage survives the https:// second chance and routes into the
	// generic chain; stub it so nothing leaves the process.
	failing := stubFetcher{result: &domain.PreviewResult{
		Source: domain.SourceSmartPlaceholder,
	}}
	r.routes = nil
	r.generic = failing

	inputs := []string{
		"",
		"just some random text",
		"http://",
		"   \n\t  ",
		"🔥🔥🔥",
	}

	for _, input := range inputs {
		res := r.Resolve(context.Background(), input, Options{})
		assertWellShaped(t, res)
		if res.Success {
			t.Errorf("Resolve(%q) Success = true, want false", input)
		}
	}
}

func TestResolveRoutesByHostname(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		host         string
		wantPlatform string
	}{
		{"www.youtube.com", domain.PlatformYouTube},
		{"youtu.be", domain.PlatformYouTube},
		{"instagram.com", domain.PlatformInstagram},
		{"m.facebook.com", domain.PlatformFacebook},
		{"fb.watch", domain.PlatformFacebook},
		{"vm.tiktok.com", domain.PlatformTikTok},
		{"example.org", domain.PlatformGeneric},
	}

	for _, tt := range tests {
		platform, fetcher := r.routeFor(tt.host)
		if platform != tt.wantPlatform {
			t.Errorf("routeFor(%q) = %q, want %q", tt.host, platform, tt.wantPlatform)
		}
		if fetcher == nil {
			t.Errorf("routeFor(%q) returned nil fetcher", tt.host)
		}
	}
}

func TestResolveTimeoutRace(t *testing.T) {
	r := testResolver(t)
	r.routes = []route{
		{
			platform: domain.PlatformInstagram,
			match:    hostContainsAny("instagram.com"),
			fetcher:  hangingFetcher{},
		},
	}

	start := time.Now()
	res := r.Resolve(context.Background(), "https://instagram.com/p/HANG/", Options{
		Timeout: 100 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Fatalf("Resolve() took %v, want timeout + small grace margin", elapsed)
	}
	assertWellShaped(t, res)
	if res.Success {
		t.Error("Success = true on timeout fallback")
	}
	if res.Source != domain.SourceTimeoutFallback {
		t.Errorf("Source = %q, want %q", res.Source, domain.SourceTimeoutFallback)
	}
}

func TestResolveRateLimitDenialSkipsNetwork(t *testing.T) {
	limiter := ratelimit.New(createTestLogger())
	r := NewResolver(createTestLogger(), limiter)

	// Exhaust the instagram bucket
	for limiter.Allow("https://instagram.com/p/x/") {
	}

	r.routes = []route{
		{
			platform: domain.PlatformInstagram,
			match:    hostContainsAny("instagram.com"),
			fetcher: stubFetcher{result: &domain.PreviewResult{
				Title:   "should not be reached",
				Source:  domain.SourceInstagramOEmbed,
				Success: true,
			}},
		},
	}

	res := r.Resolve(context.Background(), "https://instagram.com/p/LIMITED/", Options{})

	if res.Source != domain.SourceRateLimitedFallback {
		t.Fatalf("Source = %q, want %q", res.Source, domain.SourceRateLimitedFallback)
	}
	if res.Success {
		t.Error("Success = true on rate-limited placeholder")
	}
}

func TestResolvePreviewServerBypassesChains(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/preview" {
			t.Errorf("path = %q, want /api/preview", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["url"] == "" {
			t.Error("request body missing url")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"title":       "Server Side Title",
				"description": "resolved upstream",
				"siteName":    "Instagram",
				"source":      "preview_server",
				"success":     true,
			},
		})
	}))
	defer server.Close()

	r := testResolver(t)
	r.routes = []route{
		{
			platform: domain.PlatformInstagram,
			match:    hostContainsAny("instagram.com"),
			fetcher:  hangingFetcher{}, // must never run
		},
	}

	res := r.Resolve(context.Background(), "https://instagram.com/p/SRV/", Options{
		PreviewServerURL: server.URL,
		Timeout:          2 * time.Second,
	})

	if res.Title != "Server Side Title" {
		t.Errorf("Title = %q, want the preview server's result", res.Title)
	}
	if res.Source != domain.SourcePreviewServer {
		t.Errorf("Source = %q, want %q", res.Source, domain.SourcePreviewServer)
	}
	if !res.Success {
		t.Error("Success = false for preview server result")
	}
}

func TestResolveFallbackSourceNaming(t *testing.T) {
	r := testResolver(t)
	r.routes = []route{
		{
			platform: domain.PlatformYouTube,
			match:    hostContainsAny("youtube.com"),
			fetcher: stubFetcher{result: &domain.PreviewResult{
				Source: domain.SourceYouTubeFallback,
			}},
		},
	}

	res := r.Resolve(context.Background(), "https://youtube.com/watch?v=dQw4w9WgXcQ", Options{})

	assertWellShaped(t, res)
	if res.Success {
		t.Error("Success = true for _fallback source")
	}
	if !strings.HasSuffix(res.Source, "_fallback") && !strings.HasSuffix(res.Source, "_placeholder") {
		t.Errorf("Source = %q, want fallback/placeholder suffix", res.Source)
	}
}

func TestResolveSecondChanceSchemePrepend(t *testing.T) {
	r := testResolver(t)
	r.routes = []route{
		{
			platform: domain.PlatformTikTok,
			match:    hostContainsAny("tiktok.com"),
			fetcher: stubFetcher{result: &domain.PreviewResult{
				Title:   "Got there",
				Source:  domain.SourceTikTokOEmbed,
				Success: true,
			}},
		},
	}

	res := r.Resolve(context.Background(), "tiktok.com/@user/video/1", Options{})
	if res.Title != "Got there" {
		t.Errorf("Title = %q; scheme-less input failed to route", res.Title)
	}
}

func TestResolveDedupesConcurrentCalls(t *testing.T) {
	calls := make(chan struct{}, 16)
	slow := stubSlowFetcher{calls: calls, delay: 150 * time.Millisecond}

	r := testResolver(t)
	r.routes = []route{
		{
			platform: domain.PlatformYouTube,
			match:    hostContainsAny("youtube.com"),
			fetcher:  slow,
		},
	}

	done := make(chan *domain.PreviewResult, 4)
	for i := 0; i < 4; i++ {
		go func() {
			done <- r.Resolve(context.Background(), "https://youtube.com/watch?v=dQw4w9WgXcQ", Options{})
		}()
	}
	for i := 0; i < 4; i++ {
		assertWellShaped(t, <-done)
	}

	close(calls)
	fetchCount := 0
	for range calls {
		fetchCount++
	}
	if fetchCount != 1 {
		t.Errorf("underlying fetch ran %d times for identical concurrent calls, want 1", fetchCount)
	}
}

type stubSlowFetcher struct {
	calls chan struct{}
	delay time.Duration
}

func (s stubSlowFetcher) Fetch(ctx context.Context, rawURL string, opts Options) *domain.PreviewResult {
	s.calls <- struct{}{}
	time.Sleep(s.delay)
	return &domain.PreviewResult{
		Title:   "slow result",
		Source:  domain.SourceYouTubeOEmbed,
		Success: true,
	}
}
