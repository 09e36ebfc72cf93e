package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"linkstash/internal/domain"
	"linkstash/internal/preview"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// countingResolver records how many times Resolve ran
type countingResolver struct {
	calls  int
	result *domain.PreviewResult
}

func (c *countingResolver) Resolve(ctx context.Context, input string, opts preview.Options) *domain.PreviewResult {
	c.calls++
	return c.result
}

// mapCache is an in-memory PreviewCache
type mapCache struct {
	entries map[string]*domain.PreviewResult
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*domain.PreviewResult)}
}

func (m *mapCache) Get(ctx context.Context, normalizedURL string) (*domain.PreviewResult, error) {
	return m.entries[normalizedURL], nil
}

func (m *mapCache) Set(ctx context.Context, normalizedURL string, result *domain.PreviewResult, ttl time.Duration) error {
	m.entries[normalizedURL] = result
	return nil
}

func postPreview(t *testing.T, handler *PreviewHandler, body string) (*httptest.ResponseRecorder, *PreviewResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleResolve(rec, req)

	var resp PreviewResponse
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return rec, &resp
}

func TestHandleResolveCachesResult(t *testing.T) {
	resolver := &countingResolver{result: &domain.PreviewResult{
		Title:    "A Video",
		SiteName: "YouTube",
		Source:   domain.SourceYouTubeOEmbed,
		Success:  true,
	}}
	cache := newMapCache()
	handler := NewPreviewHandler(createTestLogger(), resolver, cache, time.Hour, preview.Options{})

	body := `{"url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`

	rec, resp := postPreview(t, handler, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Cached {
		t.Error("first call reported cached = true")
	}
	if resp.Data.Title != "A Video" {
		t.Errorf("Title = %q, want resolver result", resp.Data.Title)
	}

	// Second call with a cosmetically different URL hits the cache via
	// normalization
	rec, resp = postPreview(t, handler, `{"url":"https://youtube.com/watch?v=dQw4w9WgXcQ&si=tracker"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !resp.Cached {
		t.Error("second call reported cached = false")
	}
	if resolver.calls != 1 {
		t.Errorf("resolver ran %d times, want 1", resolver.calls)
	}
}

func TestHandleResolveTokenBypassesCache(t *testing.T) {
	resolver := &countingResolver{result: &domain.PreviewResult{
		Title:   "Private Post",
		Source:  domain.SourceInstagramGraphAPI,
		Success: true,
	}}
	cache := newMapCache()
	handler := NewPreviewHandler(createTestLogger(), resolver, cache, time.Hour, preview.Options{})

	body := `{"url":"https://instagram.com/p/ABC123/","user_access_token":"tok"}`

	postPreview(t, handler, body)
	postPreview(t, handler, body)

	if resolver.calls != 2 {
		t.Errorf("resolver ran %d times, want 2 (tokened calls skip cache)", resolver.calls)
	}
	if len(cache.entries) != 0 {
		t.Errorf("cache holds %d entries, want 0 for tokened calls", len(cache.entries))
	}
}

func TestHandleResolveRejectsBadRequests(t *testing.T) {
	handler := NewPreviewHandler(createTestLogger(), &countingResolver{result: &domain.PreviewResult{}}, nil, time.Hour, preview.Options{})

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "{not json"},
		{"missing url", `{"user_access_token":"tok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := postPreview(t, handler, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
