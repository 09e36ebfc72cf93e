package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"linkstash/internal/domain"
)

// failingGeneric returns a generic fetcher whose every network path fails.
func failingGeneric(t *testing.T) *GenericFetcher {
	t.Helper()
	f := NewGenericFetcher(createTestLogger(), deadRelay(t))
	f.httpClient = &http.Client{Transport: errTransport{}}
	return f
}

func TestTikTokOEmbedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"title":         "dance challenge | TikTok - Make Your Day",
			"author_name":   "dancer123",
			"thumbnail_url": "https://p16-sign.tiktokcdn.com/thumb.jpg",
		})
	}))
	defer server.Close()

	f := NewTikTokFetcher(createTestLogger(), failingGeneric(t))
	f.oembedEndpoint = server.URL

	res := f.Fetch(context.Background(), "https://www.tiktok.com/@dancer123/video/7123", Options{})

	if !res.Success {
		t.Fatal("Success = false for oEmbed result")
	}
	if res.Source != domain.SourceTikTokOEmbed {
		t.Errorf("Source = %q, want %q", res.Source, domain.SourceTikTokOEmbed)
	}
	if res.Title != "dance challenge" {
		t.Errorf("Title = %q, want suffix stripped", res.Title)
	}
	if res.Author != "dancer123" {
		t.Errorf("Author = %q", res.Author)
	}
}

func TestTikTokFallsBackToPlaceholder(t *testing.T) {
	f := NewTikTokFetcher(createTestLogger(), failingGeneric(t))
	f.httpClient = &http.Client{Transport: errTransport{}}

	res := f.Fetch(context.Background(), "https://www.tiktok.com/@user/video/99", Options{})

	if res.Success {
		t.Error("Success = true on fallback path")
	}
	if res.Source != domain.SourceTikTokFallback {
		t.Errorf("Source = %q, want %q", res.Source, domain.SourceTikTokFallback)
	}
	if res.Image == nil {
		t.Error("fallback must carry the static placeholder image")
	}
}

func TestTikTokDelegatesToGenericPath(t *testing.T) {
	microlink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"title": "Rescued by Microlink",
				"image": map[string]string{"url": "https://cdn.example.com/ml.jpg"},
			},
		})
	}))
	defer microlink.Close()

	generic := NewGenericFetcher(createTestLogger(), deadRelay(t))
	generic.microlinkEndpoint = microlink.URL

	f := NewTikTokFetcher(createTestLogger(), generic)
	f.httpClient = &http.Client{Transport: errTransport{}} // oEmbed fails

	res := f.Fetch(context.Background(), "https://www.tiktok.com/@user/video/5", Options{})

	if res.Source != domain.SourceMicrolink {
		t.Errorf("Source = %q, want delegation to %q", res.Source, domain.SourceMicrolink)
	}
	if res.SiteName != "TikTok" {
		t.Errorf("SiteName = %q, want TikTok even via the generic path", res.SiteName)
	}
}
