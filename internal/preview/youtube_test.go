package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"linkstash/internal/domain"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "short link",
			url:  "https://youtu.be/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "watch URL",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "embed URL",
			url:  "https://www.youtube.com/embed/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "legacy v path",
			url:  "https://www.youtube.com/v/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "shorts URL",
			url:  "https://youtube.com/shorts/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "no video ID",
			url:  "https://youtube.com/feed/subscriptions",
			want: "",
		},
		{
			name: "ID too short",
			url:  "https://youtu.be/short",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractVideoID(tt.url)
			if got != tt.want {
				t.Errorf("extractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestYouTubeFetchOEmbedSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("url"); got == "" {
			t.Errorf("oEmbed request missing url parameter")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"title":         "Rick Astley - Never Gonna Give You Up",
			"author_name":   "Rick Astley",
			"thumbnail_url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
			"provider_name": "YouTube",
			"type":          "video",
		})
	}))
	defer server.Close()

	f := NewYouTubeFetcher(createTestLogger())
	f.oembedEndpoint = server.URL

	res := f.Fetch(context.Background(), "https://youtube.com/watch?v=dQw4w9WgXcQ", Options{})

	if !res.Success {
		t.Fatal("Success = false, want true")
	}
	if res.Source != domain.SourceYouTubeOEmbed {
		t.Errorf("Source = %q, want %q", res.Source, domain.SourceYouTubeOEmbed)
	}
	if res.Title != "Rick Astley - Never Gonna Give You Up" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Author != "Rick Astley" {
		t.Errorf("Author = %q", res.Author)
	}
	if res.Image == nil || *res.Image != "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg" {
		t.Errorf("Image = %v", res.Image)
	}
}

func TestYouTubeFetchFallbackThumbnail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewYouTubeFetcher(createTestLogger())
	f.oembedEndpoint = server.URL

	res := f.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ", Options{})

	if res.Success {
		t.Error("Success = true on fallback path")
	}
	if res.Source != domain.SourceYouTubeFallback {
		t.Errorf("Source = %q, want %q", res.Source, domain.SourceYouTubeFallback)
	}
	want := "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"
	if res.Image == nil || *res.Image != want {
		t.Errorf("Image = %v, want %q", res.Image, want)
	}
	if res.Title == "" || res.Description == "" {
		t.Error("fallback must still carry a displayable title and description")
	}
}

func TestYouTubeFetchFallbackWithoutVideoID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewYouTubeFetcher(createTestLogger())
	f.oembedEndpoint = server.URL

	res := f.Fetch(context.Background(), "https://youtube.com/feed/trending", Options{})

	if res.Image != nil {
		t.Errorf("Image = %v, want nil when no video ID is available", *res.Image)
	}
	if res.Success {
		t.Error("Success = true on fallback path")
	}
}
