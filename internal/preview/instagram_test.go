package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"linkstash/internal/domain"
)

func TestExtractShortcode(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantCode string
		wantKind string
	}{
		{
			name:     "post",
			url:      "https://www.instagram.com/p/CxYzAb12345/",
			wantCode: "CxYzAb12345",
			wantKind: "p",
		},
		{
			name:     "reel",
			url:      "https://instagram.com/reel/Abc_123-xyz/?igshid=foo",
			wantCode: "Abc_123-xyz",
			wantKind: "reel",
		},
		{
			name:     "reels plural form",
			url:      "https://instagram.com/reels/Qwe456/",
			wantCode: "Qwe456",
			wantKind: "reel",
		},
		{
			name:     "tv",
			url:      "https://www.instagram.com/tv/IGTVcode1/",
			wantCode: "IGTVcode1",
			wantKind: "tv",
		},
		{
			name:     "profile URL has no shortcode",
			url:      "https://instagram.com/someuser/",
			wantCode: "",
			wantKind: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, kind := extractShortcode(tt.url)
			if code != tt.wantCode || kind != tt.wantKind {
				t.Errorf("extractShortcode(%q) = (%q, %q), want (%q, %q)",
					tt.url, code, kind, tt.wantCode, tt.wantKind)
			}
		})
	}
}

// deadRelay returns a relay with no usable candidates, so relay strategies
// always fail fast.
func deadRelay(t *testing.T) *ProxyRelay {
	t.Helper()
	relay := NewProxyRelay(createTestLogger())
	relay.SetCandidates(nil)
	return relay
}

func TestInstagramGraphAPIShortCircuits(t *testing.T) {
	var oembedHits atomic.Int32

	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "test-token" {
			t.Errorf("Graph API request missing access token")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "12345",
			"caption":        "Beach day #sunset @friend",
			"media_type":     "IMAGE",
			"media_url":      "https://scontent.cdninstagram.com/v/photo.jpg",
			"username":       "beachlover",
			"like_count":     42,
			"comments_count": 7,
		})
	}))
	defer graphServer.Close()

	oembedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		oembedHits.Add(1)
		http.Error(w, "should not be called", http.StatusTeapot)
	}))
	defer oembedServer.Close()

	f := NewInstagramFetcher(createTestLogger(), deadRelay(t))
	f.graphEndpoint = graphServer.URL
	f.oembedEndpoint = oembedServer.URL

	res := f.Fetch(context.Background(), "https://instagram.com/p/CxYzAb12345/", Options{
		InstagramToken: "test-token",
	})

	if res.Source != domain.SourceInstagramGraphAPI {
		t.Fatalf("Source = %q, want %q", res.Source, domain.SourceInstagramGraphAPI)
	}
	if !res.Success {
		t.Error("Success = false for Graph API result")
	}
	if res.Title != "Beach day" {
		t.Errorf("Title = %q, want %q (handles and hashtags stripped)", res.Title, "Beach day")
	}
	if res.Likes != 42 || res.Comments != 7 {
		t.Errorf("Likes/Comments = %d/%d, want 42/7", res.Likes, res.Comments)
	}
	if res.Author != "beachlover" {
		t.Errorf("Author = %q", res.Author)
	}
	if got := oembedHits.Load(); got != 0 {
		t.Errorf("oEmbed endpoint hit %d times; Graph API must short-circuit the chain", got)
	}
}

func TestInstagramGraphAPIVideoUsesThumbnail(t *testing.T) {
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "99",
			"caption":       "clip",
			"media_type":    "VIDEO",
			"media_url":     "https://scontent.cdninstagram.com/v/clip.mp4",
			"thumbnail_url": "https://scontent.cdninstagram.com/v/clip_thumb.jpg",
			"username":      "clips",
		})
	}))
	defer graphServer.Close()

	f := NewInstagramFetcher(createTestLogger(), deadRelay(t))
	f.graphEndpoint = graphServer.URL

	res, err := f.fetchGraphAPI(context.Background(), "https://instagram.com/reel/VID/", "VID", "tok")
	if err != nil {
		t.Fatalf("fetchGraphAPI() error = %v", err)
	}
	if res.Image == nil || *res.Image != "https://scontent.cdninstagram.com/v/clip_thumb.jpg" {
		t.Errorf("Image = %v, want the video thumbnail, not the mp4", res.Image)
	}
	if res.MediaType != "video" {
		t.Errorf("MediaType = %q, want video", res.MediaType)
	}
}

func TestInstagramOEmbedFallsBackWhenNoToken(t *testing.T) {
	oembedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"title":         "coolphotos on Instagram: great shot",
			"author_name":   "coolphotos",
			"thumbnail_url": "https://scontent.cdninstagram.com/thumb.jpg",
		})
	}))
	defer oembedServer.Close()

	f := NewInstagramFetcher(createTestLogger(), deadRelay(t))
	f.oembedEndpoint = oembedServer.URL

	res := f.Fetch(context.Background(), "https://instagram.com/p/ABC123/", Options{})

	if res.Source != domain.SourceInstagramOEmbed {
		t.Fatalf("Source = %q, want %q", res.Source, domain.SourceInstagramOEmbed)
	}
	if res.Image == nil || *res.Image != "https://scontent.cdninstagram.com/thumb.jpg" {
		t.Errorf("Image = %v", res.Image)
	}
}

func TestInstagramDirectHTMLExtraction(t *testing.T) {
	page := `<html><head>
		<meta property="og:title" content="mountainviews on Instagram"/>
		<meta property="og:description" content="Alpine morning"/>
		<meta property="og:image" content="https://scontent.cdninstagram.com/v/alpine.jpg"/>
	</head><body></body></html>`

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "iPhone") {
			t.Errorf("direct fetch must use the mobile user agent, got %q", ua)
		}
		fmt.Fprint(w, page)
	}))
	defer pageServer.Close()

	failingOEmbed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer failingOEmbed.Close()

	f := NewInstagramFetcher(createTestLogger(), deadRelay(t))
	f.oembedEndpoint = failingOEmbed.URL

	res := f.Fetch(context.Background(), pageServer.URL+"/instagram.com/p/XYZ/", Options{})

	if res.Source != domain.SourceInstagramDirect {
		t.Fatalf("Source = %q, want %q", res.Source, domain.SourceInstagramDirect)
	}
	if res.Title != "mountainviews" {
		t.Errorf("Title = %q, want %q", res.Title, "mountainviews")
	}
}

func TestInstagramExtractFromHTML(t *testing.T) {
	f := NewInstagramFetcher(createTestLogger(), deadRelay(t))

	page := `<html><head>
		<meta property="og:title" content="mountainviews on Instagram"/>
		<meta property="og:description" content="Alpine morning"/>
		<meta property="og:image" content="https://scontent.cdninstagram.com/v/alpine.jpg"/>
	</head></html>`

	res := f.extractFromHTML(page, "https://instagram.com/p/XYZ/", "XYZ", "p", domain.SourceInstagramDirect)

	if res == nil {
		t.Fatal("extractFromHTML returned nil for a page with full meta tags")
	}
	if res.Title != "mountainviews" {
		t.Errorf("Title = %q, want %q", res.Title, "mountainviews")
	}
	if res.Image == nil || *res.Image != "https://scontent.cdninstagram.com/v/alpine.jpg" {
		t.Errorf("Image = %v", res.Image)
	}
	if !res.Success {
		t.Error("Success = false for genuine meta extraction")
	}
}

func TestInstagramSharedDataThumbnail(t *testing.T) {
	page := `<html><body><script>window._sharedData = {"entry_data":{"PostPage":[{"graphql":{"shortcode_media":{"display_url":"https://scontent.cdninstagram.com/v/shared.jpg"}}}]}};</script></body></html>`

	got := extractSharedDataDisplayURL(page)
	want := "https://scontent.cdninstagram.com/v/shared.jpg"
	if got != want {
		t.Errorf("extractSharedDataDisplayURL() = %q, want %q", got, want)
	}
}

func TestInstagramDisplayURLRegexFallback(t *testing.T) {
	f := NewInstagramFetcher(createTestLogger(), deadRelay(t))

	body := `{"someblob":true,"display_url":"https:\/\/scontent.cdninstagram.com\/v\/raw.jpg?x=1&y=2"}`
	got := f.extractThumbnailFallbacks(body)
	want := "https://scontent.cdninstagram.com/v/raw.jpg?x=1&y=2"
	if got != want {
		t.Errorf("extractThumbnailFallbacks() = %q, want %q", got, want)
	}
}

func TestUnescapeJSONURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "unicode-escaped ampersands",
			in:   `https:\/\/scontent.cdninstagram.com\/v\/raw.jpg?x=1\u0026y=2`,
			want: "https://scontent.cdninstagram.com/v/raw.jpg?x=1&y=2",
		},
		{
			name: "entity-escaped ampersand",
			in:   "https://scontent.cdninstagram.com/v/raw.jpg?x=1&amp;y=2",
			want: "https://scontent.cdninstagram.com/v/raw.jpg?x=1&y=2",
		},
		{
			name: "plain URL untouched",
			in:   "https://scontent.cdninstagram.com/v/raw.jpg?x=1&y=2",
			want: "https://scontent.cdninstagram.com/v/raw.jpg?x=1&y=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unescapeJSONURL(tt.in); got != tt.want {
				t.Errorf("unescapeJSONURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// errTransport fails every request, simulating total network failure.
type errTransport struct{}

func (errTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network unavailable")
}

func TestInstagramTextualFallback(t *testing.T) {
	f := NewInstagramFetcher(createTestLogger(), deadRelay(t))
	f.httpClient = &http.Client{Transport: errTransport{}}

	res := f.Fetch(context.Background(), "https://instagram.com/reel/RRR123/", Options{})

	if res.Success {
		t.Error("Success = true on textual fallback")
	}
	if res.Source != domain.SourceInstagramTextual {
		t.Errorf("Source = %q, want %q", res.Source, domain.SourceInstagramTextual)
	}
	if !strings.Contains(res.Title, "Reel RRR123") {
		t.Errorf("Title = %q, want it to name the reel ID", res.Title)
	}
}

func TestInstagramFinalFallbackWithoutShortcode(t *testing.T) {
	f := NewInstagramFetcher(createTestLogger(), deadRelay(t))
	f.httpClient = &http.Client{Transport: errTransport{}}

	res := f.Fetch(context.Background(), "https://instagram.com/someprofile/", Options{})

	if res.Source != domain.SourceInstagramFallback {
		t.Errorf("Source = %q, want %q", res.Source, domain.SourceInstagramFallback)
	}
	if res.Image == nil {
		t.Error("final fallback must still carry the placeholder image")
	}
}

func TestCleanInstagramTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "username prefix form keeps the caption",
			title: "sunsets.daily on Instagram: Golden hour over the bay",
			want:  "Golden hour over the bay",
		},
		{
			name:  "prefix form with handles and hashtags",
			title: "sunsets.daily on Instagram: Golden hour #sunset @metoo",
			want:  "Golden hour",
		},
		{
			name:  "suffix form",
			title: "mountainviews on Instagram",
			want:  "mountainviews",
		},
		{
			name:  "already clean",
			title: "Golden hour over the bay",
			want:  "Golden hour over the bay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanInstagramTitle(tt.title); got != tt.want {
				t.Errorf("cleanInstagramTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
