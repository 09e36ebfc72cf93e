package preview

import (
	"log/slog"
	"os"
	"testing"

	"linkstash/internal/domain"
)

// createTestLogger creates a logger for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors during tests
	}))
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Instagram suffix",
			input: "Sunset over the bay on Instagram",
			want:  "Sunset over the bay",
		},
		{
			name:  "Instagram bullet suffix",
			input: "coolphotos • Instagram photos and videos",
			want:  "coolphotos",
		},
		{
			name:  "Facebook suffix",
			input: "Family reunion on Facebook",
			want:  "Family reunion",
		},
		{
			name:  "TikTok make your day",
			input: "Funny cat | TikTok - Make Your Day",
			want:  "Funny cat",
		},
		{
			name:  "bare TikTok landing title",
			input: "TikTok - Make Your Day",
			want:  "",
		},
		{
			name:  "YouTube dash suffix",
			input: "Never Gonna Give You Up - YouTube",
			want:  "Never Gonna Give You Up",
		},
		{
			name:  "already clean",
			input: "Just a normal title",
			want:  "Just a normal title",
		},
		{
			name:  "whitespace collapse",
			input: "too   many    spaces",
			want:  "too many spaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanTitle(tt.input)
			if got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanTitleIdempotent(t *testing.T) {
	inputs := []string{
		"Sunset over the bay on Instagram",
		"Funny cat | TikTok - Make Your Day",
		"Plain title",
		"",
	}

	for _, input := range inputs {
		once := CleanTitle(input)
		twice := CleanTitle(once)
		if once != twice {
			t.Errorf("CleanTitle not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestStripHandlesAndHashtags(t *testing.T) {
	got := StripHandlesAndHashtags("great shot @photographer.one #sunset #nofilter")
	want := "great shot"
	if got != want {
		t.Errorf("StripHandlesAndHashtags() = %q, want %q", got, want)
	}
}

func TestEnhanceFillsDefaults(t *testing.T) {
	res := Enhance(&domain.PreviewResult{}, "https://www.instagram.com/p/ABC/")

	if res.Title != "Instagram Content" {
		t.Errorf("Title = %q, want %q", res.Title, "Instagram Content")
	}
	if res.Description != "View this Instagram content" {
		t.Errorf("Description = %q, want %q", res.Description, "View this Instagram content")
	}
	if res.SiteName != "Instagram" {
		t.Errorf("SiteName = %q, want Instagram", res.SiteName)
	}
	if res.Timestamp == "" {
		t.Error("Timestamp not set")
	}
	if !res.Enhanced {
		t.Error("Enhanced marker not set")
	}
}

func TestEnhanceUnknownHostDerivesSiteName(t *testing.T) {
	res := Enhance(&domain.PreviewResult{}, "https://www.example.org/page")
	if res.SiteName != "example.org" {
		t.Errorf("SiteName = %q, want example.org", res.SiteName)
	}
}

func TestEnhanceEnforcesFallbackInvariant(t *testing.T) {
	res := Enhance(&domain.PreviewResult{
		Title:   "Some title",
		Source:  domain.SourceFacebookFallback,
		Success: true, // wrong on purpose
	}, "https://facebook.com/watch?v=1")

	if res.Success {
		t.Error("Success must be false for a _fallback source")
	}
}

func TestEnhancePreservesGenuineSuccess(t *testing.T) {
	res := Enhance(&domain.PreviewResult{
		Title:   "Real title",
		Source:  domain.SourceYouTubeOEmbed,
		Success: true,
	}, "https://youtube.com/watch?v=dQw4w9WgXcQ")

	if !res.Success {
		t.Error("Success must survive enhancement for a genuine source")
	}
	if res.Title != "Real title" {
		t.Errorf("Title = %q, want unchanged", res.Title)
	}
}
