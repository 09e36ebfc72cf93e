package preview

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func bigPage(marker string) string {
	return "<html><body>" + marker + strings.Repeat("x", minRelayContentLength) + "</body></html>"
}

func TestProxyRelayTriesCandidatesInOrder(t *testing.T) {
	var firstHits, secondHits atomic.Int32

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstHits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondHits.Add(1)
		fmt.Fprint(w, bigPage("second"))
	}))
	defer second.Close()

	relay := NewProxyRelay(createTestLogger())
	relay.SetCandidates([]relayCandidate{
		{Name: "first", Format: first.URL + "/?u=%s"},
		{Name: "second", Format: second.URL + "/?u=%s"},
	})

	body, via, err := relay.Fetch(context.Background(), "https://instagram.com/p/A/", "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if via != "second" {
		t.Errorf("served via %q, want second", via)
	}
	if !strings.Contains(body, "second") {
		t.Error("body did not come from the second relay")
	}
	if firstHits.Load() != 1 {
		t.Errorf("first relay hit %d times, want 1 (tried before second)", firstHits.Load())
	}
	if secondHits.Load() != 1 {
		t.Errorf("second relay hit %d times, want 1", secondHits.Load())
	}
}

func TestProxyRelaySkipsBlacklistedCandidate(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, bigPage("skipme"))
	}))
	defer server.Close()

	relay := NewProxyRelay(createTestLogger())
	relay.SetCandidates([]relayCandidate{
		{Name: "badssl", Format: server.URL + "/?u=%s"},
	})
	relay.Skip("badssl", "certificate failures")

	_, _, err := relay.Fetch(context.Background(), "https://facebook.com/x", "")
	if err == nil {
		t.Fatal("Fetch() succeeded through a skipped candidate")
	}
	if hits.Load() != 0 {
		t.Errorf("skipped candidate was contacted %d times", hits.Load())
	}
}

func TestProxyRelayRejectsShortContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>stub</html>") // far below the acceptance threshold
	}))
	defer server.Close()

	relay := NewProxyRelay(createTestLogger())
	relay.SetCandidates([]relayCandidate{
		{Name: "stubby", Format: server.URL + "/?u=%s"},
	})

	_, _, err := relay.Fetch(context.Background(), "https://instagram.com/p/A/", "")
	if err == nil {
		t.Fatal("Fetch() accepted a body below the content-length threshold")
	}
}

func TestProxyRelayDefaultSkipsThingproxy(t *testing.T) {
	relay := NewProxyRelay(createTestLogger())
	if _, ok := relay.skipped["thingproxy"]; !ok {
		t.Error("thingproxy must be skipped by default")
	}
}

func TestProxyRelayEscapesTargetURL(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, bigPage("ok"))
	}))
	defer server.Close()

	relay := NewProxyRelay(createTestLogger())
	relay.SetCandidates([]relayCandidate{
		{Name: "echo", Format: server.URL + "/?u=%s"},
	})

	target := "https://youtube.com/watch?v=abc&t=10"
	if _, _, err := relay.Fetch(context.Background(), target, ""); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(gotQuery, "watch%3Fv%3Dabc") {
		t.Errorf("target URL not query-escaped: %q", gotQuery)
	}
}

func TestProxyRelayHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	relay := NewProxyRelay(createTestLogger())
	relay.SetCandidates([]relayCandidate{
		{Name: "never", Format: "http://192.0.2.1/%s"},
	})

	_, _, err := relay.Fetch(ctx, "https://instagram.com/p/A/", "")
	if err == nil {
		t.Fatal("Fetch() ignored cancelled context")
	}
}
