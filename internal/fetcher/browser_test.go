package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

func newTestBrowserFetcher(t *testing.T) *BrowserFetcher {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no local Chromium found")
	}

	cfg := config.DefaultConfig()
	cfg.Crawl.Concurrency = 1
	cfg.Fetcher.RequestTimeout = 10 * time.Second
	bf, err := NewBrowserFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("create browser fetcher: %v", err)
	}
	t.Cleanup(func() { _ = bf.Close() })
	return bf
}

func TestBrowserFetcherRecoversAfterFailedNavigation(t *testing.T) {
	bf := newTestBrowserFetcher(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html><body>rendered</body></html>"))
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	// The single pooled page goes through a failed navigation and a bad
	// status before being reused for a good fetch.
	if _, err := bf.Fetch(context.Background(), mustRequest(t, deadURL)); err == nil {
		t.Fatal("expected error for unreachable host")
	}

	_, err := bf.Fetch(context.Background(), mustRequest(t, srv.URL+"/missing"))
	if !errors.Is(err, types.ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}

	resp, err := bf.Fetch(context.Background(), mustRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("fetch after failures: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if resp.FinalURL == "" || resp.FetchDuration <= 0 {
		t.Errorf("expected final url and duration, got %q %v", resp.FinalURL, resp.FetchDuration)
	}
}

func TestBrowserFetcherCancelledContext(t *testing.T) {
	bf := newTestBrowserFetcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := bf.Fetch(ctx, mustRequest(t, "http://127.0.0.1:1/")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
