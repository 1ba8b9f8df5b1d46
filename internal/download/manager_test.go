package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zoterharvest/internal/domain"
)

type fakeTranslator struct {
	body   []byte
	status int
	err    error
}

func (f *fakeTranslator) PostURL(ctx context.Context, url string) ([]byte, int, error) {
	return f.body, f.status, f.err
}

func newTestManager(t *testing.T, translator TranslationPoster) *Manager {
	t.Helper()
	mgr := NewManager(translator, Config{
		Delay:          domain.DownloadDelayParams{DefaultDelay: time.Millisecond, MaxDelay: time.Millisecond},
		RequestTimeout: 5 * time.Second,
		IgnoreRobots:   true,
		CacheTTL:       time.Minute,
		Pools:          NewPools(4, 4, 4, 4),
	})
	mgr.Guard().AllowPrivateForTesting(true)
	return mgr
}

func TestManager_DirectDownload_RawSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	mgr := newTestManager(t, &fakeTranslator{})
	item := domain.HarvestableItem{ID: 1, URL: srv.URL + "/article/1"}

	result := mgr.DirectDownload(context.Background(), item, "test-agent", ModeRaw)
	if !result.Success() {
		t.Fatalf("expected success, got error: %v", result.Err)
	}
	if string(result.Body) != "hello world" {
		t.Errorf("body = %q, want %q", result.Body, "hello world")
	}
}

func TestManager_DirectDownload_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	mgr := newTestManager(t, &fakeTranslator{})
	item := domain.HarvestableItem{ID: 1, URL: srv.URL + "/missing"}

	result := mgr.DirectDownload(context.Background(), item, "test-agent", ModeRaw)
	if result.Success() {
		t.Fatal("expected failure for 404 response")
	}
	if result.Err.HTTPCode != http.StatusNotFound {
		t.Errorf("HTTPCode = %d, want %d", result.Err.HTTPCode, http.StatusNotFound)
	}
}

func TestManager_DirectDownload_Translated(t *testing.T) {
	translator := &fakeTranslator{body: []byte(`[{"itemType":"journalArticle"}]`), status: 200}
	mgr := newTestManager(t, translator)
	item := domain.HarvestableItem{ID: 1, URL: "https://example.org/article/1"}

	result := mgr.DirectDownload(context.Background(), item, "test-agent", ModeTranslated)
	if !result.Success() {
		t.Fatalf("expected success, got error: %v", result.Err)
	}
	if string(result.Body) != string(translator.body) {
		t.Errorf("body = %q, want %q", result.Body, translator.body)
	}
}

func TestManager_DirectDownload_CacheCoalesces(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// robots.txt is fetched once per host even with robots ignored;
		// only the article fetches are counted here.
		if r.URL.Path != "/robots.txt" {
			hits++
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("cached"))
	}))
	defer srv.Close()

	mgr := newTestManager(t, &fakeTranslator{})
	item := domain.HarvestableItem{ID: 1, URL: srv.URL + "/same"}

	first := mgr.DirectDownload(context.Background(), item, "test-agent", ModeRaw)
	second := mgr.DirectDownload(context.Background(), item, "test-agent", ModeRaw)

	if !first.Success() || !second.Success() {
		t.Fatalf("expected both downloads to succeed: %v / %v", first.Err, second.Err)
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1 (cache should have served the second request)", hits)
	}
}
