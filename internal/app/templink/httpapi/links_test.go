package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"media.local/internal/app/templink"
	"media.local/internal/app/templink/fetch"
	"media.local/internal/app/templink/sign"
	"media.local/internal/app/templink/stats"
	"media.local/internal/app/templink/storage"
	"media.local/internal/platform/clock"
	"media.local/internal/platform/locking"
)

type mapFetcher map[string]*storage.Content

func (m mapFetcher) Fetch(ctx context.Context, path string) (*storage.Content, error) {
	c, ok := m[path]
	if !ok {
		return nil, &fetch.Error{Path: path, StatusCode: 404}
	}
	return c, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *clock.Frozen) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemStore()
	fetcher := mapFetcher{
		"test/image": {Data: []byte("external-image-content"), ContentType: "image/png"},
	}
	signer, err := sign.New("test-secret", "http://localhost:9990")
	if err != nil {
		t.Fatalf("sign.New: %v", err)
	}
	clk := clock.NewFrozen(time.Unix(1737729800, 0))
	svc := templink.NewService(store, fetcher, signer, clk, locking.NewMemLock(), nil, time.Hour)

	collector := stats.NewChannelCollector(100)
	t.Cleanup(collector.Close)

	r := gin.New()
	RegisterPublicRoutes(r, svc, collector, nil)
	return r, clk
}

func TestRedirectHandler(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t/test/image", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302 (body: %s)", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "/f/test/image?") {
		t.Fatalf("Location: %s", loc)
	}
	if !strings.Contains(loc, "expires=1737733400") {
		t.Fatalf("Location expires: %s", loc)
	}
}

func TestRedirectHandler_NotFound(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t/missing/image", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
}

func TestServeHandler_RoundTrip(t *testing.T) {
	r, _ := setupRouter(t)

	// 先拿签名链接
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t/test/image", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("redirect status: got %d", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}

	// 再按链接取内容
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, loc.Path+"?"+loc.RawQuery, nil))

	if w2.Code != http.StatusOK {
		t.Fatalf("serve status: got %d (body: %s)", w2.Code, w2.Body.String())
	}
	if w2.Body.String() != "external-image-content" {
		t.Fatalf("body: got %q", w2.Body.String())
	}
	if ct := w2.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content-type: got %q", ct)
	}
}

func TestServeHandler_Expired(t *testing.T) {
	r, clk := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t/test/image", nil))
	loc, _ := url.Parse(w.Header().Get("Location"))

	clk.Advance(2 * time.Hour)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, loc.Path+"?"+loc.RawQuery, nil))
	if w2.Code != http.StatusForbidden {
		t.Fatalf("expired link status: got %d, want 403", w2.Code)
	}
}

func TestServeHandler_TamperedSignature(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t/test/image", nil))
	loc, _ := url.Parse(w.Header().Get("Location"))

	q := loc.Query()
	q.Set("sig", "deadbeef")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, loc.Path+"?"+q.Encode(), nil))
	if w2.Code != http.StatusForbidden {
		t.Fatalf("tampered sig status: got %d, want 403", w2.Code)
	}
}

func TestServeHandler_MissingParams(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/f/test/image", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing params status: got %d, want 400", w.Code)
	}
}
