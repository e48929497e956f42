package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcher_OK(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("external-image-content"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/media", 5*time.Second, 1<<20)
	content, err := f.Fetch(context.Background(), "test/image")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotPath != "/media/test/image" {
		t.Fatalf("upstream path: got %q", gotPath)
	}
	if string(content.Data) != "external-image-content" {
		t.Fatalf("data: got %q", content.Data)
	}
	if content.ContentType != "image/png" {
		t.Fatalf("content-type: got %q", content.ContentType)
	}
}

func TestHTTPFetcher_DefaultContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil // 上游不回 Content-Type
		w.Write([]byte("raw"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, 5*time.Second, 1<<20)
	content, err := f.Fetch(context.Background(), "x")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if content.ContentType != "application/octet-stream" {
		t.Fatalf("content-type: got %q", content.ContentType)
	}
}

func TestHTTPFetcher_UpstreamStatus(t *testing.T) {
	for _, status := range []int{404, 500} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f := NewHTTPFetcher(srv.URL, 5*time.Second, 1<<20)
		_, err := f.Fetch(context.Background(), "missing/image")
		srv.Close()

		if err == nil {
			t.Fatalf("status %d: Fetch must fail", status)
		}
		var fe *Error
		if !errors.As(err, &fe) {
			t.Fatalf("status %d: error type %T", status, err)
		}
		if fe.StatusCode != status {
			t.Fatalf("StatusCode: got %d, want %d", fe.StatusCode, status)
		}
		if fe.Path != "missing/image" {
			t.Fatalf("Path: got %q", fe.Path)
		}
	}
}

func TestHTTPFetcher_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, 5*time.Second, 64)
	_, err := f.Fetch(context.Background(), "big")
	if err == nil {
		t.Fatal("oversized body accepted")
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	// 连一个已经关闭的服务
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewHTTPFetcher(srv.URL, time.Second, 1<<20)
	_, err := f.Fetch(context.Background(), "x")
	if err == nil {
		t.Fatal("Fetch against closed server must fail")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type %T", err)
	}
	if fe.StatusCode != 0 {
		t.Fatalf("transport error must have StatusCode 0, got %d", fe.StatusCode)
	}
}
