package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestFetcherConditionalGet(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("ETag", `"v1"`)
			_, _ = w.Write([]byte("<schedule></schedule>"))
		default:
			if r.Header.Get("If-None-Match") != `"v1"` {
				t.Errorf("missing If-None-Match on revalidation, got %q", r.Header.Get("If-None-Match"))
			}
			w.WriteHeader(http.StatusNotModified)
		}
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	ctx := context.Background()

	body, fromCache, err := f.Fetch(ctx, srv.URL)
	if err != nil {
		t.Fatalf("first Fetch error: %v", err)
	}
	if fromCache || string(body) != "<schedule></schedule>" {
		t.Fatalf("first Fetch = (%q, fromCache=%v)", body, fromCache)
	}

	body, fromCache, err = f.Fetch(ctx, srv.URL)
	if err != nil {
		t.Fatalf("second Fetch error: %v", err)
	}
	if !fromCache || string(body) != "<schedule></schedule>" {
		t.Fatalf("second Fetch = (%q, fromCache=%v), want cached body", body, fromCache)
	}
}

func TestFetcherNonOKFallsBackToCache(t *testing.T) {
	t.Parallel()

	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("cached-body"))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	ctx := context.Background()

	if _, _, err := f.Fetch(ctx, srv.URL); err != nil {
		t.Fatalf("seed Fetch error: %v", err)
	}

	failing.Store(true)
	body, fromCache, err := f.Fetch(ctx, srv.URL)
	if err != nil {
		t.Fatalf("Fetch should fall back to cache, got error: %v", err)
	}
	if !fromCache || string(body) != "cached-body" {
		t.Fatalf("fallback Fetch = (%q, fromCache=%v)", body, fromCache)
	}
}

func TestFetcherNonOKWithoutCacheErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	if _, _, err := f.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error when no cached body exists")
	}
}

func TestFetcherEmptyURL(t *testing.T) {
	t.Parallel()
	f := NewFetcher(t.TempDir())
	if _, _, err := f.Fetch(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
