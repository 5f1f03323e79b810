// Package fetch retrieves the schedule document over HTTP and
// orchestrates debounced rebuilds of the in-memory schedule.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	appLog "fosdemcal/internal/log"
)

// cacheEntry holds HTTP cache metadata for a single schedule URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher fetches the schedule XML with HTTP caching (ETag /
// Last-Modified) and a disk-backed body cache. The cache is transport
// caching only; schedule state itself is never persisted.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a schedule Fetcher. cacheDir is the base
// directory for per-URL cache subdirectories.
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		// Fallback to a relative dir so development runs without root
		// permissions.
		cacheDir = "./var/schedule-cache"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// Fetch retrieves the schedule document at url, honoring ETag and
// Last-Modified from the previous fetch. On network errors or non-OK
// statuses a previously cached body is returned instead, so callers
// keep serving stale-but-valid data. fromCache reports which path was
// taken.
func (f *Fetcher) Fetch(ctx context.Context, url string) (body []byte, fromCache bool, err error) {
	if url == "" {
		return nil, false, errors.New("schedule URL is empty")
	}

	cachePath := f.cachePathForURL(url)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, false, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Info("schedule fetch start", "url", url)

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Warn("schedule fetch network error, using cached body", "err", err, "url", url)
			return cachedBody, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		fresh, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, false, readErr
		}

		newMeta := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := f.saveCache(cachePath, newMeta, fresh); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("schedule cache save failed", err, "url", url)
		}

		appLog.Info("schedule fetch success", "url", url, "status", resp.StatusCode, "bytes", len(fresh))
		return fresh, false, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, false, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("schedule not modified; using cache", "url", url)
		return cachedBody, true, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Warn("schedule fetch non-OK, using cached body", "status", resp.StatusCode, "url", url)
			return cachedBody, true, nil
		}
		return nil, false, errors.Errorf("schedule fetch: %s", resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	// First 16 hex chars as directory name.
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.xml"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.xml"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
