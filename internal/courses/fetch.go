package courses

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	appLog "studycal/internal/log"
)

// Request identifies one remote document. Body is sent with POST requests and
// is part of the cache key.
type Request struct {
	ID     string
	Method string
	URL    string
	Body   []byte
}

// FetchResult contains the outcome of fetching a single document.
type FetchResult struct {
	Request   Request
	Body      []byte
	FromCache bool // true if we reused the cached body (304 or fallback)
}

// cacheEntry holds HTTP cache metadata for a single request.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HTTPDoer is the subset of *http.Client the fetcher needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher fetches remote documents with HTTP caching (ETag /
// Last-Modified) and a disk-backed body cache used as a fallback when the
// remote is unreachable.
type Fetcher struct {
	client   HTTPDoer
	cacheDir string
}

// NewFetcher creates a new Fetcher.
//
// cacheDir is the base directory where per-request cache subdirectories and
// metadata will be stored. Example: "/var/lib/studycal/cache".
func NewFetcher(cacheDir string, timeout time.Duration) *Fetcher {
	if cacheDir == "" {
		// Fallback to a relative dir so that development runs without root
		// permissions.
		cacheDir = "./var/cache"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		cacheDir: cacheDir,
	}
}

// WithClient replaces the HTTP client, mostly for tests.
func (f *Fetcher) WithClient(c HTTPDoer) *Fetcher {
	f.client = c
	return f
}

// Fetch performs req. GET requests send conditional headers from the cache;
// every request falls back to the cached body on network errors and non-OK
// statuses.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (FetchResult, error) {
	if req.URL == "" {
		return FetchResult{}, errors.New("fetch: URL is empty")
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	cachePath := f.cachePathFor(req)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return FetchResult{}, err
	}
	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Conditional headers only make sense for idempotent reads.
	if req.Method == http.MethodGet {
		if meta.ETag != "" {
			httpReq.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			httpReq.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("fetch start", "id", req.ID, "method", req.Method, "url", redactURL(req.URL))

	resp, err := f.client.Do(httpReq)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("fetch network error, using cached body", err, "id", req.ID, "url", redactURL(req.URL))
			return FetchResult{Request: req, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return FetchResult{}, readErr
		}

		newMeta := cacheEntry{
			URL:          req.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := f.saveCache(cachePath, newMeta, data); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("fetch cache save failed", err, "id", req.ID, "url", redactURL(req.URL))
		}

		appLog.Info("fetch success", "id", req.ID, "url", redactURL(req.URL), "status", resp.StatusCode, "from_cache", false)
		return FetchResult{Request: req, Body: data}, nil

	case resp.StatusCode == http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("fetch: received 304 Not Modified but no cached body available")
		}
		appLog.Info("fetch not modified; using cache", "id", req.ID, "url", redactURL(req.URL))
		return FetchResult{Request: req, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("fetch non-OK, using cached body", errors.New(resp.Status), "id", req.ID, "url", redactURL(req.URL), "status", resp.StatusCode)
			return FetchResult{Request: req, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, errors.New("fetch: " + resp.Status)
	}
}

func (f *Fetcher) cachePathFor(req Request) string {
	h := sha256.New()
	h.Write([]byte(req.Method))
	h.Write([]byte{0})
	h.Write([]byte(req.URL))
	h.Write([]byte{0})
	h.Write(req.Body)
	sum := h.Sum(nil)
	// Use first 16 hex chars as directory name.
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
	return os.ReadFile(filepath.Join(cachePath, "body"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL hides paths and query strings, which may carry tokens, from logs.
//
//	https://example.com/path/to/private.ics?token=abcd
//	-> https://example.com/...(redacted)
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "url://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + redactedSuffix
}
