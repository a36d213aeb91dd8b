// Package fetch retrieves raw playlist text from provider URLs. All network
// I/O of the pipeline lives here; parsing and classification stay pure.
package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/streamcat/stream-catalog/internal/cache"
	"github.com/streamcat/stream-catalog/internal/httpclient"
	"github.com/streamcat/stream-catalog/internal/safeurl"
)

const (
	// maxPlaylistBytes caps how much playlist body is read; provider exports
	// with tens of thousands of entries stay well under this.
	maxPlaylistBytes = 512 << 20

	defaultUserAgent = "stream-catalog/1.0"
)

// Config drives a Fetcher. Zero values get safe defaults from New.
type Config struct {
	UserAgent string
	// RequestsPerHost throttles requests per provider host (req/s).
	// Providers ban aggressive clients; default 1.
	RequestsPerHost float64
	// CacheDir, when set, keeps a copy of the last fetched playlist per
	// source so a failed refresh can fall back to stale content.
	CacheDir string
}

// Fetcher downloads playlists with per-host rate limiting, retry on 429/5xx,
// content-encoding and charset handling.
type Fetcher struct {
	cfg    Config
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New returns a Fetcher. If client is nil, httpclient.Default() is used.
func New(cfg Config, client *http.Client) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RequestsPerHost <= 0 {
		cfg.RequestsPerHost = 1
	}
	if client == nil {
		client = httpclient.Default()
	}
	return &Fetcher{
		cfg:      cfg,
		client:   client,
		limiters: map[string]*rate.Limiter{},
	}
}

// Playlist fetches the playlist at rawURL and returns its decoded text.
// On success the raw text is also written to the cache (when configured);
// on failure a cached copy, if any, is returned with stale=true.
func (f *Fetcher) Playlist(ctx context.Context, rawURL string) (content string, stale bool, err error) {
	content, err = f.fetch(ctx, rawURL)
	if err == nil {
		if f.cfg.CacheDir != "" {
			// Cache write failures are non-fatal; next refresh retries.
			_ = cache.WritePlaylist(f.cfg.CacheDir, rawURL, content)
		}
		return content, false, nil
	}
	if f.cfg.CacheDir != "" {
		if cached, cacheErr := cache.ReadPlaylist(f.cfg.CacheDir, rawURL); cacheErr == nil {
			return cached, true, nil
		}
	}
	return "", false, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	if !safeurl.IsHTTPOrHTTPS(rawURL) {
		return "", fmt.Errorf("fetch %s: only http/https playlist sources are allowed", safeurl.Redact(rawURL))
	}
	if err := f.waitHost(ctx, rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	// Manual Accept-Encoding: the transport then leaves decompression to us,
	// which lets us accept brotli as well as gzip.
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := httpclient.DoWithRetry(ctx, f.client, req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", safeurl.Redact(rawURL), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", errStatusCode(resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", safeurl.Redact(rawURL), err)
	}
	data, err := io.ReadAll(io.LimitReader(body, maxPlaylistBytes))
	if err != nil {
		return "", fmt.Errorf("fetch %s: read body: %w", safeurl.Redact(rawURL), err)
	}
	return string(data), nil
}

// decodeBody unwraps Content-Encoding and converts legacy charsets to UTF-8
// so downstream normalization (accent folding) sees sane runes.
func decodeBody(resp *http.Response) (io.Reader, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip":
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		r = gzr
	case "br":
		r = brotli.NewReader(r)
	default:
		return nil, fmt.Errorf("unsupported content-encoding %q", resp.Header.Get("Content-Encoding"))
	}
	decoded, err := charset.NewReader(r, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("charset: %w", err)
	}
	return decoded, nil
}

// waitHost blocks until the per-host limiter grants a slot.
func (f *Fetcher) waitHost(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	f.mu.Lock()
	lim, ok := f.limiters[u.Host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.cfg.RequestsPerHost), 1)
		f.limiters[u.Host] = lim
	}
	f.mu.Unlock()
	return lim.Wait(ctx)
}

type errStatusCode int

func (e errStatusCode) Error() string {
	return "unexpected status: " + strconv.Itoa(int(e))
}

// IsNotFound reports whether err is an HTTP 404 from the provider.
func IsNotFound(err error) bool {
	var sc errStatusCode
	return errors.As(err, &sc) && int(sc) == http.StatusNotFound
}

// RefreshEvery runs fn on every tick until ctx is done. The first run happens
// one interval in; callers wanting an immediate pass run fn themselves first.
// A non-positive interval disables refresh and returns immediately.
func RefreshEvery(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}
