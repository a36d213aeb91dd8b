// Package health checks reachability of playlist sources and of the local
// HTTP surface, for startup validation and the /healthz endpoint.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/streamcat/stream-catalog/internal/safeurl"
)

// CheckSource fetches the playlist URL. Returns nil if reachable, an error
// with a redacted URL otherwise.
func CheckSource(ctx context.Context, sourceURL string) error {
	if sourceURL == "" {
		return fmt.Errorf("no playlist URL configured")
	}
	if !safeurl.IsHTTPOrHTTPS(sourceURL) {
		return fmt.Errorf("%s: not an http/https URL", safeurl.Redact(sourceURL))
	}
	// Many panels reject HEAD; use GET and discard the body immediately.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("source unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("source returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// CheckEndpoints hits the local metrics and health endpoints at baseURL and
// returns the first failure, or nil.
func CheckEndpoints(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	for _, path := range []string{"/healthz", "/metrics"} {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
		}
	}
	return nil
}
