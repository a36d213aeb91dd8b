// Package httpclient provides the shared tuned HTTP client used by the
// playlist fetcher and health checks, plus retry behavior for the throttling
// and flakiness typical of IPTV providers.
package httpclient

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout covers full playlist downloads; provider exports can be
	// hundreds of MB over slow links.
	DefaultTimeout         = 120 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
	MaxIdleConnsPerHost    = 8
)

var defaultClient = &http.Client{
	Timeout: DefaultTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: MaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	},
}

// Default returns the shared client.
func Default() *http.Client {
	return defaultClient
}

// WithTimeout returns a client sharing Default's transport settings but with
// the given overall timeout.
func WithTimeout(timeout time.Duration) *http.Client {
	t, ok := defaultClient.Transport.(*http.Transport)
	if !ok {
		return &http.Client{Timeout: timeout}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: t.Clone(),
	}
}
