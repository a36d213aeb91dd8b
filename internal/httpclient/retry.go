package httpclient

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryPolicy controls how DoWithRetry reacts to throttling and transient
// server errors. Each condition retries at most once; playlist refreshes run
// on a schedule, so hammering a struggling provider buys nothing.
type RetryPolicy struct {
	Retry429   bool
	Max429Wait time.Duration
	Retry5xx   bool
	Backoff5xx time.Duration
}

// DefaultRetryPolicy suits scheduled playlist refreshes.
var DefaultRetryPolicy = RetryPolicy{
	Retry429:   true,
	Max429Wait: 30 * time.Second,
	Retry5xx:   true,
	Backoff5xx: 2 * time.Second,
}

// DoWithRetry issues req on client, retrying once on 429 (honoring
// Retry-After up to policy.Max429Wait) and once on 5xx after a fixed backoff.
// The caller owns the returned response body.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	var wait time.Duration
	switch {
	case resp.StatusCode == http.StatusTooManyRequests && policy.Retry429:
		wait = parseRetryAfter(resp.Header.Get("Retry-After"), policy.Max429Wait)
	case resp.StatusCode >= 500 && policy.Retry5xx:
		wait = policy.Backoff5xx
	default:
		return resp, nil
	}

	drain(resp)
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	retry, err := cloneRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return client.Do(retry)
}

// parseRetryAfter interprets a Retry-After header as either delay seconds or
// an HTTP date, clamped to max. Missing or malformed values fall back to a
// short fixed wait.
func parseRetryAfter(value string, max time.Duration) time.Duration {
	const fallback = 2 * time.Second
	if value == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(value); err == nil {
		d := time.Duration(secs) * time.Second
		if d < 0 {
			return fallback
		}
		if d > max {
			return max
		}
		return d
	}
	if at, err := http.ParseTime(value); err == nil {
		d := time.Until(at)
		if d < 0 {
			return fallback
		}
		if d > max {
			return max
		}
		return d
	}
	return fallback
}

func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	out, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), nil)
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		for _, v := range values {
			out.Header.Add(key, v)
		}
	}
	return out, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
