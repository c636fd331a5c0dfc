// Package fetch provides the shared rate-limited HTTP client used for all
// remote regulatory and market-data calls. A single token bucket plus a
// global concurrency cap keep the aggregate request rate below the remote
// API ceiling regardless of how many workers are in flight.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// SEC fair-access policy allows 10 requests per second.
	defaultRate        = 10
	defaultBurst       = 10
	defaultConcurrency = 10
	defaultTimeout     = 30 * time.Second

	// Cap on how much of an error body we keep for diagnostics.
	maxErrorBody = 8 << 10
)

// Doer performs HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Limiter gates request issuance. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client issues rate-limited HTTP GETs. It applies no retry policy;
// callers own retries.
type Client struct {
	client    Doer
	limiter   Limiter
	inflight  *semaphore.Weighted
	userAgent string
}

// Option configures a Client.
type Option func(c *Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.client = d }
}

// WithLimiter replaces the shared token bucket.
func WithLimiter(l Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithConcurrency caps the number of in-flight requests across all callers.
func WithConcurrency(n int64) Option {
	return func(c *Client) { c.inflight = semaphore.NewWeighted(n) }
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient builds a client with the default 10 req/s bucket, 10-slot
// concurrency cap and 30s per-request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: defaultTimeout}
	}
	if c.limiter == nil {
		c.limiter = rate.NewLimiter(defaultRate, defaultBurst)
	}
	if c.inflight == nil {
		c.inflight = semaphore.NewWeighted(defaultConcurrency)
	}
	return c
}

// Do issues a prepared request through the shared limiter and concurrency
// cap. Non-2xx responses are returned as *HTTPError; network and timeout
// failures as *TransportError. On success the caller owns resp.Body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	url := req.URL.String()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	defer c.inflight.Release(1)

	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &HTTPError{URL: url, Status: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

// Get performs a rate-limited GET of a JSON endpoint.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// GetJSON performs a rate-limited GET and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
