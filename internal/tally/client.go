// =============================================================================
// CSV to Tally Sync - Tally Transport Client
// =============================================================================
//
// This module posts XML envelopes to the Tally import endpoint and returns
// the raw response body. It bounds every call with a timeout and can pace
// calls with a rate limiter. It never retries; retry policy belongs to the
// caller.
//
// =============================================================================

// Package tally talks to the Tally XML import endpoint: it posts request
// bodies and interprets what comes back.
package tally

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single call when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	contentType     = "text/xml"
	maxResponseSize = 10 << 20
)

// Client posts XML envelopes to a fixed endpoint.
// It never retries; retry policy belongs to the caller.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit paces outgoing requests to at most rps per second.
// Zero or less disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient constructs a new client.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the target URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts body and returns the raw response body.
// Any failure to obtain a 2xx response is returned as a *TransportError.
func (c *Client) Send(ctx context.Context, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Endpoint: c.endpoint, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Endpoint: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: c.endpoint, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Endpoint: c.endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Endpoint:   c.endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return data, nil
}
