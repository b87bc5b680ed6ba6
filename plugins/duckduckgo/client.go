package duckduckgo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"ddgplugin/logs"
	"ddgplugin/metrics"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	defaultTimeout   = 10 * time.Second
	maxBodySize      = 2 << 20
)

// Fetcher retrieves and decodes one instant answer response. Failures
// surface as a nil result, never as an error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) *APIResult
}

// Client is the HTTP Fetcher. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

var _ Fetcher = (*Client)(nil)

// NewClient returns a client with the given user agent and per-request
// timeout. Zero values fall back to the defaults.
func NewClient(userAgent string, timeout time.Duration) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newCompressedTransport(nil),
		},
		userAgent: userAgent,
	}
}

// Fetch GETs url and decodes the body. It returns nil on transport errors,
// cancellation, non-2xx statuses, empty bodies and malformed JSON.
func (c *Client) Fetch(ctx context.Context, url string) *APIResult {
	start := time.Now()
	defer func() { metrics.FetchDuration.Observe(time.Since(start).Seconds()) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.fail(ctx, "request", "build request for %s: %v", url, err)
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			metrics.FetchFailures.WithLabelValues("cancelled").Inc()
			logs.CtxDebug(ctx, "instant answer request cancelled: %v", err)
			return nil
		}
		c.fail(ctx, "transport", "instant answer request failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.fail(ctx, "status", "instant answer API returned status %d", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			metrics.FetchFailures.WithLabelValues("cancelled").Inc()
			logs.CtxDebug(ctx, "instant answer read cancelled: %v", err)
			return nil
		}
		c.fail(ctx, "read", "read instant answer body: %v", err)
		return nil
	}
	if len(body) == 0 {
		c.fail(ctx, "empty", "instant answer API returned an empty body")
		return nil
	}

	var result APIResult
	if err := sonicStd.Unmarshal(body, &result); err != nil {
		c.fail(ctx, "decode", "decode instant answer response: %v", err)
		return nil
	}
	logs.CtxDebug(ctx, "fetched instant answer in %s (%d bytes)", time.Since(start), len(body))
	return &result
}

func (c *Client) fail(ctx context.Context, reason, format string, v ...interface{}) {
	metrics.FetchFailures.WithLabelValues(reason).Inc()
	logs.CtxWarn(ctx, format, v...)
}
