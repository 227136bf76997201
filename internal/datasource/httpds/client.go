// Package httpds fetches input tables over HTTP(S).
//
// The client only issues GETs. Transient failures (transport errors and
// 408/429/5xx gateway statuses) are retried with capped exponential backoff;
// any other response is handed back to the caller as is.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultInitialBackoff = 200 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultUserAgent      = "orderetl"
)

// Config controls the HTTP client. Zero values select the defaults above.
// A zero Timeout means no timeout and MaxRetries defaults to 0 (a single
// attempt).
type Config struct {
	Timeout            time.Duration
	MaxRetries         int
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
	InsecureSkipVerify bool
	UserAgent          string

	// Transport replaces the default transport. InsecureSkipVerify is
	// ignored when it is set.
	Transport http.RoundTripper
}

// Client downloads tables. It is safe for concurrent use.
type Client struct {
	hc         *http.Client
	userAgent  string
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration

	// sleep replaces the backoff timer in tests.
	sleep func(time.Duration)
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	rt := cfg.Transport
	if rt == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed test hosts
		}
		rt = t
	}

	return &Client{
		hc:         &http.Client{Timeout: cfg.Timeout, Transport: rt},
		userAgent:  cfg.UserAgent,
		retries:    cfg.MaxRetries,
		backoff:    cfg.InitialBackoff,
		maxBackoff: cfg.MaxBackoff,
	}
}

// RetryError is returned when every attempt failed at the transport level.
type RetryError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("httpds: GET %s: giving up after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// Get issues a GET for url. The response of the last attempt is returned
// whatever its status; the caller closes its body. A transport failure on
// the last attempt yields a *RetryError. Context cancellation is never
// retried.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	attempts := c.retries + 1
	for attempt := 0; ; attempt++ {
		last := attempt == attempts-1

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/csv, */*;q=0.5")

		resp, err := c.hc.Do(req)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if last {
				return nil, &RetryError{URL: url, Attempts: attempt + 1, Err: err}
			}
		case !retryable(resp.StatusCode) || last:
			return resp, nil
		}

		delay := c.delay(attempt)
		if resp != nil {
			if d, ok := retryAfter(resp); ok {
				delay = min(d, c.maxBackoff)
			}
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			_ = resp.Body.Close()
		}
		if err := c.wait(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func retryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// delay returns backoff*2^attempt, capped at maxBackoff.
func (c *Client) delay(attempt int) time.Duration {
	d := c.backoff
	for i := 0; i < attempt && d < c.maxBackoff; i++ {
		d *= 2
	}
	return min(d, c.maxBackoff)
}

// retryAfter reads a Retry-After header given in seconds. HTTP-date values
// are ignored.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		c.sleep(d)
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
