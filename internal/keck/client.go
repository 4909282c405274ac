// Package keck is the client for the observatory's internal APIs: telescope
// schedule, employee directory, observer info, and program coversheets.
package keck

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNoData indicates an upstream source answered with no usable data. The
// schedule and employee sources are must-succeed: callers abort the run on
// this error rather than reconcile against a partial picture.
var ErrNoData = errors.New("no data response")

const (
	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
)

// Endpoints holds the per-service URLs, one per upstream API.
type Endpoints struct {
	Schedule string
	Employee string
	Observer string
	COI      string
	KOA      string
	KPF      string
	UserInfo string
}

// Client calls the observatory APIs. All methods block on the request and
// return decoded values; there is no caching.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithInsecureTLS skips certificate verification. The internal appservers
// present self-signed certificates.
func WithInsecureTLS() Option {
	return func(c *Client) {
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// New creates a client for the given endpoints.
func New(endpoints Endpoints, opts ...Option) *Client {
	c := &Client{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON performs a GET with query parameters and decodes the JSON body
// into v. Transport errors are retried with linear backoff.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, v any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	u.RawQuery = params.Encode()

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return fmt.Errorf("request failed after retries: %w", lastErr)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d from %s", ErrNoData, resp.StatusCode, u.Host)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body from %s", ErrNoData, u.Host)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing response from %s: %w", u.Host, err)
	}
	return nil
}
