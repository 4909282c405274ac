// Package archive is the client for the partner archive's access-control
// registry: per-program access lists, account lookups, and grant submission.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrAmbiguous indicates the partner answered with an unexpected response
// shape. The affected identity can be neither confirmed nor denied; callers
// skip it for the cycle instead of guessing.
var ErrAmbiguous = errors.New("ambiguous partner response")

// ErrCreateRestricted indicates an account-creation request for a non-PI
// role, which the phase-1 policy forbids.
var ErrCreateRestricted = errors.New("account creation restricted to PIs")

const defaultTimeout = 30 * time.Second

// Endpoints holds the partner service URLs.
type Endpoints struct {
	// Access is the authenticated access-list and grant endpoint.
	Access string
	// UserCheck is the per-identity account lookup endpoint.
	UserCheck string
}

// Client calls the partner registry. The access endpoint uses HTTP basic
// auth; the user-check endpoint is an unauthenticated proxy.
type Client struct {
	endpoints  Endpoints
	user       string
	password   string
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

// New creates a partner registry client.
func New(endpoints Endpoints, user, password string, opts ...Option) *Client {
	c := &Client{
		endpoints:  endpoints,
		user:       user,
		password:   password,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values, auth bool) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if auth {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("partner returned status %d: %s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrAmbiguous, err)
	}
	return nil
}
