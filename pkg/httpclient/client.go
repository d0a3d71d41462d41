// Package httpclient provides the configured http.Client the crawler's
// fetch and indexing paths share: explicit timeout, a redirect cap, and an
// optional custom transport for TLS fingerprinting.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Config defines the setup for the HTTP client.
type Config struct {
	Timeout time.Duration
	// MaxRedirects caps how many redirects a request may follow. A
	// negative value disables following entirely and surfaces the
	// redirect response as-is.
	MaxRedirects int
	// Transport overrides the default transport, e.g. for uTLS
	// fingerprinting.
	Transport http.RoundTripper
}

// Client wraps http.Client with the crawler's timeout and redirect policy.
// The crawler holds no cookies; every request goes out jarless.
type Client struct {
	*http.Client
}

// New creates a client from cfg. A zero Timeout defaults to 30 seconds.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &http.Client{
		Timeout: cfg.Timeout,
	}

	if cfg.MaxRedirects >= 0 {
		limit := cfg.MaxRedirects
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) > limit {
				return fmt.Errorf("httpclient: stopped after %d redirects", limit)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{Client: c}, nil
}

// Do executes req under ctx. The context governs cancellation independently
// of the client-level timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("httpclient: context cannot be nil")
	}

	resp, err := c.Client.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return resp, nil
}
