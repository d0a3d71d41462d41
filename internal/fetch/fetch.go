// Package fetch issues the single HTTP GET each worker performs per crawl
// cycle, over a fingerprinted transport with rotated User-Agent strings.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ArunDtej/Re-Search/internal/bypass"
	"github.com/ArunDtej/Re-Search/internal/fingerprint"
	"github.com/ArunDtej/Re-Search/pkg/httpclient"
	"github.com/ArunDtej/Re-Search/pkg/useragent"
)

func httpRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
}

// Outcome is the result of a fetch attempt. Err is set on a hard failure
// (building the request, the network, or reading the body); otherwise
// Skipped with its Reason marks a response that is not crawled, and a
// non-skipped outcome carries Body, Headers and FinalURL.
type Outcome struct {
	Skipped bool
	Reason  string

	Body     []byte
	Headers  map[string][]string // lowercased keys
	FinalURL string

	Err error
}

// Config configures a Fetcher.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	Profile      fingerprint.Profile
}

// Fetcher performs the crawler's GET requests. One Fetcher is shared across
// all workers; it holds a single long-lived *http.Client.
type Fetcher struct {
	client *httpclient.Client
	uas    *useragent.Pool
	log    *slog.Logger
}

// New builds a Fetcher. profile selects the TLS fingerprint the transport
// presents; it should match the rotated User-Agent's browser family closely
// enough to avoid an obvious mismatch.
func New(cfg Config, log *slog.Logger) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = 10
	}
	if cfg.Profile == "" {
		cfg.Profile = fingerprint.ProfileChrome
	}
	if log == nil {
		log = slog.Default()
	}

	transport, err := fingerprint.Transport(cfg.Profile, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch: build client: %w", err)
	}

	return &Fetcher{
		client: client,
		uas:    useragent.NewPool(nil),
		log:    log,
	}, nil
}

// Get issues the GET for url and classifies the response per the crawler's
// fetch contract: non-200 status and non-HTML content types are reported as
// Skipped, not errors.
func (f *Fetcher) Get(ctx context.Context, rawURL string) Outcome {
	req, err := httpRequest(ctx, rawURL)
	if err != nil {
		return Outcome{Err: fmt.Errorf("fetch: build request: %w", err)}
	}

	req.Header.Set("User-Agent", f.uas.GetRandom())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	// Accept-Encoding stays unset: the transport only decompresses gzip
	// transparently when it negotiated the encoding itself.

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		return Outcome{Err: err}
	}
	defer resp.Body.Close()

	headers := make(map[string][]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[strings.ToLower(k)] = v
	}

	if resp.StatusCode != http.StatusOK {
		// Challenge pages hide behind 403/503; sniff the rejection for
		// known signatures before dropping it.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if detected, source := bypass.Analyze(resp.StatusCode, headers, body); detected {
			f.log.Warn("possible bot-protection challenge", "url", rawURL, "source", source)
		}
		return Outcome{Skipped: true, Reason: fmt.Sprintf("http-%d", resp.StatusCode)}
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "text/html") {
		return Outcome{Skipped: true, Reason: "non-html"}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Err: fmt.Errorf("fetch: read body: %w", err)}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return Outcome{Body: body, Headers: headers, FinalURL: finalURL}
}
