// Package indexer ships crawled page records to the downstream ingestion
// endpoint as newline-delimited JSON.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ArunDtej/Re-Search/internal/metrics"
	"github.com/ArunDtej/Re-Search/internal/page"
	"github.com/ArunDtej/Re-Search/pkg/httpclient"
)

// DefaultEndpoint is where batches land unless configured otherwise.
const DefaultEndpoint = "http://127.0.0.1:7280/api/v1/pages/ingest"

const contentTypeNDJSON = "application/x-ndjson"

// Config configures an indexer Client.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Client POSTs NDJSON batches of page records to the ingestion endpoint.
// Failures are returned to the caller; there is no retry and no local
// buffering, so a failed batch is simply lost.
type Client struct {
	endpoint string
	client   *httpclient.Client
	log      *slog.Logger
}

// New builds a Client.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: -1,
	})
	if err != nil {
		return nil, fmt.Errorf("indexer: build client: %w", err)
	}

	return &Client{endpoint: cfg.Endpoint, client: client, log: log}, nil
}

// Ship serializes records one JSON object per line and POSTs the batch.
// Every response's status and body are logged. A non-2xx response or
// transport error is reported through the returned error so the caller can
// log and count it, but callers treat it as non-fatal.
func (c *Client) Ship(ctx context.Context, records []page.Record) error {
	if len(records) == 0 {
		return nil
	}

	batchID := uuid.New().String()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("indexer: encode record %q: %w", rec.URL, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return fmt.Errorf("indexer: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeNDJSON)

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		metrics.IndexerRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("indexer: post batch %s: %w", batchID, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	c.log.Info("indexer response",
		"batch", batchID,
		"records", len(records),
		"status", resp.StatusCode,
		"body", string(body),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.IndexerRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("indexer: batch %s rejected with status %d", batchID, resp.StatusCode)
	}

	metrics.IndexerRequestsTotal.WithLabelValues("ok").Inc()
	return nil
}
