// Package metrics exposes Prometheus counters and histograms for the crawl
// control plane, served over /metrics for scraping.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_fetches_total",
			Help: "Total number of fetch attempts by outcome",
		},
		[]string{"outcome"}, // ok, skipped, error
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Duration of fetch calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	ExtractsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_extracts_total",
			Help: "Total number of pages run through the HTML extractor",
		},
	)

	LinksDiscoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_links_discovered_total",
			Help: "Total number of outbound links discovered across all pages",
		},
	)

	LinksEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_links_enqueued_total",
			Help: "Total number of links newly enqueued after dedup",
		},
	)

	ScoreBumpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_score_bumps_total",
			Help: "Total number of backlink counter increments",
		},
		[]string{"kind"}, // url, domain
	)

	IndexerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_indexer_requests_total",
			Help: "Total number of indexer POSTs by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_store_errors_total",
			Help: "Total number of store operation failures",
		},
		[]string{"op"},
	)

	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crawler_queue_length",
			Help: "Most recently observed crawl queue length",
		},
	)

	RefillsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_refills_total",
			Help: "Total number of successful queue refills from the seed catalogue",
		},
	)

	ProtectionSignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_protection_signals_total",
			Help: "Total number of bot-protection challenge signatures observed post-fetch",
		},
		[]string{"source"},
	)
)

// Server encapsulates the HTTP server exposing /metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on addr and exposes /metrics. The server runs in a
// background goroutine and must be stopped via Server.Stop to release
// resources.
func Start(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
