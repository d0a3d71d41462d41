// Command recrawl runs the crawl control plane: it connects to the
// external key-value store, reserves the dedup and scoring filters, and
// drives the worker pool until the process is killed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArunDtej/Re-Search/internal/config"
	"github.com/ArunDtej/Re-Search/internal/fetch"
	"github.com/ArunDtej/Re-Search/internal/indexer"
	"github.com/ArunDtej/Re-Search/internal/metrics"
	"github.com/ArunDtej/Re-Search/internal/scheduler"
	"github.com/ArunDtej/Re-Search/internal/seed"
	"github.com/ArunDtej/Re-Search/internal/store/redisstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "recrawl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	st, err := redisstore.New(redisstore.Config{
		ConnString: cfg.StoreConnString,
		PoolSize:   cfg.StorePoolSize,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Filter reservation is best-effort: the filters usually already
	// exist from a previous run.
	if err := st.EnsureFilters(ctx); err != nil {
		logger.Warn("filter reservation failed", "err", err)
	}

	metricsSrv := metrics.Start(cfg.MetricsAddr)
	defer metricsSrv.Stop(context.Background())
	logger.Info("metrics listening", "addr", cfg.MetricsAddr)

	fetcher, err := fetch.New(fetch.Config{Timeout: cfg.FetchTimeout}, logger)
	if err != nil {
		return err
	}

	shipper, err := indexer.New(indexer.Config{Endpoint: cfg.IndexerURL}, logger)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Config{
		Workers:        cfg.Workers,
		BlockingPool:   int64(cfg.BlockingPool),
		Seeds:          seed.URLs(),
		StatusInterval: time.Minute,
		StatusWriter:   os.Stdout,
	}, st, fetcher, shipper, logger)

	logger.Info("crawler starting", "workers", cfg.Workers, "indexer", cfg.IndexerURL)
	return sched.Run(ctx)
}
