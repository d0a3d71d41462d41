// Package config loads the crawler's runtime configuration from the
// environment, once at boot.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ArunDtej/Re-Search/internal/indexer"
)

// Defaults for everything except the store connection string, which has no
// sensible default and must be present in the environment.
const (
	DefaultWorkers       = 200
	DefaultBlockingPool  = 512
	DefaultStorePoolSize = 200
	DefaultMetricsAddr   = "127.0.0.1:9090"
	DefaultFetchTimeout  = 30 * time.Second
)

// Config is the crawler's flat runtime configuration.
type Config struct {
	// StoreConnString is the ROCKS_STR connection string for the external
	// key-value store.
	StoreConnString string
	// StorePoolSize bounds the store's shared connection pool.
	StorePoolSize int
	// IndexerURL is the NDJSON ingestion endpoint.
	IndexerURL string
	// Workers is the async worker count.
	Workers int
	// BlockingPool is the blocking-task pool weight that fetch and extract
	// run under.
	BlockingPool int
	// MetricsAddr is the Prometheus /metrics bind address.
	MetricsAddr string
	// FetchTimeout is the per-fetch hard timeout.
	FetchTimeout time.Duration
}

// FromEnv reads the configuration from the process environment. It fails
// only when ROCKS_STR is absent, a set variable does not parse, or a set
// worker or pool count is not positive; unset optional variables fall back
// to their defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		StoreConnString: os.Getenv("ROCKS_STR"),
		StorePoolSize:   DefaultStorePoolSize,
		IndexerURL:      indexer.DefaultEndpoint,
		Workers:         DefaultWorkers,
		BlockingPool:    DefaultBlockingPool,
		MetricsAddr:     DefaultMetricsAddr,
		FetchTimeout:    DefaultFetchTimeout,
	}

	if cfg.StoreConnString == "" {
		return Config{}, fmt.Errorf("config: ROCKS_STR is not set")
	}

	if v := os.Getenv("INDEXER_URL"); v != "" {
		cfg.IndexerURL = v
	}
	if v := os.Getenv("CRAWLER_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	var err error
	if cfg.Workers, err = intFromEnv("CRAWLER_WORKERS", cfg.Workers); err != nil {
		return Config{}, err
	}
	if cfg.BlockingPool, err = intFromEnv("CRAWLER_BLOCKING_POOL", cfg.BlockingPool); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("CRAWLER_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: parse CRAWLER_FETCH_TIMEOUT: %w", err)
		}
		cfg.FetchTimeout = d
	}

	return cfg, nil
}

func intFromEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %d", name, n)
	}
	return n, nil
}
