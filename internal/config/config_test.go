package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("ROCKS_STR", "redis://127.0.0.1:6379/0")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreConnString != "redis://127.0.0.1:6379/0" {
		t.Errorf("conn string = %q", cfg.StoreConnString)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.BlockingPool != DefaultBlockingPool {
		t.Errorf("blocking pool = %d, want %d", cfg.BlockingPool, DefaultBlockingPool)
	}
	if cfg.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("fetch timeout = %v, want %v", cfg.FetchTimeout, DefaultFetchTimeout)
	}
	if cfg.IndexerURL == "" || cfg.MetricsAddr == "" {
		t.Errorf("missing defaults: indexer=%q metrics=%q", cfg.IndexerURL, cfg.MetricsAddr)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ROCKS_STR", "redis://store:6379")
	t.Setenv("INDEXER_URL", "http://indexer:7280/api/v1/pages/ingest")
	t.Setenv("CRAWLER_WORKERS", "8")
	t.Setenv("CRAWLER_BLOCKING_POOL", "16")
	t.Setenv("CRAWLER_METRICS_ADDR", "0.0.0.0:9999")
	t.Setenv("CRAWLER_FETCH_TIMEOUT", "5s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 8 || cfg.BlockingPool != 16 {
		t.Errorf("workers=%d blocking=%d", cfg.Workers, cfg.BlockingPool)
	}
	if cfg.IndexerURL != "http://indexer:7280/api/v1/pages/ingest" {
		t.Errorf("indexer url = %q", cfg.IndexerURL)
	}
	if cfg.MetricsAddr != "0.0.0.0:9999" {
		t.Errorf("metrics addr = %q", cfg.MetricsAddr)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("fetch timeout = %v", cfg.FetchTimeout)
	}
}

func TestFromEnv_MissingConnString(t *testing.T) {
	t.Setenv("ROCKS_STR", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected an error when ROCKS_STR is unset")
	}
}

func TestFromEnv_BadValues(t *testing.T) {
	t.Setenv("ROCKS_STR", "redis://127.0.0.1:6379")

	t.Setenv("CRAWLER_WORKERS", "zero")
	if _, err := FromEnv(); err == nil {
		t.Error("expected an error for unparseable CRAWLER_WORKERS")
	}
	t.Setenv("CRAWLER_WORKERS", "-3")
	if _, err := FromEnv(); err == nil {
		t.Error("expected an error for negative CRAWLER_WORKERS")
	}
	t.Setenv("CRAWLER_WORKERS", "")

	t.Setenv("CRAWLER_FETCH_TIMEOUT", "fast")
	if _, err := FromEnv(); err == nil {
		t.Error("expected an error for unparseable CRAWLER_FETCH_TIMEOUT")
	}
}
