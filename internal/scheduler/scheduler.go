// Package scheduler runs the pool of cooperative crawl workers: popping
// URLs from the shared queue, offloading fetch and parse onto a bounded
// blocking pool, deduplicating and enqueueing discovered links, scoring
// backlinks, shipping page records to the indexer, and coordinating the
// refill-on-empty path through the store's lock.
package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ArunDtej/Re-Search/internal/extract"
	"github.com/ArunDtej/Re-Search/internal/fetch"
	"github.com/ArunDtej/Re-Search/internal/metrics"
	"github.com/ArunDtej/Re-Search/internal/normalize"
	"github.com/ArunDtej/Re-Search/internal/page"
	"github.com/ArunDtej/Re-Search/internal/report"
	"github.com/ArunDtej/Re-Search/internal/store"
	"github.com/ArunDtej/Re-Search/pkg/ratelimit"
)

// Fetcher is the per-URL fetch dependency.
type Fetcher interface {
	Get(ctx context.Context, url string) fetch.Outcome
}

// Shipper delivers completed page records to the indexer.
type Shipper interface {
	Ship(ctx context.Context, records []page.Record) error
}

// Config provides parameters for the scheduler.
type Config struct {
	// Workers is the number of concurrent worker loops.
	Workers int
	// BlockingPool bounds how many fetch+extract pairs may run at once.
	BlockingPool int64
	// PaceRPS is each worker's request pacing in requests per second.
	PaceRPS float64
	// EmptySleep is how long a worker waits after observing an empty or
	// errored queue before trying again.
	EmptySleep time.Duration
	// RefillLockTTL caps how long the refill lock survives a crashed
	// holder.
	RefillLockTTL time.Duration
	// Seeds are the URLs enqueued on refill. Each is normalized before
	// enqueue; entries that fail to normalize are dropped.
	Seeds []string
	// StatusInterval controls how often a progress summary is written to
	// StatusWriter. Zero disables status reporting.
	StatusInterval time.Duration
	// StatusWriter receives periodic progress summaries.
	StatusWriter io.Writer
}

// Scheduler coordinates the crawl workers against the shared store.
type Scheduler struct {
	cfg      Config
	store    store.Adapter
	fetcher  Fetcher
	shipper  Shipper
	logger   *slog.Logger
	blocking *semaphore.Weighted

	start time.Time
	stats stats
}

// stats tracks scheduler progress for the periodic report. All fields are
// updated atomically by workers.
type stats struct {
	fetched         atomic.Int64
	skipped         atomic.Int64
	errors          atomic.Int64
	extracted       atomic.Int64
	linksDiscovered atomic.Int64
	linksEnqueued   atomic.Int64
	indexed         atomic.Int64
}

// New creates a Scheduler. The store, fetcher, and shipper must be ready
// for use; EnsureFilters should already have run on the store.
func New(cfg Config, st store.Adapter, fetcher Fetcher, shipper Shipper, logger *slog.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 200
	}
	if cfg.BlockingPool <= 0 {
		cfg.BlockingPool = 512
	}
	if cfg.PaceRPS <= 0 {
		cfg.PaceRPS = 1
	}
	if cfg.EmptySleep <= 0 {
		cfg.EmptySleep = 10 * time.Second
	}
	if cfg.RefillLockTTL <= 0 {
		cfg.RefillLockTTL = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		cfg:      cfg,
		store:    st,
		fetcher:  fetcher,
		shipper:  shipper,
		logger:   logger,
		blocking: semaphore.NewWeighted(cfg.BlockingPool),
	}
}

// Run spawns the worker pool and blocks until ctx is cancelled. There is no
// other termination path; in production the context lives as long as the
// process.
func (s *Scheduler) Run(ctx context.Context) error {
	s.start = time.Now()
	s.logger.Info("scheduler starting", "workers", s.cfg.Workers, "blocking_pool", s.cfg.BlockingPool)

	g, gCtx := errgroup.WithContext(ctx)

	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			s.worker(gCtx, i)
			return nil
		})
	}

	if s.cfg.StatusInterval > 0 && s.cfg.StatusWriter != nil {
		g.Go(func() error {
			s.statusLoop(gCtx)
			return nil
		})
	}

	return g.Wait()
}

// worker is one infinite crawl loop. Every iteration is wrapped so that any
// error, from any subsystem, logs and continues; the only exit is context
// cancellation.
func (s *Scheduler) worker(ctx context.Context, id int) {
	logger := s.logger.With("worker", id)
	pace := ratelimit.NewLimiter(s.cfg.PaceRPS, 0)
	defer pace.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		url, ok, err := s.store.QueuePop(ctx)
		if err != nil {
			metrics.StoreErrorsTotal.WithLabelValues("queue_pop").Inc()
			logger.Error("queue pop failed", "err", err)
			if !sleepCtx(ctx, s.cfg.EmptySleep) {
				return
			}
			continue
		}

		if !ok {
			if !s.handleEmptyQueue(ctx, logger) {
				return
			}
			continue
		}

		s.crawl(ctx, logger, url)

		if err := pace.Wait(ctx); err != nil {
			return
		}
	}
}

// crawl processes a single popped URL through fetch, extract, dedup,
// scoring, and indexing.
func (s *Scheduler) crawl(ctx context.Context, logger *slog.Logger, rawURL string) {
	outcome, rec := s.fetchAndExtract(ctx, rawURL)

	switch {
	case outcome.Err != nil:
		s.stats.errors.Add(1)
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		logger.Warn("fetch failed", "url", rawURL, "err", outcome.Err)
		return
	case outcome.Skipped:
		s.stats.skipped.Add(1)
		metrics.FetchesTotal.WithLabelValues("skipped").Inc()
		logger.Debug("fetch skipped", "url", rawURL, "reason", outcome.Reason)
		return
	}

	s.stats.fetched.Add(1)
	s.stats.extracted.Add(1)
	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	metrics.ExtractsTotal.Inc()

	links := rec.Links
	s.stats.linksDiscovered.Add(int64(len(links)))
	metrics.LinksDiscoveredTotal.Add(float64(len(links)))

	if len(links) > 0 {
		s.enqueueNewLinks(ctx, logger, links)
	}

	if urlBumps, domainBumps, err := s.store.ScoreBacklinks(ctx, rawURL, links); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("score_backlinks").Inc()
		logger.Error("backlink scoring failed", "url", rawURL, "err", err)
	} else {
		metrics.ScoreBumpsTotal.WithLabelValues("url").Add(float64(urlBumps))
		metrics.ScoreBumpsTotal.WithLabelValues("domain").Add(float64(domainBumps))
	}

	if err := s.shipper.Ship(ctx, []page.Record{rec}); err != nil {
		logger.Warn("indexer ship failed", "url", rawURL, "err", err)
	} else {
		s.stats.indexed.Add(1)
	}
}

// fetchAndExtract runs the two blocking stages of the cycle under the
// blocking-pool semaphore, so parsing and synchronous HTTP transfer never
// run unbounded relative to the worker count.
func (s *Scheduler) fetchAndExtract(ctx context.Context, rawURL string) (fetch.Outcome, page.Record) {
	if err := s.blocking.Acquire(ctx, 1); err != nil {
		return fetch.Outcome{Err: err}, page.Record{}
	}
	defer s.blocking.Release(1)

	start := time.Now()
	outcome := s.fetcher.Get(ctx, rawURL)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if outcome.Err != nil || outcome.Skipped {
		return outcome, page.Record{}
	}

	return outcome, extract.Page(outcome.FinalURL, outcome.Body, outcome.Headers)
}

// enqueueNewLinks digests the page's links, probes the seen filter in one
// pipelined batch, and pushes only the newly seen ones.
func (s *Scheduler) enqueueNewLinks(ctx context.Context, logger *slog.Logger, links []string) {
	digests := make([]string, len(links))
	for i, l := range links {
		digests[i] = normalize.Digest(l)
	}

	fresh, err := s.store.SeenAddBatch(ctx, digests)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("seen_add_batch").Inc()
		logger.Error("seen filter batch failed", "err", err)
		return
	}

	var push []string
	for i, isNew := range fresh {
		if isNew {
			push = append(push, links[i])
		}
	}
	if len(push) == 0 {
		return
	}

	if err := s.store.QueuePushBatch(ctx, push); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("queue_push_batch").Inc()
		logger.Error("queue push batch failed", "err", err)
		return
	}

	s.stats.linksEnqueued.Add(int64(len(push)))
	metrics.LinksEnqueuedTotal.Add(float64(len(push)))
}

// handleEmptyQueue runs the drain path: re-check the length, and if the
// queue is genuinely empty race for the refill lock. Exactly one worker
// refills; the rest sleep and retry. Returns false once ctx is cancelled.
func (s *Scheduler) handleEmptyQueue(ctx context.Context, logger *slog.Logger) bool {
	n, err := s.store.QueueLen(ctx)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("queue_len").Inc()
		logger.Error("queue len failed", "err", err)
		return sleepCtx(ctx, s.cfg.EmptySleep)
	}
	metrics.QueueLength.Set(float64(n))

	if n > 0 {
		return sleepCtx(ctx, s.cfg.EmptySleep)
	}

	acquired, err := s.store.TryAcquireRefillLock(ctx, s.cfg.RefillLockTTL)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("refill_lock").Inc()
		logger.Error("refill lock acquire failed", "err", err)
		return sleepCtx(ctx, s.cfg.EmptySleep)
	}
	if !acquired {
		logger.Info("another worker is refilling, waiting")
		return sleepCtx(ctx, s.cfg.EmptySleep)
	}

	s.refill(ctx, logger)
	return ctx.Err() == nil
}

// refill re-seeds the queue from the seed catalogue. The lock is released
// on every path; its TTL covers a crash mid-refill.
func (s *Scheduler) refill(ctx context.Context, logger *slog.Logger) {
	defer func() {
		if err := s.store.ReleaseRefillLock(ctx); err != nil {
			metrics.StoreErrorsTotal.WithLabelValues("refill_unlock").Inc()
			logger.Error("refill lock release failed", "err", err)
		}
	}()

	urls := make([]string, 0, len(s.cfg.Seeds))
	for _, raw := range s.cfg.Seeds {
		if u, ok := normalize.URL(raw); ok {
			urls = append(urls, u)
		}
	}

	if err := s.store.QueuePushBatch(ctx, urls); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("queue_push_batch").Inc()
		logger.Error("refill push failed", "err", err)
		return
	}

	metrics.RefillsTotal.Inc()
	logger.Info("queue refilled from seed catalogue", "seeds", len(urls))
}

// statusLoop periodically writes a progress summary to the configured
// writer.
func (s *Scheduler) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := report.WriteText(s.cfg.StatusWriter, s.Summary(ctx)); err != nil {
				s.logger.Warn("status report failed", "err", err)
			}
		}
	}
}

// Summary snapshots the scheduler's progress counters, including the
// current queue length when the store can report it.
func (s *Scheduler) Summary(ctx context.Context) report.Summary {
	var queueLen int64
	if n, err := s.store.QueueLen(ctx); err == nil {
		queueLen = n
	}

	return report.Summary{
		StartTime:       s.start,
		Snapshot:        time.Now(),
		Fetched:         int(s.stats.fetched.Load()),
		Skipped:         int(s.stats.skipped.Load()),
		Errors:          int(s.stats.errors.Load()),
		Extracted:       int(s.stats.extracted.Load()),
		LinksDiscovered: int(s.stats.linksDiscovered.Load()),
		LinksEnqueued:   int(s.stats.linksEnqueued.Load()),
		Indexed:         int(s.stats.indexed.Load()),
		QueueLength:     int(queueLen),
	}
}

// sleepCtx sleeps for d or until ctx is cancelled, reporting whether the
// caller should keep running.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
