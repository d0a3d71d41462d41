package store

import (
	"context"
	"time"
)

// Adapter wraps the remote key-value service's queue, probabilistic-set,
// and counter primitives as typed calls. SeenAddBatch and QueuePushBatch
// are each issued as a single pipelined round-trip, and store errors are
// returned for the caller to log and continue, never treated as fatal.
type Adapter interface {
	// EnsureFilters idempotently reserves the three bloom filters with
	// their fixed capacities and false-positive rates, and sets the
	// seen filter's TTL. Safe to call even if the filters already exist.
	EnsureFilters(ctx context.Context) error

	// QueuePop takes one URL from the tail of the crawl queue. ok is
	// false if the queue was empty.
	QueuePop(ctx context.Context) (url string, ok bool, err error)

	// QueuePushBatch pushes urls onto the head of the crawl queue as a
	// single pipelined round-trip.
	QueuePushBatch(ctx context.Context, urls []string) error

	// QueueLen reports the current queue length.
	QueueLen(ctx context.Context) (int64, error)

	// SeenAddBatch probes and adds digests to the seen filter as a
	// single pipelined round-trip. The returned slice is the same
	// length as digests; each entry is true iff that digest was newly
	// added (not previously present).
	SeenAddBatch(ctx context.Context, digests []string) ([]bool, error)

	// ScoreBacklinks runs the filter-gated backlink-scoring procedure
	// for a page crawled at source with outbound links: one at-most-once
	// counter increment per URL and per parseable domain, across the
	// links and the source itself. Each filter add's own result gates
	// its counter increment, so the adds and the increments are not
	// submitted together: the Redis adapter sends all of a page's filter
	// adds as one pipeline and the resulting increments as a second. It
	// reports how many URL and domain counters were actually incremented.
	ScoreBacklinks(ctx context.Context, source string, links []string) (urlBumps, domainBumps int64, err error)

	// TryAcquireRefillLock attempts to set the refill lock with the
	// given TTL if it does not already exist. Returns true if acquired.
	TryAcquireRefillLock(ctx context.Context, ttl time.Duration) (bool, error)

	// ReleaseRefillLock releases the refill lock. Safe to call even if
	// the lock was never held by this caller; failures are logged by
	// the caller, never fatal.
	ReleaseRefillLock(ctx context.Context) error

	// Close releases any resources (connection pools) held by the
	// adapter.
	Close() error
}
