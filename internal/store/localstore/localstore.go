// Package localstore implements store.Adapter entirely in-process, for
// tests and local development without a Redis/RedisBloom deployment. It
// uses github.com/bits-and-blooms/bloom/v3 for the three probabilistic
// sets and a mutex-guarded slice/map for the queue and counters, mirroring
// the same filter-gated increment semantics the Redis-backed adapter
// provides over the network.
package localstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/ArunDtej/Re-Search/internal/store"
)

// Store is an in-memory store.Adapter.
type Store struct {
	mu sync.Mutex

	queue []string

	seen      *bloom.BloomFilter
	urlScore  *bloom.BloomFilter
	domScore  *bloom.BloomFilter
	urlCounts map[string]int64
	domCounts map[string]int64

	refillLockedUntil time.Time
}

// New returns an empty in-memory Store. Call EnsureFilters before use, as
// with the production adapter: SeenAddBatch and ScoreBacklinks return an
// error until the filters exist.
func New() *Store {
	return &Store{
		urlCounts: make(map[string]int64),
		domCounts: make(map[string]int64),
	}
}

var _ store.Adapter = (*Store)(nil)

func (s *Store) Close() error { return nil }

// EnsureFilters creates the three in-memory filters, each sized for
// 1,000,000 entries at the store's FP rates. It does not use the store's
// reserved capacities, and the seen filter has no TTL.
func (s *Store) EnsureFilters(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = bloom.NewWithEstimates(1_000_000, store.SeenFilterFP)
	}
	if s.urlScore == nil {
		s.urlScore = bloom.NewWithEstimates(1_000_000, store.URLScoreFilterFP)
	}
	if s.domScore == nil {
		s.domScore = bloom.NewWithEstimates(1_000_000, store.DomainScoreFilterFP)
	}
	return nil
}

func (s *Store) QueuePop(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false, nil
	}
	// RPOP semantics: take from the tail.
	last := len(s.queue) - 1
	url := s.queue[last]
	s.queue = s.queue[:last]
	return url, true, nil
}

func (s *Store) QueuePushBatch(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// LPUSH semantics: each push lands at the head, so pushing
	// [a, b, c] individually leaves the queue head-to-tail as [c, b, a, ...old].
	pushed := make([]string, len(urls))
	for i, u := range urls {
		pushed[len(urls)-1-i] = u
	}
	s.queue = append(pushed, s.queue...)
	return nil
}

func (s *Store) QueueLen(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.queue)), nil
}

func (s *Store) SeenAddBatch(ctx context.Context, digests []string) ([]bool, error) {
	if len(digests) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		return nil, fmt.Errorf("localstore: filters not initialized, call EnsureFilters")
	}

	out := make([]bool, len(digests))
	for i, d := range digests {
		key := []byte(d)
		existed := s.seen.Test(key)
		s.seen.Add(key)
		out[i] = !existed
	}
	return out, nil
}

func (s *Store) ScoreBacklinks(ctx context.Context, source string, links []string) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urlScore == nil || s.domScore == nil {
		return 0, 0, fmt.Errorf("localstore: filters not initialized, call EnsureFilters")
	}

	targets := append([]string{}, links...)
	targets = append(targets, source)

	var urlBumps, domainBumps int64
	for _, target := range targets {
		if s.bumpURLLocked(target) {
			urlBumps++
		}
		if domain, ok := store.DomainOf(target); ok {
			if s.bumpDomainLocked(domain) {
				domainBumps++
			}
		}
	}
	return urlBumps, domainBumps, nil
}

func (s *Store) bumpURLLocked(url string) bool {
	key := []byte(url)
	if s.urlScore.Test(key) {
		return false
	}
	s.urlScore.Add(key)
	s.urlCounts[url]++
	return true
}

func (s *Store) bumpDomainLocked(domain string) bool {
	key := []byte(domain)
	if s.domScore.Test(key) {
		return false
	}
	s.domScore.Add(key)
	s.domCounts[domain]++
	return true
}

// URLScore returns the current backlink counter for url. Exposed for tests.
func (s *Store) URLScore(url string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urlCounts[url]
}

// DomainScore returns the current backlink counter for domain. Exposed for
// tests.
func (s *Store) DomainScore(domain string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domCounts[domain]
}

func (s *Store) TryAcquireRefillLock(ctx context.Context, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if now.Before(s.refillLockedUntil) {
		return false, nil
	}
	s.refillLockedUntil = now.Add(ttl)
	return true, nil
}

func (s *Store) ReleaseRefillLock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refillLockedUntil = time.Time{}
	return nil
}
