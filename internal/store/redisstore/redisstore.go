// Package redisstore implements store.Adapter against a Redis/RedisBloom
// deployment, reached via the connection string in ROCKS_STR. The
// RedisBloom commands it uses (BF.RESERVE, BF.ADD, BF.MADD) have no typed
// go-redis API, so they are issued through redis.Client.Do.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ArunDtej/Re-Search/internal/store"
)

// Config configures a Redis-backed Adapter.
type Config struct {
	// ConnString is the ROCKS_STR-style Redis connection string, e.g.
	// "redis://127.0.0.1:6379/0".
	ConnString string
	PoolSize   int
}

// Store is a store.Adapter backed by Redis and RedisBloom.
type Store struct {
	client *redis.Client
}

// New parses cfg.ConnString and returns a connected Store. It does not
// ensure the filters exist; call EnsureFilters before spawning workers.
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("redisstore: parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	return &Store{client: redis.NewClient(opts)}, nil
}

var _ store.Adapter = (*Store)(nil)

func (s *Store) Close() error {
	return s.client.Close()
}

// EnsureFilters idempotently reserves the three RedisBloom filters. A
// "item exists" error from BF.RESERVE means the filter is already present,
// which is the expected steady-state outcome and not treated as a failure.
func (s *Store) EnsureFilters(ctx context.Context) error {
	reservations := []struct {
		key      string
		fp       float64
		capacity int64
	}{
		{store.SeenFilterKey, store.SeenFilterFP, store.SeenFilterCapacity},
		{store.URLScoreFilterKey, store.URLScoreFilterFP, store.URLScoreFilterCapacity},
		{store.DomainScoreFilterKey, store.DomainScoreFilterFP, store.DomainScoreFilterCapacity},
	}

	for _, r := range reservations {
		err := s.client.Do(ctx, "BF.RESERVE", r.key, r.fp, r.capacity).Err()
		if err != nil && !isExistsErr(err) {
			return fmt.Errorf("redisstore: reserve %s: %w", r.key, err)
		}
	}

	if err := s.client.Expire(ctx, store.SeenFilterKey, store.SeenFilterTTLDays*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("redisstore: expire %s: %w", store.SeenFilterKey, err)
	}

	return nil
}

func isExistsErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "item exists")
}

func (s *Store) QueuePop(ctx context.Context) (string, bool, error) {
	url, err := s.client.RPop(ctx, store.QueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redisstore: queue pop: %w", err)
	}
	return url, true, nil
}

func (s *Store) QueuePushBatch(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	args := make([]interface{}, len(urls))
	for i, u := range urls {
		args[i] = u
	}
	if err := s.client.LPush(ctx, store.QueueKey, args...).Err(); err != nil {
		return fmt.Errorf("redisstore: queue push batch: %w", err)
	}
	return nil
}

func (s *Store) QueueLen(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, store.QueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redisstore: queue len: %w", err)
	}
	return n, nil
}

// SeenAddBatch probes and adds every digest in a single BF.MADD. The add's
// own return value decides freshness, so two workers racing over a shared
// digest see exactly one true between them.
func (s *Store) SeenAddBatch(ctx context.Context, digests []string) ([]bool, error) {
	if len(digests) == 0 {
		return nil, nil
	}

	args := make([]interface{}, 0, len(digests)+2)
	args = append(args, "BF.MADD", store.SeenFilterKey)
	for _, d := range digests {
		args = append(args, d)
	}

	added, err := s.client.Do(ctx, args...).BoolSlice()
	if err != nil {
		return nil, fmt.Errorf("redisstore: seen add batch: %w", err)
	}
	if len(added) != len(digests) {
		return nil, fmt.Errorf("redisstore: seen add batch: %d results for %d digests", len(added), len(digests))
	}
	return added, nil
}

// ScoreBacklinks performs, for each outbound link and for the source URL
// itself, a filter-gated counter increment for the URL and (when a domain
// is parseable) the domain. All the filter adds go out as one pipeline;
// each BF.ADD's own return value gates the increment, so a target is
// counted at most once even across racing workers. The increments follow
// in a second pipeline.
func (s *Store) ScoreBacklinks(ctx context.Context, source string, links []string) (int64, int64, error) {
	targets := append([]string{}, links...)
	targets = append(targets, source)

	pipe := s.client.Pipeline()

	type add struct {
		isDomain bool
		target   string
		cmd      *redis.Cmd
	}
	var adds []add

	for _, target := range targets {
		adds = append(adds, add{
			target: target,
			cmd:    pipe.Do(ctx, "BF.ADD", store.URLScoreFilterKey, target),
		})
		if domain, ok := store.DomainOf(target); ok {
			adds = append(adds, add{
				isDomain: true,
				target:   domain,
				cmd:      pipe.Do(ctx, "BF.ADD", store.DomainScoreFilterKey, domain),
			})
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redisstore: score backlinks add: %w", err)
	}

	var urlBumps, domainBumps int64
	pipe = s.client.Pipeline()
	for _, a := range adds {
		fresh, _ := a.cmd.Bool()
		if !fresh {
			continue
		}
		if a.isDomain {
			pipe.Incr(ctx, store.DomainCounterKey(a.target))
			domainBumps++
		} else {
			pipe.Incr(ctx, store.URLCounterKey(a.target))
			urlBumps++
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redisstore: score backlinks incr: %w", err)
	}

	return urlBumps, domainBumps, nil
}

func (s *Store) TryAcquireRefillLock(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, store.RefillLockKey, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: acquire refill lock: %w", err)
	}
	return ok, nil
}

func (s *Store) ReleaseRefillLock(ctx context.Context) error {
	if err := s.client.Del(ctx, store.RefillLockKey).Err(); err != nil {
		return fmt.Errorf("redisstore: release refill lock: %w", err)
	}
	return nil
}
