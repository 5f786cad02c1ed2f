package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a cross-replica TTL cache backed by Redis, selected when
// config.CacheConfig.RedisAddr is non-empty (spec §4.10: shared state across
// coordinator replicas rather than each process's own in-memory LRU).
// Values are JSON-encoded, and Get returns the generic JSON decode
// (map[string]any, []any, ...) rather than the original Go type. Callers that
// type-assert the original type, such as pkg/weather's CachingProvider and
// pkg/store's CachingStore, treat such a hit as a miss and fetch from the
// underlying provider or store.
type RedisCache struct {
	client *redis.Client

	hits, misses atomic.Int64
}

// NewRedisCache dials addr (host:port, no auth) and returns a RedisCache.
// Dialing is lazy in go-redis — no network round trip happens until the
// first command, matching the teacher's own lazy pgxpool construction.
func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Get looks up key, JSON-decoding the stored value into an any. Any error
// (miss, decode failure, connection failure) is treated as a cache miss —
// the cache is an optimization, never a correctness dependency, so callers
// always have a fallback path to the underlying provider/store.
func (c *RedisCache) Get(ctx context.Context, key string) (any, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v, true
}

// Set stores value under key with the given TTL. Errors are swallowed for
// the same reason Get's miss-on-error is: the cache layer must never make
// the request path less reliable than skipping it entirely.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, ttl).Err()
}

// Stats returns the running hit/miss counters (Size is unavailable without
// an expensive DBSIZE scan across the shared keyspace, so it is reported as
// -1).
func (c *RedisCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: -1}
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error { return c.client.Close() }
