// Package cache implements the coordination substrate's cache and circuit
// breaker layer (C10, spec §4.10): a bounded LRU+TTL cache for weather and
// vector-nearest reads, keyed by (endpoint, parameters) fingerprints, and a
// per-stage/provider circuit breaker built on sony/gobreaker. No cache or
// breaker library is wired anywhere in the teacher's own tree, so the cache
// itself follows the classic container/list + map LRU shape (the same
// structural idiom as the teacher's and the pack's other map+mutex facades)
// while the breaker defers to gobreaker, the one breaker library the pack
// actually uses (jordigilh-kubernaut's notification suite).
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Stats reports cache hit/miss/size counters for metrics export (spec
// §4.10).
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// Cache is the narrow interface pkg/weather's CachingProvider and
// pkg/store's CachingStore decorators depend on, satisfied by both TTLCache
// (default, in-process) and RedisCache (shared across replicas, selected by
// CacheConfig.RedisAddr).
type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Stats() Stats
}

type ttlEntry struct {
	key       string
	value     any
	expiresAt time.Time
}

// TTLCache is a bounded, in-process LRU cache where every entry also
// carries its own TTL (distinct endpoints use distinct TTLs: weather
// current 10m, forecast 1h, vector nearest 5m, spec §4.10). Eviction is
// O(1) amortized via container/list, the standard library's doubly-linked
// list, the same structure backing every textbook Go LRU.
type TTLCache struct {
	mu         sync.Mutex
	maxEntries int
	ll         *list.List
	items      map[string]*list.Element

	hits, misses int64
}

// NewTTLCache returns an empty cache bounded to maxEntries (spec §4.10
// CacheConfig.MaxEntries). maxEntries <= 0 means unbounded.
func NewTTLCache(maxEntries int) *TTLCache {
	return &TTLCache{
		maxEntries: maxEntries,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

// Get returns the value stored for key if present and not expired, moving
// it to the front of the recency list. An expired entry is evicted and
// counted as a miss, matching a lookup against an absent key.
func (c *TTLCache) Get(_ context.Context, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	ent := el.Value.(*ttlEntry)
	if time.Now().After(ent.expiresAt) {
		c.removeElement(el)
		c.misses++
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.hits++
	return ent.value, true
}

// Set inserts or overwrites key with value, expiring after ttl. Inserting
// evicts the least-recently-used entry if the cache is at capacity.
func (c *TTLCache) Set(_ context.Context, key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := time.Now().Add(ttl)
	if el, ok := c.items[key]; ok {
		el.Value.(*ttlEntry).value = value
		el.Value.(*ttlEntry).expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&ttlEntry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = el

	if c.maxEntries > 0 {
		for c.ll.Len() > c.maxEntries {
			c.removeOldest()
		}
	}
}

func (c *TTLCache) removeOldest() {
	el := c.ll.Back()
	if el != nil {
		c.removeElement(el)
	}
}

func (c *TTLCache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	ent := el.Value.(*ttlEntry)
	delete(c.items, ent.key)
}

// Stats returns a snapshot of hit/miss/size counters.
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Size: c.ll.Len()}
}
