package store

import (
	"context"
	"fmt"
	"time"

	"github.com/burnwise/coordinator/pkg/cache"
)

// CachingStore decorates a Store, caching Nearest lookups for
// VectorNearestTTL (C10, spec §4.10: "vector nearest-neighbor: 5 minutes").
// Put/Get/Query pass through unchanged — only Nearest pays for a repeated
// fingerprint probe against the same (table, field).
type CachingStore struct {
	next Store
	c    cache.Cache
	ttl  time.Duration
}

// NewCachingStore wraps next with c, caching Nearest results for ttl.
func NewCachingStore(next Store, c cache.Cache, ttl time.Duration) *CachingStore {
	return &CachingStore{next: next, c: c, ttl: ttl}
}

func (s *CachingStore) Put(ctx context.Context, table string, row Row) error {
	return s.next.Put(ctx, table, row)
}

func (s *CachingStore) Get(ctx context.Context, table, id string) (Row, bool, error) {
	return s.next.Get(ctx, table, id)
}

func (s *CachingStore) Query(ctx context.Context, table string, pred Predicate, limit int, ord Order) ([]Row, error) {
	return s.next.Query(ctx, table, pred, limit, ord)
}

func (s *CachingStore) Nearest(ctx context.Context, table, field string, probe []float64, k int) ([]Row, error) {
	key := nearestKey(table, field, probe, k)
	if v, ok := s.c.Get(ctx, key); ok {
		if rows, ok := v.([]Row); ok {
			return rows, nil
		}
	}
	rows, err := s.next.Nearest(ctx, table, field, probe, k)
	if err != nil {
		return nil, err
	}
	s.c.Set(ctx, key, rows, s.ttl)
	return rows, nil
}

func nearestKey(table, field string, probe []float64, k int) string {
	return fmt.Sprintf("nearest:%s:%s:%d:%v", table, field, k, probe)
}
