// Package memstore is the in-memory Store implementation selected by the
// use_mock_store environment flag (spec §6). It is the default backend for
// tests and for the deterministic mock-mode scenarios in spec §8, and it
// implements the exact same store.Store contract a Postgres-backed
// implementation would (see pkg/store/pgstore).
package memstore

import (
	"context"
	"sync"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/store"
)

type table struct {
	mu      sync.RWMutex
	rows    map[string]store.Row
	order   []string // insertion order, for Query's default ordering
	vecDims map[string]int
}

// Store is a thread-safe in-memory implementation of store.Store.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

// New returns an empty Store.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

func (s *Store) tableFor(name string) *table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: make(map[string]store.Row), vecDims: make(map[string]int)}
		s.tables[name] = t
	}
	return t
}

func (s *Store) Put(ctx context.Context, tableName string, row store.Row) error {
	t := s.tableFor(tableName)
	t.mu.Lock()
	defer t.mu.Unlock()

	for field, vec := range row.Vectors {
		if dim, ok := t.vecDims[field]; ok {
			if len(vec) != dim {
				return &bwerr.ShapeError{Table: tableName, Field: field, Expected: dim, Got: len(vec)}
			}
		} else if len(vec) > 0 {
			t.vecDims[field] = len(vec)
		}
	}

	if _, exists := t.rows[row.ID]; !exists {
		t.order = append(t.order, row.ID)
	}
	t.rows[row.ID] = row.Clone()
	return nil
}

func (s *Store) Get(ctx context.Context, tableName, id string) (store.Row, bool, error) {
	t := s.tableFor(tableName)
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return store.Row{}, false, nil
	}
	return row.Clone(), true, nil
}

func (s *Store) Query(ctx context.Context, tableName string, pred store.Predicate, limit int, ord store.Order) ([]store.Row, error) {
	t := s.tableFor(tableName)
	t.mu.RLock()
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	rows := make([]store.Row, 0, len(ids))
	for _, id := range ids {
		if row, ok := t.rows[id]; ok {
			rows = append(rows, row.Clone())
		}
	}
	t.mu.RUnlock()

	out := rows[:0]
	for _, r := range rows {
		if pred == nil || pred(r) {
			out = append(out, r)
		}
	}
	if ord != nil {
		sortRows(out, ord)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortRows(rows []store.Row, ord store.Order) {
	// Simple insertion sort: candidate sets are small (bounded by the
	// optimizer's per-date cap, spec §4.5) so O(n^2) is not a concern and
	// avoids pulling sort.Slice's reflection overhead into the hot path.
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && ord(rows[j], rows[j-1]); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func (s *Store) Nearest(ctx context.Context, tableName, field string, probe []float64, k int) ([]store.Row, error) {
	t := s.tableFor(tableName)
	t.mu.RLock()
	rows := make([]store.Row, 0, len(t.rows))
	for _, id := range t.order {
		if row, ok := t.rows[id]; ok {
			rows = append(rows, row.Clone())
		}
	}
	t.mu.RUnlock()

	if len(rows) == 0 {
		return nil, nil
	}
	if store.Magnitude(probe) == 0 {
		return nil, nil
	}

	scored := make([]store.NeighborScore, 0, len(rows))
	for _, row := range rows {
		vec, ok := row.Vectors[field]
		if !ok {
			continue
		}
		sim, err := store.CosineSimilarity(tableName, field, probe, vec)
		if err != nil {
			return nil, err
		}
		scored = append(scored, store.NeighborScore{Row: row, Score: sim})
	}
	return store.TopK(scored, k), nil
}
