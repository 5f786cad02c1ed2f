// Package store defines the narrow key/value-plus-vector-search facade (C1)
// that every other component uses for persistence. The SQL schema and driver
// backing any real implementation are explicitly out of scope for the core
// (spec §1) — the core only ever sees this interface, matching the teacher's
// convention of hiding ent/pgx behind a service-layer seam
// (pkg/database + pkg/services in the teacher) rather than leaking a DB
// client type into business logic.
package store

import (
	"context"
	"math"
	"sort"

	"github.com/burnwise/coordinator/pkg/bwerr"
)

// Row is a single stored record: a scalar field map plus zero or more named
// fixed-dimension vector fields.
type Row struct {
	ID      string
	Scalars map[string]any
	Vectors map[string][]float64
}

// Clone returns a deep-enough copy of r so callers that mutate a retrieved
// Row never corrupt the store's internal state (read-your-writes applies to
// the stored value, not a shared pointer).
func (r Row) Clone() Row {
	out := Row{ID: r.ID, Scalars: make(map[string]any, len(r.Scalars)), Vectors: make(map[string][]float64, len(r.Vectors))}
	for k, v := range r.Scalars {
		out.Scalars[k] = v
	}
	for k, v := range r.Vectors {
		cp := make([]float64, len(v))
		copy(cp, v)
		out.Vectors[k] = cp
	}
	return out
}

// Predicate filters rows during Query.
type Predicate func(Row) bool

// Order compares two rows for Query's ordering; returns true if a sorts
// before b.
type Order func(a, b Row) bool

// Store is the vector store facade (C1, spec §4.1).
type Store interface {
	// Put inserts or overwrites row keyed by row.ID in table. Durable
	// before return; a subsequent Get in the same goroutine observes it
	// (read-your-writes).
	Put(ctx context.Context, table string, row Row) error

	// Get returns the row for id in table, or ok=false if absent.
	Get(ctx context.Context, table, id string) (Row, bool, error)

	// Query returns rows in table matching pred, ordered by ord (nil means
	// insertion order), truncated to limit (0 means unlimited).
	Query(ctx context.Context, table string, pred Predicate, limit int, ord Order) ([]Row, error)

	// Nearest returns the top-k rows in table by descending cosine
	// similarity of field to probe. Tolerates an empty table (returns nil,
	// nil) and a zero-magnitude probe (returns nil, nil — never divides by
	// zero). Mismatched vector dimensions fail with *bwerr.ShapeError.
	Nearest(ctx context.Context, table, field string, probe []float64, k int) ([]Row, error)
}

// NeighborScore pairs a row with its similarity to the probe vector, used
// internally by every Store implementation's Nearest to keep the top-k
// selection logic (and its tie-breaking by ID) in one place.
type NeighborScore struct {
	Row   Row
	Score float64
}

// TopK selects the k highest-scoring entries from scored, breaking ties by
// ascending row ID for determinism (spec §8's round-trip property requires a
// query for a vector already in the table to return that exact row, which
// only holds reliably if tie-breaking is deterministic).
func TopK(scored []NeighborScore, k int) []Row {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Row.ID < scored[j].Row.ID
	})
	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	out := make([]Row, len(scored))
	for i, s := range scored {
		out[i] = s.Row
	}
	return out
}

// Magnitude returns the L2 norm of v, used to detect a zero probe vector
// before attempting any similarity computation against it.
func Magnitude(v []float64) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	return math.Sqrt(sumSq)
}

// CosineSimilarity returns the cosine similarity of a and b, or 0 if either
// has zero magnitude (never divides by zero). Returns a ShapeError (never
// panics) if a and b differ in length.
func CosineSimilarity(table, field string, a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &bwerr.ShapeError{Table: table, Field: field, Expected: len(a), Got: len(b)}
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
