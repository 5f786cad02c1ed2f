// Package pgstore is the Postgres-backed store.Store implementation,
// selected when the operator does not set use_mock_store (spec §6). It
// speaks directly to pgx rather than through ent (see DESIGN.md for why the
// teacher's ent ORM was dropped) and represents every table as rows of one
// physical table with a JSONB scalar column and a JSONB vectors column (field
// name -> float array), which is the simplest schema that satisfies the C1
// contract without assuming a specific SQL layout — the spec treats the
// schema itself as an external collaborator (spec §1), so this package's
// embedded migrations (migrations/) are the only place that schema is pinned
// down.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/store"
)

// Store is a Postgres-backed store.Store. One physical table,
// generic_rows(table_name, id, scalars jsonb, vectors jsonb), backs every
// logical table named in spec §6's persisted-records list; vectors are
// stored as a JSON object of float arrays rather than pgvector columns so the
// facade does not assume the pgvector extension is installed, matching the
// spec's "key/value + vector-search abstraction" framing (the core computes
// cosine similarity itself rather than pushing it into SQL).
type Store struct {
	pool *pgxpool.Pool
}

// New opens a pool against dsn and brings its schema up to date via the
// embedded migration set before accepting traffic.
func New(ctx context.Context, dsn string) (*Store, error) {
	if err := runMigrations(dsn); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) Put(ctx context.Context, table string, row store.Row) error {
	scalars, err := json.Marshal(row.Scalars)
	if err != nil {
		return fmt.Errorf("pgstore: marshal scalars: %w", err)
	}
	vectors, err := json.Marshal(row.Vectors)
	if err != nil {
		return fmt.Errorf("pgstore: marshal vectors: %w", err)
	}

	existing, ok, err := s.expectedDims(ctx, table, row)
	if err != nil {
		return err
	}
	if ok {
		for field, dim := range existing {
			if got, has := row.Vectors[field]; has && len(got) != dim {
				return &bwerr.ShapeError{Table: table, Field: field, Expected: dim, Got: len(got)}
			}
		}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO generic_rows (table_name, id, scalars, vectors)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (table_name, id) DO UPDATE SET scalars = $3, vectors = $4
	`, table, row.ID, scalars, vectors)
	if err != nil {
		return fmt.Errorf("pgstore: put %s/%s: %w", table, row.ID, err)
	}
	return nil
}

// expectedDims samples one existing row in table to learn each vector
// field's fixed dimension, giving the same per-(table,field) dimension
// invariant the in-memory store tracks directly.
func (s *Store) expectedDims(ctx context.Context, table string, _ store.Row) (map[string]int, bool, error) {
	var vectors []byte
	err := s.pool.QueryRow(ctx, `SELECT vectors FROM generic_rows WHERE table_name = $1 LIMIT 1`, table).Scan(&vectors)
	if err != nil {
		return nil, false, nil
	}
	var raw map[string][]float64
	if err := json.Unmarshal(vectors, &raw); err != nil {
		return nil, false, fmt.Errorf("pgstore: unmarshal sample vectors: %w", err)
	}
	dims := make(map[string]int, len(raw))
	for field, vec := range raw {
		dims[field] = len(vec)
	}
	return dims, true, nil
}

func (s *Store) Get(ctx context.Context, table, id string) (store.Row, bool, error) {
	var scalars, vectors []byte
	err := s.pool.QueryRow(ctx,
		`SELECT scalars, vectors FROM generic_rows WHERE table_name = $1 AND id = $2`, table, id,
	).Scan(&scalars, &vectors)
	if err != nil {
		return store.Row{}, false, nil
	}
	row, err := decodeRow(id, scalars, vectors)
	if err != nil {
		return store.Row{}, false, err
	}
	return row, true, nil
}

func (s *Store) Query(ctx context.Context, table string, pred store.Predicate, limit int, ord store.Order) ([]store.Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, scalars, vectors FROM generic_rows WHERE table_name = $1 ORDER BY seq ASC`, table)
	if err != nil {
		return nil, fmt.Errorf("pgstore: query %s: %w", table, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		var id string
		var scalars, vectors []byte
		if err := rows.Scan(&id, &scalars, &vectors); err != nil {
			return nil, fmt.Errorf("pgstore: scan %s: %w", table, err)
		}
		row, err := decodeRow(id, scalars, vectors)
		if err != nil {
			return nil, err
		}
		if pred == nil || pred(row) {
			out = append(out, row)
		}
	}
	if ord != nil {
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && ord(out[j], out[j-1]); j-- {
				out[j], out[j-1] = out[j-1], out[j]
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Nearest(ctx context.Context, table, field string, probe []float64, k int) ([]store.Row, error) {
	if store.Magnitude(probe) == 0 {
		return nil, nil
	}
	all, err := s.Query(ctx, table, nil, 0, nil)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	scored := make([]store.NeighborScore, 0, len(all))
	for _, row := range all {
		vec, ok := row.Vectors[field]
		if !ok {
			continue
		}
		sim, err := store.CosineSimilarity(table, field, probe, vec)
		if err != nil {
			return nil, err
		}
		scored = append(scored, store.NeighborScore{Row: row, Score: sim})
	}
	return store.TopK(scored, k), nil
}

func decodeRow(id string, scalars, vectors []byte) (store.Row, error) {
	row := store.Row{ID: id, Scalars: map[string]any{}, Vectors: map[string][]float64{}}
	if len(scalars) > 0 {
		if err := json.Unmarshal(scalars, &row.Scalars); err != nil {
			return store.Row{}, fmt.Errorf("pgstore: unmarshal scalars for %s: %w", id, err)
		}
	}
	if len(vectors) > 0 {
		if err := json.Unmarshal(vectors, &row.Vectors); err != nil {
			return store.Row{}, fmt.Errorf("pgstore: unmarshal vectors for %s: %w", id, err)
		}
	}
	return row, nil
}
