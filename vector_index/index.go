// Package vector_index stores one embedding per document and answers
// top-K nearest-neighbor queries.
//
// Score convention: every hit carries cosine similarity in [-1, 1],
// higher meaning more similar. The Postgres implementation computes it
// as 1 - (embedding <=> query); the in-memory implementation computes
// the cosine directly. Callers never see a raw distance.
package vector_index

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/serisow/metaminds/document"
)

// Hit is one query result, ordered by descending similarity.
type Hit struct {
	DocumentID int64
	Filename   string
	Category   string
	Score      float64
}

// Index is the vector index contract. Implementations must be safe for
// concurrent upserts and queries.
type Index interface {
	// Upsert replaces any existing entry for the entry's document id.
	// At most one entry per id exists at any time.
	Upsert(ctx context.Context, entry document.IndexEntry) error

	// QueryTopK returns up to k hits ordered by descending similarity.
	// k must be positive; k larger than the index size yields fewer
	// results, and an empty index yields an empty slice.
	QueryTopK(ctx context.Context, query pgvector.Vector, k int) ([]Hit, error)
}
