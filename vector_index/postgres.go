package vector_index

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/serisow/metaminds/document"
)

// PostgresIndex stores embeddings in the document_vectors table and
// queries them with the pgvector cosine operator.
type PostgresIndex struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresIndex(db *pgxpool.Pool, logger *slog.Logger) *PostgresIndex {
	return &PostgresIndex{
		db:     db,
		logger: logger,
	}
}

func (idx *PostgresIndex) Upsert(ctx context.Context, entry document.IndexEntry) error {
	query := `INSERT INTO document_vectors (file_id, embedding, content, filename, category)
              VALUES ($1, $2, $3, $4, $5)
              ON CONFLICT (file_id) DO UPDATE SET
                embedding = EXCLUDED.embedding,
                content = EXCLUDED.content,
                filename = EXCLUDED.filename,
                category = EXCLUDED.category`

	_, err := idx.db.Exec(ctx, query,
		entry.DocumentID, entry.Embedding, entry.Content, entry.Filename, entry.Category)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert vector for document %d: %v",
			document.ErrStorageIO, entry.DocumentID, err)
	}

	idx.logger.Info("Indexed document vector",
		slog.Int64("document_id", entry.DocumentID),
		slog.String("filename", entry.Filename))

	return nil
}

func (idx *PostgresIndex) QueryTopK(ctx context.Context, query pgvector.Vector, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", k)
	}

	// 1 - cosine distance is cosine similarity; ordering by the raw
	// distance ascending matches ordering by similarity descending.
	sql := `SELECT file_id, filename, COALESCE(category, ''), 1 - (embedding <=> $1) AS score
            FROM document_vectors
            ORDER BY embedding <=> $1
            LIMIT $2`

	rows, err := idx.db.Query(ctx, sql, query, k)
	if err != nil {
		return nil, fmt.Errorf("%w: vector query failed: %v", document.ErrStorageIO, err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, k)
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.DocumentID, &h.Filename, &h.Category, &h.Score); err != nil {
			return nil, fmt.Errorf("%w: failed to scan hit: %v", document.ErrStorageIO, err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: vector query failed: %v", document.ErrStorageIO, err)
	}

	return hits, nil
}

// EnsureANNIndex creates or rebuilds the ivfflat index over the embedding
// column, sizing the list count to the square root of the corpus.
func (idx *PostgresIndex) EnsureANNIndex(ctx context.Context) error {
	var count int
	err := idx.db.QueryRow(ctx, "SELECT COUNT(*) FROM document_vectors").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to count indexed documents: %w", err)
	}

	lists := int(math.Sqrt(float64(count)))
	if lists < 100 {
		lists = 100 // minimum number of lists
	}

	_, err = idx.db.Exec(ctx, "DROP INDEX IF EXISTS idx_document_vectors_embedding")
	if err != nil {
		return fmt.Errorf("failed to drop existing index: %w", err)
	}

	createIndexSQL := fmt.Sprintf(`
        CREATE INDEX idx_document_vectors_embedding
        ON document_vectors
        USING ivfflat (embedding vector_cosine_ops)
        WITH (lists = %d)
    `, lists)

	_, err = idx.db.Exec(ctx, createIndexSQL)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	idx.logger.Info("Vector index created/updated successfully",
		slog.Int("document_count", count),
		slog.Int("list_count", lists))

	return nil
}
