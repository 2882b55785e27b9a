package vector_index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/pgvector/pgvector-go"

	"github.com/serisow/metaminds/document"
)

// MemoryIndex is a brute-force cosine-similarity index. Used in tests and
// when running without Postgres.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[int64]document.IndexEntry
	order   []int64 // insertion order, breaks score ties
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[int64]document.IndexEntry),
	}
}

func (idx *MemoryIndex) Upsert(ctx context.Context, entry document.IndexEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.entries[entry.DocumentID]; !exists {
		idx.order = append(idx.order, entry.DocumentID)
	}
	idx.entries[entry.DocumentID] = entry
	return nil
}

func (idx *MemoryIndex) QueryTopK(ctx context.Context, query pgvector.Vector, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d", k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]Hit, 0, len(idx.order))
	q := query.Slice()
	for _, id := range idx.order {
		entry := idx.entries[id]
		hits = append(hits, Hit{
			DocumentID: entry.DocumentID,
			Filename:   entry.Filename,
			Category:   entry.Category,
			Score:      cosineSimilarity(q, entry.Embedding.Slice()),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Len returns the number of indexed entries.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
