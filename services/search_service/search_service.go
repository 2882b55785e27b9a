// Package search_service answers free-text queries against the vector
// index: embed the query, take the top-K nearest neighbors, project the
// denormalized display fields.
package search_service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/serisow/metaminds/document"
	"github.com/serisow/metaminds/services/embedding_service"
	"github.com/serisow/metaminds/vector_index"
)

const DefaultTopK = 5

type Service struct {
	embedder embedding_service.Embedder
	index    vector_index.Index
	logger   *slog.Logger
}

func New(embedder embedding_service.Embedder, index vector_index.Index, logger *slog.Logger) *Service {
	return &Service{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Search returns up to topK results ordered by descending cosine
// similarity, or an error; never partial results. Category is the
// placeholder carried by the index entry until real classification
// exists.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]document.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", document.ErrSearchFailed)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Error("Failed to embed search query",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", document.ErrSearchFailed, err)
	}

	hits, err := s.index.QueryTopK(ctx, embedding, topK)
	if err != nil {
		s.logger.Error("Vector query failed",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", document.ErrSearchFailed, err)
	}

	results := make([]document.SearchResult, 0, len(hits))
	for _, hit := range hits {
		category := hit.Category
		if category == "" {
			category = document.PlaceholderCategory
		}
		results = append(results, document.SearchResult{
			Filename: hit.Filename,
			Category: category,
			Score:    hit.Score,
		})
	}

	s.logger.Info("Search complete",
		slog.Int("top_k", topK),
		slog.Int("result_count", len(results)))

	return results, nil
}
