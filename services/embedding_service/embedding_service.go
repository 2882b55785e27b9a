// Package embedding_service turns text into fixed-dimension vectors.
// The embedder is an injected dependency of the pipeline and the search
// service so tests can substitute a fake.
package embedding_service

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// Embedder converts text into a vector. Same text must yield a
// semantically identical vector for a fixed model version. Empty text is
// a caller bug, not a backend failure.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
	Dimension() int
}

func checkInput(text string) error {
	if text == "" {
		return fmt.Errorf("cannot embed empty text")
	}
	return nil
}
