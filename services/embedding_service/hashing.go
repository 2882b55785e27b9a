package embedding_service

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/pgvector/pgvector-go"
)

var tokenPattern = regexp.MustCompile(`\p{L}+|\p{N}+`)

// HashingEmbedder is a deterministic local embedder: each token is hashed
// into one of dimension buckets with a hash-derived sign, and the
// resulting bag-of-words vector is L2-normalized. Texts sharing tokens
// land near each other under cosine similarity, which is enough for
// running and testing the system without a model backend.
type HashingEmbedder struct {
	dimension int
}

func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashingEmbedder{dimension: dimension}
}

func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashingEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	if err := checkInput(text); err != nil {
		return pgvector.Vector{}, err
	}

	vec := make([]float32, e.dimension)
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, token := range tokens {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()

		bucket := int(sum % uint32(e.dimension))
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return pgvector.NewVector(vec), nil
}
