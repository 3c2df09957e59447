// Package mock provides a deterministic embedder for tests.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Provider generates deterministic embeddings from a text hash, so that
// identical text always lands on the identical vector and tests can assert
// exact-match retrieval without a real model.
type Provider struct {
	dimensions int
}

// New creates a new mock provider.
func New() *Provider {
	return &Provider{dimensions: 384}
}

// Embed creates a deterministic unit vector seeded by the FNV hash of text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, p.dimensions)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(vec), nil
}

// Dimensions returns the embedding size.
func (p *Provider) Dimensions() int { return p.dimensions }

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}
