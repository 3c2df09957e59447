// Package embeddings defines the embedding provider abstraction used by the
// vector index.
package embeddings

import "context"

// Provider produces vector representations for text. Dimensions must be
// stable for the lifetime of a store directory: the persisted index rejects
// vectors of mismatched length.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
