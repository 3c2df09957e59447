package embeddings

import (
	"context"

	"github.com/dgraph-io/ristretto"
)

// cachedProvider memoizes embeddings keyed by input text. Reflection
// re-embeds the same signals and queries within a day; caching keeps the
// embedder round-trips off the hot path.
type cachedProvider struct {
	inner Provider
	cache *ristretto.Cache
}

// NewCached wraps a provider with a ristretto cache bounded to maxBytes of
// vector data.
func NewCached(inner Provider, maxBytes int64) (Provider, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 16,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &cachedProvider{inner: inner, cache: cache}, nil
}

func (c *cachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, int64(len(vec)*4))
	return vec, nil
}

func (c *cachedProvider) Dimensions() int { return c.inner.Dimensions() }

// HealthPing forwards to the wrapped provider when it supports pinging.
func (c *cachedProvider) HealthPing(ctx context.Context) error {
	if p, ok := c.inner.(interface{ HealthPing(context.Context) error }); ok {
		return p.HealthPing(ctx)
	}
	return nil
}
