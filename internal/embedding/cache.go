package embedding

import (
	"context"

	"github.com/dgraph-io/ristretto"
)

// CachedEmbedder memoizes Embed results by text. Retrieval embeds the same
// live message repeatedly across users' turns, and the underlying model is
// deterministic, so a hit skips a model round-trip entirely.
type CachedEmbedder struct {
	inner Embedding
	cache *ristretto.Cache
}

// NewCachedEmbedder wraps inner with a cache holding up to maxEntries
// vectors.
func NewCachedEmbedder(inner Embedding, maxEntries int64) (*CachedEmbedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, or computes and caches it.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return v.([]float32), nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, 1)
	return vec, nil
}

// EmbedBatch embeds each text through the cache.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

// Wait blocks until pending cache writes are applied. Ristretto admits
// entries asynchronously; without this a Set may not be visible yet.
func (c *CachedEmbedder) Wait() {
	c.cache.Wait()
}
