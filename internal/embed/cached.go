package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of embeddings kept in memory.
const DefaultCacheSize = 512

// CachedEmbedder memoizes embeddings in an LRU keyed by model and text.
// Indexing runs wrap their embedder with it, so chunks whose text repeats
// across lessons (shared resource lists, reused code examples) reach the
// provider once.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with an LRU of size entries.
func NewCachedEmbedder(inner Embedder, size int) *CachedEmbedder {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New[string, []float32](size)
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.ModelName() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

// Embed implements Embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	k := c.key(text)
	if v, ok := c.cache.Get(k); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(k, v)
	return v, nil
}

// EmbedBatch looks each text up and sends only the distinct misses to inner.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	pending := map[string][]int{}
	var missKeys, missTexts []string

	for i, t := range texts {
		k := c.key(t)
		if v, ok := c.cache.Get(k); ok {
			c.hits.Add(1)
			out[i] = v
			continue
		}
		if _, seen := pending[k]; seen {
			c.hits.Add(1)
		} else {
			c.misses.Add(1)
			missKeys = append(missKeys, k)
			missTexts = append(missTexts, t)
		}
		pending[k] = append(pending[k], i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}
	for j, k := range missKeys {
		c.cache.Add(k, vecs[j])
		for _, i := range pending[k] {
			out[i] = vecs[j]
		}
	}
	return out, nil
}

// Stats returns the lookups served from the cache and those sent to the
// provider.
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int { return c.cache.Len() }

// Dimensions implements Embedder.
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// ModelName implements Embedder.
func (c *CachedEmbedder) ModelName() string { return c.inner.ModelName() }

// Close implements Embedder.
func (c *CachedEmbedder) Close() error {
	c.cache.Purge()
	return c.inner.Close()
}
