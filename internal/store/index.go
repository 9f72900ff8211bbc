package store

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
)

// Index is an append-only in-memory vector index with exact cosine ranking.
// It is safe for concurrent use.
type Index struct {
	cfg      Config
	embedder QueryEmbedder

	mu      sync.RWMutex
	entries []Entry
	norms   []float64
	ann     *annGraph
}

// New creates an empty index. A non-nil embedder must match cfg's model and
// dimensions; vectors from another embedding space are rejected here rather
// than at query time.
func New(cfg Config, embedder QueryEmbedder) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("index dimensions must be positive, got %d", cfg.Dimensions)
	}
	if embedder != nil {
		if embedder.Dimensions() != cfg.Dimensions {
			return nil, ErrDimensionMismatch{Expected: cfg.Dimensions, Got: embedder.Dimensions()}
		}
		if cfg.Model != "" && embedder.ModelName() != cfg.Model {
			return nil, ErrModelMismatch{Expected: cfg.Model, Got: embedder.ModelName()}
		}
	}
	if cfg.ANNOverfetch <= 0 {
		cfg.ANNOverfetch = 8
	}
	return &Index{cfg: cfg, embedder: embedder}, nil
}

// Model returns the embedding model of the index.
func (ix *Index) Model() string { return ix.cfg.Model }

// Dimensions returns the vector length of the index.
func (ix *Index) Dimensions() int { return ix.cfg.Dimensions }

// Len returns the number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Add appends entries in order. No deduplication is done. Either all
// entries are added or, on a dimension mismatch, none.
func (ix *Index) Add(entries ...Entry) error {
	for _, e := range entries {
		if len(e.Vector) != ix.cfg.Dimensions {
			return ErrDimensionMismatch{Expected: ix.cfg.Dimensions, Got: len(e.Vector)}
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, e := range entries {
		ix.entries = append(ix.entries, e)
		ix.norms = append(ix.norms, norm(e.Vector))
	}
	return nil
}

// Entries returns a copy of all entries in insertion order.
func (ix *Index) Entries() []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.entries)
}

// Clear removes every entry. Persisted snapshots are not touched.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = nil
	ix.norms = nil
	ix.ann = nil
}

// Query embeds text and returns up to k entries by descending cosine
// similarity. Entries rejected by filter are never returned. Ties keep
// insertion order. An empty index yields an empty result.
func (ix *Index) Query(ctx context.Context, text string, k int, filter Filter) ([]Result, error) {
	if k <= 0 || ix.Len() == 0 {
		return []Result{}, nil
	}
	if ix.embedder == nil {
		return nil, fmt.Errorf("index has no query embedder")
	}

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.QueryVector(vec, k, filter)
}

// QueryVector is Query with a precomputed query vector.
func (ix *Index) QueryVector(vec []float32, k int, filter Filter) ([]Result, error) {
	if len(vec) != ix.cfg.Dimensions {
		return nil, ErrDimensionMismatch{Expected: ix.cfg.Dimensions, Got: len(vec)}
	}
	if k <= 0 {
		return []Result{}, nil
	}

	if ix.cfg.ANN {
		ix.syncGraph()
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 {
		return []Result{}, nil
	}

	qnorm := norm(vec)
	if ix.ann != nil && ix.cfg.ANN {
		if results, ok := ix.annSearch(vec, qnorm, k, filter); ok {
			return results, nil
		}
	}
	return ix.scan(vec, qnorm, k, filter), nil
}

// scan ranks every entry that passes filter. Must hold mu.
func (ix *Index) scan(vec []float32, qnorm float64, k int, filter Filter) []Result {
	hits := make([]Result, 0, len(ix.entries))
	for pos, e := range ix.entries {
		if filter != nil && !filter.Match(e.Chunk.Metadata) {
			continue
		}
		hits = append(hits, Result{
			Chunk:    e.Chunk,
			Score:    cosine(vec, e.Vector, qnorm, ix.norms[pos]),
			Position: pos,
		})
	}
	return topK(hits, k)
}

// topK sorts by score descending, then position ascending, and truncates.
func topK(hits []Result, k int) []Result {
	slices.SortFunc(hits, func(a, b Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
