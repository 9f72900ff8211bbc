package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

// StaticDimensions is the default vector length of the static embedder.
const StaticDimensions = 256

// StaticModelName identifies static embeddings in snapshots.
const StaticModelName = "static-hash"

// Term and character trigram weights.
const (
	termWeight    = 0.7
	trigramWeight = 0.3
)

// englishStopWords are dropped before hashing terms.
var englishStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"this": true, "to": true, "was": true, "with": true,
}

// StaticEmbedder hashes terms and character trigrams into a fixed-size
// vector. It needs no network or API key and is fully deterministic, which
// makes it the offline provider and the one tests run against.
type StaticEmbedder struct {
	dims int

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder creates a static embedder producing dims-length vectors
// (StaticDimensions when dims <= 0).
func NewStaticEmbedder(dims int) *StaticEmbedder {
	if dims <= 0 {
		dims = StaticDimensions
	}
	return &StaticEmbedder{dims: dims}
}

// Embed implements Embedder.
func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, fmt.Errorf("static embedder is closed")
	}
	return e.vector(text), nil
}

// EmbedBatch implements Embedder.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions implements Embedder.
func (e *StaticEmbedder) Dimensions() int { return e.dims }

// ModelName implements Embedder.
func (e *StaticEmbedder) ModelName() string { return StaticModelName }

// Close implements Embedder.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *StaticEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)

	terms := terms(text)
	for _, t := range terms {
		if !englishStopWords[t] {
			v[e.bucket(t)] += termWeight
		}
	}

	// Trigrams run over the concatenated terms so adjacent words
	// ("neural networks" -> "aln", "lne") contribute shared features.
	joined := []rune(strings.Join(terms, ""))
	for i := 0; i+3 <= len(joined); i++ {
		v[e.bucket(string(joined[i:i+3]))] += trigramWeight
	}

	return normalizeVector(v)
}

func (e *StaticEmbedder) bucket(s string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(e.dims))
}

// terms lower-cases text and splits it into letter/digit runs.
func terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
