// Package store holds the in-memory vector index: chunks with their
// embeddings, ranked by cosine similarity and filtered by metadata.
package store

import (
	"context"
	"fmt"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/chunk"
)

// Entry is a chunk with its embedding.
type Entry struct {
	Chunk  chunk.Chunk `json:"chunk"`
	Vector []float32   `json:"vector"`
}

// Result is one ranked query hit.
type Result struct {
	Chunk chunk.Chunk
	Score float64
	// Position is the entry's insertion order.
	Position int
}

// QueryEmbedder embeds query text. embed.Embedder satisfies it.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	ModelName() string
}

// Config fixes the embedding space of an index.
type Config struct {
	// Model is the embedding model identifier.
	Model string
	// Dimensions is the vector length every entry must have.
	Dimensions int

	// ANN enables the HNSW candidate search for unfiltered and filtered
	// queries. Results are re-ranked exactly. Node levels come from a fixed
	// seed, so two indexes holding the same entries in the same order build
	// the same graph and return the same candidates.
	ANN bool
	// ANNOverfetch multiplies k to size the candidate set (default 8).
	ANNOverfetch int
}

// ErrDimensionMismatch indicates a vector or embedder of the wrong length.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (run 'ragindex index' to rebuild)", e.Expected, e.Got)
}

// ErrModelMismatch indicates an embedder for a different model.
type ErrModelMismatch struct {
	Expected string
	Got      string
}

func (e ErrModelMismatch) Error() string {
	return fmt.Sprintf("embedding model mismatch: index uses %q, embedder is %q", e.Expected, e.Got)
}
