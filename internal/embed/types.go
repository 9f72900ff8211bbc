// Package embed turns chunk text into vectors.
//
// Providers implement Embedder. Pipeline drives a provider over lessons in
// batches, retrying failed batches and pacing requests.
package embed

import (
	"context"
	"math"
	"time"
)

// Batch and retry defaults.
const (
	// DefaultBatchSize is the number of texts sent per provider request.
	DefaultBatchSize = 100

	// MaxBatchSize is the largest batch the OpenAI embeddings endpoint accepts.
	MaxBatchSize = 2048

	// DefaultMaxRetries is the number of retries for a failed batch.
	DefaultMaxRetries = 3

	// DefaultBatchDelay is the pause inserted between consecutive batches.
	DefaultBatchDelay = 100 * time.Millisecond

	// DefaultTimeout bounds one provider request.
	DefaultTimeout = 60 * time.Second
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector length.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// normalizeVector scales v to unit length in place and returns it.
// Zero vectors are returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	mag := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= mag
	}
	return v
}
