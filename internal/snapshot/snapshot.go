// Package snapshot persists an index and its run stats to disk.
//
// A data directory holds the full JSON snapshot, a compact metadata record
// read without decoding the snapshot, a SQLite log of recent runs and a lock
// file serializing mutating commands.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/store"
)

// SchemaVersion is the on-disk format version of snapshots and metadata.
const SchemaVersion = 1

// Snapshot is the serialized form of an index.
type Snapshot struct {
	SchemaVersion int                    `json:"schemaVersion"`
	CreatedAt     time.Time              `json:"timestamp"`
	Model         string                 `json:"model"`
	Dimensions    int                    `json:"dimensions"`
	Stats         progress.IndexingStats `json:"stats"`
	Entries       []store.Entry          `json:"entries"`
}

// ImportOption configures Import.
type ImportOption func(*store.Config)

// WithANN enables the approximate search graph on the imported index.
func WithANN(enabled bool, overfetch int) ImportOption {
	return func(c *store.Config) {
		c.ANN = enabled
		c.ANNOverfetch = overfetch
	}
}

// Export writes idx and stats as a JSON snapshot. Vectors are written as-is
// and float32 values survive the round trip exactly.
func Export(w io.Writer, idx *store.Index, stats progress.IndexingStats) error {
	snap := Snapshot{
		SchemaVersion: SchemaVersion,
		CreatedAt:     time.Now().UTC(),
		Model:         idx.Model(),
		Dimensions:    idx.Dimensions(),
		Stats:         stats,
		Entries:       idx.Entries(),
	}
	if snap.Stats.Errors == nil {
		snap.Stats.Errors = []progress.IndexingError{}
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(snap); err != nil {
		return ragerrors.IOError("encode snapshot", err)
	}
	return nil
}

// Import rebuilds an index from a snapshot in the original insertion order.
// Nothing is re-embedded. embedder, when non-nil, becomes the query embedder
// and must match the snapshot's model and dimensions.
func Import(r io.Reader, embedder store.QueryEmbedder, opts ...ImportOption) (*store.Index, progress.IndexingStats, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, progress.IndexingStats{}, corrupt("decode snapshot", err)
	}
	if snap.SchemaVersion < 1 || snap.SchemaVersion > SchemaVersion {
		return nil, progress.IndexingStats{}, corrupt(
			fmt.Sprintf("unsupported snapshot schema version %d", snap.SchemaVersion), nil)
	}

	cfg := store.Config{Model: snap.Model, Dimensions: snap.Dimensions}
	for _, opt := range opts {
		opt(&cfg)
	}

	idx, err := store.New(cfg, embedder)
	if err != nil {
		return nil, progress.IndexingStats{}, mismatch(err)
	}
	if err := idx.Add(snap.Entries...); err != nil {
		return nil, progress.IndexingStats{}, corrupt("snapshot entry has wrong vector length", err)
	}

	if snap.Stats.Errors == nil {
		snap.Stats.Errors = []progress.IndexingError{}
	}
	return idx, snap.Stats, nil
}

func corrupt(msg string, cause error) error {
	return ragerrors.New(ragerrors.ErrCodeCorruptIndex, msg, cause).
		WithSuggestion("Run 'ragindex clear' then 'ragindex index' to rebuild the snapshot")
}

func mismatch(err error) error {
	var dimErr store.ErrDimensionMismatch
	var modelErr store.ErrModelMismatch
	switch {
	case errors.As(err, &dimErr):
		return ragerrors.New(ragerrors.ErrCodeDimensionMismatch, "snapshot does not match the configured embedder", err).
			WithSuggestion("Re-run 'ragindex index' with the current embedding settings")
	case errors.As(err, &modelErr):
		return ragerrors.New(ragerrors.ErrCodeModelMismatch, "snapshot does not match the configured embedder", err).
			WithSuggestion("Re-run 'ragindex index' with the current embedding settings")
	default:
		return corrupt("invalid snapshot header", err)
	}
}
