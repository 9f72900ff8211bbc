package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/store"
)

// File names inside the data directory.
const (
	SnapshotFile = "snapshot.json"
	MetadataFile = "index-metadata.json"
	RunLogFile   = "runs.db"
	LockFile     = "index.lock"
)

// ErrNotFound is returned when a snapshot or metadata file does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Metadata is the compact record used to decide on incremental runs.
type Metadata struct {
	LastIndexed   time.Time `json:"lastIndexed"`
	SchemaVersion int       `json:"schemaVersion"`
	TotalCourses  int       `json:"totalCourses"`
	TotalModules  int       `json:"totalModules"`
	TotalLessons  int       `json:"totalLessons"`
	TotalChunks   int       `json:"totalChunks"`
	Model         string    `json:"model,omitempty"`
	Dimensions    int       `json:"dimensions,omitempty"`
}

// NewMetadata builds the metadata record for a finished run.
func NewMetadata(stats progress.IndexingStats, model string, dims int, at time.Time) Metadata {
	return Metadata{
		LastIndexed:   at.UTC(),
		SchemaVersion: SchemaVersion,
		TotalCourses:  stats.TotalCourses,
		TotalModules:  stats.TotalModules,
		TotalLessons:  stats.TotalLessons,
		TotalChunks:   stats.TotalChunks,
		Model:         model,
		Dimensions:    dims,
	}
}

// Store reads and writes snapshot files in a data directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// SnapshotPath returns the full snapshot path.
func (s *Store) SnapshotPath() string { return filepath.Join(s.dir, SnapshotFile) }

// MetadataPath returns the metadata path.
func (s *Store) MetadataPath() string { return filepath.Join(s.dir, MetadataFile) }

// RunLogPath returns the run log database path.
func (s *Store) RunLogPath() string { return filepath.Join(s.dir, RunLogFile) }

// SaveSnapshot atomically replaces the snapshot file.
func (s *Store) SaveSnapshot(idx *store.Index, stats progress.IndexingStats) error {
	return s.writeAtomic(s.SnapshotPath(), func(w io.Writer) error {
		return Export(w, idx, stats)
	})
}

// LoadSnapshot imports the snapshot file. It returns ErrNotFound (wrapped in
// a snapshot-not-found error) if no snapshot has been saved.
func (s *Store) LoadSnapshot(embedder store.QueryEmbedder, opts ...ImportOption) (*store.Index, progress.IndexingStats, error) {
	f, err := os.Open(s.SnapshotPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, progress.IndexingStats{}, notFound(s.SnapshotPath())
		}
		return nil, progress.IndexingStats{}, ragerrors.IOError("open snapshot", err)
	}
	defer func() { _ = f.Close() }()

	start := time.Now()
	idx, stats, err := Import(bufio.NewReader(f), embedder, opts...)
	if err != nil {
		return nil, progress.IndexingStats{}, err
	}
	slog.Debug("snapshot_loaded",
		slog.String("path", s.SnapshotPath()),
		slog.Int("entries", idx.Len()),
		slog.Duration("duration", time.Since(start)))
	return idx, stats, nil
}

// SaveMetadata atomically replaces the metadata file.
func (s *Store) SaveMetadata(m Metadata) error {
	return s.writeAtomic(s.MetadataPath(), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	})
}

// LoadMetadata reads the metadata file.
func (s *Store) LoadMetadata() (Metadata, error) {
	data, err := os.ReadFile(s.MetadataPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, notFound(s.MetadataPath())
		}
		return Metadata{}, ragerrors.IOError("read index metadata", err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, corrupt("decode index metadata", err)
	}
	return m, nil
}

// SnapshotSize returns the snapshot file size, or 0 if it does not exist.
func (s *Store) SnapshotSize() int64 {
	info, err := os.Stat(s.SnapshotPath())
	if err != nil {
		return 0
	}
	return info.Size()
}

// Clear deletes the snapshot, metadata and run log. Missing files are not an
// error, so Clear is idempotent.
func (s *Store) Clear() error {
	paths := []string{
		s.SnapshotPath(),
		s.MetadataPath(),
		s.RunLogPath(),
		s.RunLogPath() + "-wal",
		s.RunLogPath() + "-shm",
	}
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return ragerrors.IOError("clear snapshot files", err)
	}
	return nil
}

// Lock takes the exclusive data directory lock without blocking. It fails
// with an index-locked error when another process holds it.
func (s *Store) Lock() (unlock func() error, err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, ragerrors.IOError("create data directory", err)
	}

	fl := flock.New(filepath.Join(s.dir, LockFile))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, ragerrors.IOError("acquire index lock", err)
	}
	if !ok {
		return nil, ragerrors.New(ragerrors.ErrCodeIndexLocked,
			fmt.Sprintf("index at %s is locked by another process", s.dir), nil).
			WithSuggestion("Wait for the running 'ragindex' command to finish")
	}
	return fl.Unlock, nil
}

// writeAtomic writes to a temp file in the same directory and renames it
// over path.
func (s *Store) writeAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ragerrors.IOError("create data directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return ragerrors.IOError("create temp file", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		cleanup()
		return err
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return ragerrors.IOError("write "+filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return ragerrors.IOError("sync "+filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return ragerrors.IOError("close "+filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return ragerrors.IOError("replace "+filepath.Base(path), err)
	}
	return nil
}

func notFound(path string) error {
	return ragerrors.New(ragerrors.ErrCodeSnapshotNotFound, fmt.Sprintf("no index found at %s", path), ErrNotFound).
		WithSuggestion("Run 'ragindex index' first")
}
