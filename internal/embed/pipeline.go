package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/chunk"
	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/store"
)

// LessonChunks are the ordered chunks of one lesson.
type LessonChunks struct {
	CourseID string
	ModuleID string
	LessonID string
	Chunks   []chunk.Chunk
}

// LessonResult is the outcome of embedding one lesson. Entries keep the
// chunk order of the lesson minus the chunks of failed batches.
type LessonResult struct {
	Lesson        LessonChunks
	Entries       []store.Entry
	Errors        []progress.IndexingError
	Batches       int
	FailedBatches int
}

// Failed reports whether every batch of the lesson failed.
func (r LessonResult) Failed() bool {
	return r.Batches > 0 && r.FailedBatches == r.Batches
}

// PipelineConfig tunes batching, retries and concurrency.
type PipelineConfig struct {
	// BatchSize is the number of chunks per provider call.
	BatchSize int
	// BatchDelay is the pause between consecutive batches of a lesson.
	BatchDelay time.Duration
	// Retry is the per-batch retry policy.
	Retry ragerrors.RetryConfig
	// Concurrency bounds the lessons embedded at once by EmbedLessons.
	Concurrency int
}

// DefaultPipelineConfig returns the defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BatchSize:   DefaultBatchSize,
		BatchDelay:  DefaultBatchDelay,
		Retry:       ragerrors.DefaultRetryConfig(),
		Concurrency: 1,
	}
}

// Pipeline embeds lesson chunks in batches. A batch that still fails after
// its retries is recorded as an IndexingError and its chunks are dropped;
// the remaining batches continue.
type Pipeline struct {
	embedder Embedder
	cfg      PipelineConfig
}

// NewPipeline creates a pipeline, filling unset config fields with defaults.
func NewPipeline(embedder Embedder, cfg PipelineConfig) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	return &Pipeline{embedder: embedder, cfg: cfg}
}

// Embedder returns the underlying embedder.
func (p *Pipeline) Embedder() Embedder { return p.embedder }

// Concurrency returns the number of lessons EmbedLessons keeps in flight.
func (p *Pipeline) Concurrency() int { return p.cfg.Concurrency }

// EmbedLesson embeds the chunks of one lesson. The error is non-nil only when
// ctx is cancelled.
func (p *Pipeline) EmbedLesson(ctx context.Context, lc LessonChunks) (LessonResult, error) {
	res := LessonResult{Lesson: lc, Entries: make([]store.Entry, 0, len(lc.Chunks))}

	for start := 0; start < len(lc.Chunks); start += p.cfg.BatchSize {
		if start > 0 && p.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(p.cfg.BatchDelay):
			}
		}

		end := min(start+p.cfg.BatchSize, len(lc.Chunks))
		batch := lc.Chunks[start:end]
		res.Batches++

		vecs, err := p.embedBatch(ctx, lc, start, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.FailedBatches++
			res.Errors = append(res.Errors, progress.IndexingError{
				CourseID: lc.CourseID,
				ModuleID: lc.ModuleID,
				LessonID: lc.LessonID,
				Message:  fmt.Sprintf("embedding batch %d (chunks %d-%d) failed: %v", res.Batches, start, end-1, err),
			})
			continue
		}

		for i, c := range batch {
			res.Entries = append(res.Entries, store.Entry{Chunk: c, Vector: vecs[i]})
		}
	}

	return res, nil
}

// EmbedLessons embeds lessons with up to Concurrency lessons in flight.
// Results are returned in input order.
func (p *Pipeline) EmbedLessons(ctx context.Context, lessons []LessonChunks) ([]LessonResult, error) {
	results := make([]LessonResult, len(lessons))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, lc := range lessons {
		i, lc := i, lc
		g.Go(func() error {
			res, err := p.EmbedLesson(gctx, lc)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Pipeline) embedBatch(ctx context.Context, lc LessonChunks, offset int, batch []chunk.Chunk) ([][]float32, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	retry := p.cfg.Retry
	retry.OnRetry = func(attempt int, err error) {
		slog.Warn("batch_retry",
			slog.String("course", lc.CourseID),
			slog.String("module", lc.ModuleID),
			slog.String("lesson", lc.LessonID),
			slog.Int("offset", offset),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if p.cfg.Retry.OnRetry != nil {
			p.cfg.Retry.OnRetry(attempt, err)
		}
	}

	retry.RetryIf = retryableBatchError

	return ragerrors.RetryWithResult(ctx, retry, func() ([][]float32, error) {
		vecs, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("provider returned %d vectors for %d texts", len(vecs), len(texts))
		}
		for _, v := range vecs {
			if len(v) != p.embedder.Dimensions() {
				return nil, store.ErrDimensionMismatch{Expected: p.embedder.Dimensions(), Got: len(v)}
			}
		}
		return vecs, nil
	})
}

// retryableBatchError reports whether a failed batch is worth another
// attempt. Classified provider errors carry their own verdict; rejected keys,
// bad requests and wrong vector sizes fail the same way every time.
func retryableBatchError(err error) bool {
	var mismatch store.ErrDimensionMismatch
	if errors.As(err, &mismatch) {
		return false
	}
	if ragerrors.GetCode(err) != "" {
		return ragerrors.IsRetryable(err)
	}
	return true
}
