// Package index runs the indexing pipeline: it walks the course units,
// chunks and embeds every lesson into a fresh store.Index and persists the
// result. Failures are isolated to the narrowest unit and recorded as data.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/chunk"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/course"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/embed"
	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/snapshot"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/store"
)

// Run modes recorded in the run log.
const (
	ModeIndex       = "index"
	ModeIncremental = "incremental"
)

// CourseSource lists and loads course units. course.Loader implements it.
type CourseSource interface {
	ListUnits(ctx context.Context) ([]string, error)
	LoadCourse(ctx context.Context, unitID string) (*course.Course, error)
}

// RunnerDependencies are the collaborators of a Runner.
type RunnerDependencies struct {
	// Source provides the course units (required).
	Source CourseSource

	// Chunker turns lessons into chunks (required).
	Chunker *chunk.Chunker

	// Pipeline embeds lesson chunks (required).
	Pipeline *embed.Pipeline

	// Observer receives progress updates. Optional.
	Observer progress.Observer

	// Snapshots persists the finished index. Optional; nothing is written
	// when nil.
	Snapshots *snapshot.Store

	// RunLog records a summary per run. Optional.
	RunLog *snapshot.RunLog

	// ANN enables the approximate search graph on the built index.
	ANN bool
}

// Result is the outcome of a run.
type Result struct {
	Mode     string
	Index    *store.Index
	Stats    progress.IndexingStats
	Started  time.Time
	Duration time.Duration

	// Persisted reports whether the snapshot and metadata were written.
	Persisted bool
}

// Runner executes indexing runs.
type Runner struct {
	source    CourseSource
	chunker   *chunk.Chunker
	pipeline  *embed.Pipeline
	observer  progress.Observer
	snapshots *snapshot.Store
	runLog    *snapshot.RunLog
	ann       bool
}

// NewRunner validates deps and creates a Runner.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("course source is required")
	}
	if deps.Chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("embedding pipeline is required")
	}

	return &Runner{
		source:    deps.Source,
		chunker:   deps.Chunker,
		pipeline:  deps.Pipeline,
		observer:  deps.Observer,
		snapshots: deps.Snapshots,
		runLog:    deps.RunLog,
		ann:       deps.ANN,
	}, nil
}

// Run performs a full reindex. The returned error is non-nil only when the
// content root cannot be listed, when no lesson could be indexed while some
// unit failed, when ctx is cancelled, or when persisting fails.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.run(ctx, ModeIndex)
}

// RunIncremental reads the prior index metadata and reindexes. Change
// detection is not implemented, so every incremental run is a full run; the
// metadata only decides what is logged.
func (r *Runner) RunIncremental(ctx context.Context) (*Result, error) {
	if r.snapshots != nil {
		meta, err := r.snapshots.LoadMetadata()
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
			slog.Info("incremental_fallback", slog.String("reason", "no prior index metadata"))
		case err != nil:
			slog.Warn("incremental_fallback",
				slog.String("reason", "unreadable index metadata"),
				slog.String("error", err.Error()))
		default:
			slog.Info("incremental_fallback",
				slog.String("reason", "change detection not implemented"),
				slog.Time("last_indexed", meta.LastIndexed),
				slog.Int("previous_chunks", meta.TotalChunks))
		}
	}
	return r.run(ctx, ModeIncremental)
}

func (r *Runner) run(ctx context.Context, mode string) (*Result, error) {
	started := time.Now()
	emb := r.pipeline.Embedder()

	idx, err := store.New(store.Config{
		Model:      emb.ModelName(),
		Dimensions: emb.Dimensions(),
		ANN:        r.ann,
	}, emb)
	if err != nil {
		return nil, ragerrors.InternalError("create index", err)
	}

	units, err := r.source.ListUnits(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("index_started",
		slog.String("mode", mode),
		slog.Int("units", len(units)),
		slog.String("model", emb.ModelName()),
		slog.Int("dimensions", emb.Dimensions()))

	rep := progress.NewReporter(r.observer)
	rep.Begin(len(units))

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.indexCourse(ctx, rep, idx, unit); err != nil {
			return nil, err
		}
		rep.CourseDone()
	}

	stats := rep.Finish(time.Since(started))
	res := &Result{
		Mode:     mode,
		Index:    idx,
		Stats:    stats,
		Started:  started,
		Duration: time.Since(started),
	}

	slog.Info("index_complete",
		slog.String("mode", mode),
		slog.Int("courses", stats.TotalCourses),
		slog.Int("modules", stats.TotalModules),
		slog.Int("lessons", stats.TotalLessons),
		slog.Int("chunks", stats.TotalChunks),
		slog.Int("code_examples", stats.TotalCodeExamples),
		slog.Int("errors", len(stats.Errors)),
		slog.Int64("duration_ms", stats.IndexingTimeMs))

	if !stats.Succeeded() && len(stats.Errors) > 0 {
		return res, ragerrors.New(ragerrors.ErrCodeIndexFailed,
			fmt.Sprintf("no lesson could be indexed (%d errors)", len(stats.Errors)), nil).
			WithDetail("first_error", stats.Errors[0].String()).
			WithSuggestion("Run 'ragindex stats' or check the log for per-unit errors")
	}

	if err := r.persist(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) indexCourse(ctx context.Context, rep *progress.Reporter, idx *store.Index, unit string) error {
	rep.EnterCourse(unit)

	crs, err := r.source.LoadCourse(ctx, unit)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rep.RecordError(progress.IndexingError{CourseID: unit, Message: err.Error()})
		return nil
	}
	rep.AddCourse()

	modules, lessons := crs.Counts()
	slog.Debug("course_loaded",
		slog.String("course", crs.ID),
		slog.Int("modules", modules),
		slog.Int("lessons", lessons))

	for i := range crs.Modules {
		if err := r.indexModule(ctx, rep, idx, crs, &crs.Modules[i]); err != nil {
			return err
		}
	}
	return nil
}

// indexModule indexes the lessons of mod. With a concurrency of one each
// lesson is chunked, embedded and added before the next one starts, so every
// progress record reflects the lessons finished so far. Higher concurrency
// chunks the whole module first and embeds the lessons in parallel. Only ctx
// cancellation is returned.
func (r *Runner) indexModule(ctx context.Context, rep *progress.Reporter, idx *store.Index, crs *course.Course, mod *course.Module) error {
	rep.EnterModule(mod.ID)

	var (
		indexed int
		err     error
	)
	if r.pipeline.Concurrency() > 1 {
		indexed, err = r.indexLessonsConcurrently(ctx, rep, idx, crs, mod)
	} else {
		indexed, err = r.indexLessons(ctx, rep, idx, crs, mod)
	}
	if err != nil {
		return err
	}

	if indexed > 0 || len(mod.Lessons) == 0 {
		rep.AddModule()
	}
	return nil
}

func (r *Runner) indexLessons(ctx context.Context, rep *progress.Reporter, idx *store.Index, crs *course.Course, mod *course.Module) (int, error) {
	indexed := 0
	for i := range mod.Lessons {
		lesson := &mod.Lessons[i]
		rep.EnterLesson(lesson.ID)

		lc, ok := r.prepareLesson(rep, crs, mod, lesson)
		if !ok {
			continue
		}
		res, err := r.pipeline.EmbedLesson(ctx, lc)
		if err != nil {
			return indexed, err
		}
		if addLesson(rep, idx, res) {
			indexed++
		}
	}
	return indexed, nil
}

func (r *Runner) indexLessonsConcurrently(ctx context.Context, rep *progress.Reporter, idx *store.Index, crs *course.Course, mod *course.Module) (int, error) {
	var pending []embed.LessonChunks
	for i := range mod.Lessons {
		lesson := &mod.Lessons[i]
		rep.EnterLesson(lesson.ID)

		if lc, ok := r.prepareLesson(rep, crs, mod, lesson); ok {
			pending = append(pending, lc)
		}
	}

	results, err := r.pipeline.EmbedLessons(ctx, pending)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, res := range results {
		if addLesson(rep, idx, res) {
			indexed++
		}
	}
	return indexed, nil
}

// prepareLesson chunks a lesson. Lessons whose content failed to load or
// whose chunking panicked are recorded and skipped.
func (r *Runner) prepareLesson(rep *progress.Reporter, crs *course.Course, mod *course.Module, lesson *course.Lesson) (embed.LessonChunks, bool) {
	lessonErr := func(err error) progress.IndexingError {
		return progress.IndexingError{
			CourseID: crs.ID,
			ModuleID: mod.ID,
			LessonID: lesson.ID,
			Message:  err.Error(),
			Stack:    stackOf(err),
		}
	}

	if err := lesson.LoadError(); err != nil {
		rep.RecordError(lessonErr(err))
		return embed.LessonChunks{}, false
	}

	chunks, err := r.chunkLesson(crs, mod, lesson)
	if err != nil {
		rep.RecordError(lessonErr(err))
		return embed.LessonChunks{}, false
	}
	return embed.LessonChunks{
		CourseID: crs.ID,
		ModuleID: mod.ID,
		LessonID: lesson.ID,
		Chunks:   chunks,
	}, true
}

// addLesson records the batch errors of res and adds its entries. It reports
// whether the lesson counts as indexed.
func addLesson(rep *progress.Reporter, idx *store.Index, res embed.LessonResult) bool {
	for _, e := range res.Errors {
		rep.RecordError(e)
	}
	if res.Failed() {
		return false
	}
	if err := idx.Add(res.Entries...); err != nil {
		rep.RecordError(progress.IndexingError{
			CourseID: res.Lesson.CourseID,
			ModuleID: res.Lesson.ModuleID,
			LessonID: res.Lesson.LessonID,
			Message:  err.Error(),
		})
		return false
	}

	rep.AddLesson()
	rep.AddChunks(len(res.Entries))
	rep.AddCodeExamples(countType(res.Entries, chunk.TypeCode))
	return true
}

// chunkError carries the stack of a recovered chunker panic.
type chunkError struct {
	msg   string
	stack string
}

func (e *chunkError) Error() string { return e.msg }

func stackOf(err error) string {
	var ce *chunkError
	if errors.As(err, &ce) {
		return ce.stack
	}
	return ""
}

func (r *Runner) chunkLesson(crs *course.Course, mod *course.Module, lesson *course.Lesson) (chunks []chunk.Chunk, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &chunkError{
				msg:   fmt.Sprintf("chunking lesson %q panicked: %v", lesson.ID, v),
				stack: string(debug.Stack()),
			}
		}
	}()
	return r.chunker.Chunk(crs, mod, lesson), nil
}

func countType(entries []store.Entry, t chunk.Type) int {
	n := 0
	for _, e := range entries {
		if e.Chunk.Metadata.ChunkType == t {
			n++
		}
	}
	return n
}

// persist writes the snapshot and metadata, then appends to the run log.
// Run log failures are logged, not returned.
func (r *Runner) persist(ctx context.Context, res *Result) error {
	if r.snapshots == nil {
		return nil
	}

	if err := r.snapshots.SaveSnapshot(res.Index, res.Stats); err != nil {
		return err
	}
	meta := snapshot.NewMetadata(res.Stats, res.Index.Model(), res.Index.Dimensions(), time.Now())
	if err := r.snapshots.SaveMetadata(meta); err != nil {
		return err
	}
	res.Persisted = true
	slog.Info("snapshot_saved",
		slog.String("path", r.snapshots.SnapshotPath()),
		slog.Int("entries", res.Index.Len()))

	if r.runLog != nil {
		summary := snapshot.NewRunSummary(res.Mode, res.Started, res.Stats)
		if err := r.runLog.Append(ctx, summary); err != nil {
			slog.Warn("run_log_append_failed", slog.String("error", err.Error()))
		}
	}
	return nil
}
