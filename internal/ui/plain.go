package ui

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
)

// PlainRenderer writes one line per progress update (for CI and pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	tracker *Tracker
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, tracker: NewTracker()}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(context.Context) error { return nil }

// OnProgress implements progress.Observer.
func (r *PlainRenderer) OnProgress(p progress.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.tracker.Update(p) {
	case LevelCourse:
		attempted := int(math.Round(p.Percentage / 100 * float64(p.TotalCourses)))
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", LevelCourse.Icon(), attempted+1, p.TotalCourses, p.CurrentCourse)
	case LevelModule:
		_, _ = fmt.Fprintf(r.out, "[%s] %s/%s\n", LevelModule.Icon(), p.CurrentCourse, p.CurrentModule)
	case LevelLesson:
		_, _ = fmt.Fprintf(r.out, "[%s] %s/%s/%s\n", LevelLesson.Icon(), p.CurrentCourse, p.CurrentModule, p.CurrentLesson)
	case LevelDone:
		_, _ = fmt.Fprintf(r.out, "[%s] %s - %d chunks so far (%.0f%%)\n", LevelDone.Icon(), p.CurrentCourse, p.ProcessedChunks, p.Percentage)
	}
}

// OnError implements progress.ErrorObserver.
func (r *PlainRenderer) OnError(e progress.IndexingError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.AddError(e)
	_, _ = fmt.Fprintf(r.out, "WARN: %s: %s\n", e.Unit(), e.Message)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d courses, %d modules, %d lessons, %d chunks (%d code examples) in %s",
		s.Courses, s.Modules, s.Lessons, s.Chunks, s.CodeExamples, s.Duration.Round(100*time.Millisecond))
	if s.Errors > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors)", s.Errors)
	}
	_, _ = fmt.Fprintln(r.out)

	if s.Model != "" {
		_, _ = fmt.Fprintf(r.out, "Model: %s (%d dims)\n", s.Model, s.Dimensions)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error { return nil }

var _ Renderer = (*PlainRenderer)(nil)
