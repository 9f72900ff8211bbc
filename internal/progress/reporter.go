package progress

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"
)

// Reporter accumulates stats for a run and notifies an optional observer.
// Observer panics are recovered and logged so they never abort a run.
// Once Finish is called the stats are frozen and further updates are ignored.
type Reporter struct {
	observer Observer

	mu       sync.Mutex
	stats    IndexingStats
	current  Progress
	attempts int
	finished bool
}

// NewReporter creates a reporter. obs may be nil.
func NewReporter(obs Observer) *Reporter {
	return &Reporter{observer: obs, stats: IndexingStats{Errors: []IndexingError{}}}
}

// Begin sets the number of course units in the run.
func (r *Reporter) Begin(totalCourses int) {
	r.mu.Lock()
	r.current.TotalCourses = totalCourses
	r.mu.Unlock()
}

// EnterCourse notifies before a course is started.
func (r *Reporter) EnterCourse(courseID string) {
	r.update(func(p *Progress) {
		p.CurrentCourse = courseID
		p.CurrentModule = ""
		p.CurrentLesson = ""
	})
}

// EnterModule notifies before a module is started.
func (r *Reporter) EnterModule(moduleID string) {
	r.update(func(p *Progress) {
		p.CurrentModule = moduleID
		p.CurrentLesson = ""
	})
}

// EnterLesson notifies before a lesson is started.
func (r *Reporter) EnterLesson(lessonID string) {
	r.update(func(p *Progress) { p.CurrentLesson = lessonID })
}

// CourseDone notifies after a course unit, successful or not, is finished.
func (r *Reporter) CourseDone() {
	r.update(func(p *Progress) {
		r.attempts++
		if p.TotalCourses > 0 {
			p.Percentage = float64(r.attempts) / float64(p.TotalCourses) * 100
		}
	})
}

// AddCourse counts a loaded course.
func (r *Reporter) AddCourse() {
	r.count(func(s *IndexingStats, p *Progress) {
		s.TotalCourses++
		p.ProcessedCourses++
	})
}

// AddModule counts a processed module.
func (r *Reporter) AddModule() {
	r.count(func(s *IndexingStats, p *Progress) {
		s.TotalModules++
		p.ProcessedModules++
	})
}

// AddLesson counts a processed lesson.
func (r *Reporter) AddLesson() {
	r.count(func(s *IndexingStats, p *Progress) {
		s.TotalLessons++
		p.ProcessedLessons++
	})
}

// AddChunks counts chunks added to the index.
func (r *Reporter) AddChunks(n int) {
	r.count(func(s *IndexingStats, p *Progress) {
		s.TotalChunks += n
		p.ProcessedChunks += n
	})
}

// AddCodeExamples counts indexed code examples.
func (r *Reporter) AddCodeExamples(n int) {
	r.count(func(s *IndexingStats, _ *Progress) { s.TotalCodeExamples += n })
}

// RecordError appends an isolated unit failure.
func (r *Reporter) RecordError(e IndexingError) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	r.stats.Errors = append(r.stats.Errors, e)
	r.mu.Unlock()

	slog.Warn("unit_failed",
		slog.String("unit", e.Unit()),
		slog.String("error", e.Message))

	if eo, ok := r.observer.(ErrorObserver); ok {
		r.safely(func() { eo.OnError(e) })
	}
}

// Finish freezes the stats with the run duration and returns them.
func (r *Reporter) Finish(elapsed time.Duration) IndexingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finished {
		r.stats.IndexingTimeMs = elapsed.Milliseconds()
		r.finished = true
	}
	return r.snapshotLocked()
}

// Stats returns a copy of the current stats.
func (r *Reporter) Stats() IndexingStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Current returns the latest progress record.
func (r *Reporter) Current() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Notify delivers p to the observer, recovering any panic.
func (r *Reporter) Notify(p Progress) {
	if r.observer == nil {
		return
	}
	r.safely(func() { r.observer.OnProgress(p) })
}

func (r *Reporter) safely(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			slog.Warn("progress_observer_panic",
				slog.String("panic", fmt.Sprint(v)),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	fn()
}

func (r *Reporter) snapshotLocked() IndexingStats {
	s := r.stats
	s.Errors = slices.Clone(r.stats.Errors)
	if s.Errors == nil {
		s.Errors = []IndexingError{}
	}
	return s
}

func (r *Reporter) update(fn func(p *Progress)) {
	r.mu.Lock()
	if r.finished {
		r.mu.Unlock()
		return
	}
	fn(&r.current)
	p := r.current
	r.mu.Unlock()

	r.Notify(p)
}

func (r *Reporter) count(fn func(s *IndexingStats, p *Progress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	fn(&r.stats, &r.current)
}
