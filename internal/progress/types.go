// Package progress tracks an indexing run: it accumulates IndexingStats and
// forwards a fixed-shape Progress record to an optional Observer.
package progress

import (
	"fmt"
	"strings"
)

// Progress is the payload handed to observers.
type Progress struct {
	CurrentCourse string `json:"currentCourse"`
	CurrentModule string `json:"currentModule"`
	CurrentLesson string `json:"currentLesson"`

	ProcessedCourses int `json:"processedCourses"`
	ProcessedModules int `json:"processedModules"`
	ProcessedLessons int `json:"processedLessons"`
	ProcessedChunks  int `json:"processedChunks"`

	TotalCourses int `json:"totalCourses"`
	// Percentage is the share of course units attempted, 0-100.
	Percentage float64 `json:"progress"`
}

// Observer receives progress updates synchronously on the indexing goroutine.
type Observer interface {
	OnProgress(p Progress)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(p Progress)

// OnProgress implements Observer.
func (f ObserverFunc) OnProgress(p Progress) { f(p) }

// ErrorObserver is implemented by observers that also want unit failures
// as they are recorded.
type ErrorObserver interface {
	OnError(e IndexingError)
}

// IndexingError records a failure isolated to one unit. The narrowest
// applicable identifiers are set.
type IndexingError struct {
	CourseID string `json:"courseId,omitempty"`
	ModuleID string `json:"moduleId,omitempty"`
	LessonID string `json:"lessonId,omitempty"`
	Message  string `json:"error"`
	Stack    string `json:"stack,omitempty"`
}

// Unit renders the failing unit path, e.g. "intro/m1/l2".
func (e IndexingError) Unit() string {
	var parts []string
	for _, id := range []string{e.CourseID, e.ModuleID, e.LessonID} {
		if id != "" {
			parts = append(parts, id)
		}
	}
	if len(parts) == 0 {
		return "(run)"
	}
	return strings.Join(parts, "/")
}

func (e IndexingError) String() string {
	return fmt.Sprintf("%s: %s", e.Unit(), e.Message)
}

// IndexingStats are the corpus counters of a run.
type IndexingStats struct {
	TotalCourses      int             `json:"totalCourses"`
	TotalModules      int             `json:"totalModules"`
	TotalLessons      int             `json:"totalLessons"`
	TotalChunks       int             `json:"totalChunks"`
	TotalCodeExamples int             `json:"totalCodeExamples"`
	IndexingTimeMs    int64           `json:"indexingTime"`
	Errors            []IndexingError `json:"errors"`
}

// Succeeded reports whether at least one lesson made it into the index.
func (s IndexingStats) Succeeded() bool {
	return s.TotalLessons > 0
}
