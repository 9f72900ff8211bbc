package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
)

func TestNewTUIRenderer_RejectsNonTTY(t *testing.T) {
	r, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))

	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestIndexingModel_InitialView(t *testing.T) {
	m := newIndexingModel(NewTracker(), "courses")
	m.styles = NoColorStyles()

	view := m.View()

	assert.Contains(t, view, "ragindex • courses")
	assert.Contains(t, view, "Listing courses...")
}

func TestIndexingModel_ShowsPosition(t *testing.T) {
	// Given: a tracker inside a lesson with one warning
	tr := NewTracker()
	tr.Update(progress.Progress{CurrentCourse: "intro", TotalCourses: 2})
	tr.Update(progress.Progress{CurrentCourse: "intro", CurrentModule: "m1", TotalCourses: 2})
	tr.Update(progress.Progress{
		CurrentCourse: "intro", CurrentModule: "m1", CurrentLesson: "l1",
		ProcessedCourses: 1, ProcessedChunks: 12, TotalCourses: 2,
	})
	tr.AddError(progress.IndexingError{Message: "x"})
	m := newIndexingModel(tr, "")
	m.styles = NoColorStyles()

	// When: rendering
	view := m.View()

	// Then: every level and the counters are visible
	assert.Contains(t, view, "intro")
	assert.Contains(t, view, "m1")
	assert.Contains(t, view, "l1")
	assert.Contains(t, view, "1/2 courses")
	assert.Contains(t, view, "12 chunks")
	assert.Contains(t, view, "1 warnings")
}

func TestIndexingModel_Complete(t *testing.T) {
	m := newIndexingModel(NewTracker(), "")
	m.styles = NoColorStyles()

	_, cmd := m.Update(completeMsg(Summary{Courses: 1, Chunks: 7, CodeExamples: 2, Duration: 2 * time.Second}))

	assert.NotNil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "Indexing Complete")
	assert.Contains(t, view, "7")
}

func TestIndexingModel_CtrlCQuits(t *testing.T) {
	m := newIndexingModel(NewTracker(), "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.NotNil(t, cmd)
	assert.Equal(t, "Cancelled.\n", m.View())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "2m 5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h 1m", formatDuration(61*time.Minute))
}
