package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
)

func TestLevel_StringAndIcon(t *testing.T) {
	tests := []struct {
		level Level
		name  string
		icon  string
	}{
		{LevelCourse, "Course", "COURSE"},
		{LevelModule, "Module", "MODULE"},
		{LevelLesson, "Lesson", "LESSON"},
		{LevelDone, "Done", "DONE"},
		{Level(99), "Unknown", "???"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.level.String())
		assert.Equal(t, tt.icon, tt.level.Icon())
	}
}

func TestClassify(t *testing.T) {
	inCourse := progress.Progress{CurrentCourse: "intro"}
	inModule := progress.Progress{CurrentCourse: "intro", CurrentModule: "m1"}
	inLesson := progress.Progress{CurrentCourse: "intro", CurrentModule: "m1", CurrentLesson: "l1"}
	done := inLesson
	done.ProcessedCourses = 1

	assert.Equal(t, LevelCourse, classify(progress.Progress{}, inCourse))
	assert.Equal(t, LevelModule, classify(inCourse, inModule))
	assert.Equal(t, LevelLesson, classify(inModule, inLesson))
	assert.Equal(t, LevelDone, classify(inLesson, done))
	assert.Equal(t, LevelCourse, classify(done, progress.Progress{CurrentCourse: "next"}))
}

func TestNewSummary(t *testing.T) {
	s := NewSummary(progress.IndexingStats{
		TotalCourses: 1, TotalModules: 2, TotalLessons: 3, TotalChunks: 7, TotalCodeExamples: 2,
		IndexingTimeMs: 1500,
		Errors:         []progress.IndexingError{{Message: "x"}},
	}, "static-hash", 256)

	assert.Equal(t, Summary{
		Courses: 1, Modules: 2, Lessons: 3, Chunks: 7, CodeExamples: 2, Errors: 1,
		Duration: 1500 * time.Millisecond, Model: "static-hash", Dimensions: 256,
	}, s)
}

func TestIsTTY_NonTerminals(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
}

func TestNewConfig_WithOptions(t *testing.T) {
	buf := &bytes.Buffer{}

	cfg := NewConfig(buf, WithForcePlain(true), WithNoColor(true), WithContentRoot("src/courses"))

	assert.Equal(t, buf, cfg.Output)
	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "src/courses", cfg.ContentRoot)
}

func TestNewRenderer_PlainForNonTTY(t *testing.T) {
	// Given: a buffer, which is never a terminal
	cfg := NewConfig(&bytes.Buffer{})

	// When: creating a renderer
	r := NewRenderer(cfg)

	// Then: the plain renderer is used
	assert.IsType(t, &PlainRenderer{}, r)
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}

func TestDetectCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}
