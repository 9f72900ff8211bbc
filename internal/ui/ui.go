// Package ui renders indexing progress and index stats in the terminal.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
)

// Level is the course tree level a progress update refers to.
type Level int

const (
	// LevelCourse means a course was entered.
	LevelCourse Level = iota
	// LevelModule means a module was entered.
	LevelModule
	// LevelLesson means a lesson was entered.
	LevelLesson
	// LevelDone means a course unit finished.
	LevelDone
)

// String returns the human-readable level name.
func (l Level) String() string {
	switch l {
	case LevelCourse:
		return "Course"
	case LevelModule:
		return "Module"
	case LevelLesson:
		return "Lesson"
	case LevelDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Icon returns the short tag for plain text output.
func (l Level) Icon() string {
	switch l {
	case LevelCourse:
		return "COURSE"
	case LevelModule:
		return "MODULE"
	case LevelLesson:
		return "LESSON"
	case LevelDone:
		return "DONE"
	default:
		return "???"
	}
}

// classify tells which level changed between two consecutive updates.
func classify(prev, next progress.Progress) Level {
	switch {
	case next.CurrentCourse != prev.CurrentCourse:
		return LevelCourse
	case next.CurrentModule != "" && next.CurrentModule != prev.CurrentModule:
		return LevelModule
	case next.CurrentLesson != "" && next.CurrentLesson != prev.CurrentLesson:
		return LevelLesson
	default:
		return LevelDone
	}
}

// Summary is the final line of a run.
type Summary struct {
	Courses      int
	Modules      int
	Lessons      int
	Chunks       int
	CodeExamples int
	Errors       int
	Duration     time.Duration
	Model        string
	Dimensions   int
}

// NewSummary builds a Summary from finished stats.
func NewSummary(stats progress.IndexingStats, model string, dims int) Summary {
	return Summary{
		Courses:      stats.TotalCourses,
		Modules:      stats.TotalModules,
		Lessons:      stats.TotalLessons,
		Chunks:       stats.TotalChunks,
		CodeExamples: stats.TotalCodeExamples,
		Errors:       len(stats.Errors),
		Duration:     time.Duration(stats.IndexingTimeMs) * time.Millisecond,
		Model:        model,
		Dimensions:   dims,
	}
}

// Renderer displays a run. It receives progress and unit failures from a
// progress.Reporter.
type Renderer interface {
	progress.Observer
	progress.ErrorObserver

	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Complete shows the final summary.
	Complete(s Summary)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output      io.Writer
	ForcePlain  bool
	NoColor     bool
	ContentRoot string // shown in the TUI header
}

// ConfigOption modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithContentRoot sets the content root shown in the header.
func WithContentRoot(dir string) ConfigOption {
	return func(c *Config) {
		c.ContentRoot = dir
	}
}

// NewConfig creates a Config for output with the given options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a plain
// text renderer for CI, pipes or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
