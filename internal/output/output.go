// Package output provides consistent CLI output: status lines, the indexing
// banner and search result listings.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/store"
)

// PreviewRunes is the length of a search result preview.
const PreviewRunes = 200

var (
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	pathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	rankStyle  = lipgloss.NewStyle().Bold(true)
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
}

// New creates a new output Writer without color.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WithColor enables lipgloss styling.
func (w *Writer) WithColor(enabled bool) *Writer {
	w.useColor = enabled
	return w
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// IndexComplete prints the success banner and, when units failed, the
// warning count.
func (w *Writer) IndexComplete(stats progress.IndexingStats) {
	w.Successf("Indexing complete: %d courses, %d modules, %d lessons, %d chunks",
		stats.TotalCourses, stats.TotalModules, stats.TotalLessons, stats.TotalChunks)
	if n := len(stats.Errors); n > 0 {
		w.Warningf("%d %s; run 'ragindex stats' for details", n, plural(n, "warning", "warnings"))
	}
}

// Results prints ranked search hits. Ranks start at 1.
func (w *Writer) Results(query string, results []store.Result) {
	if len(results) == 0 {
		w.Statusf("🔍", "No results for %q", query)
		return
	}

	w.Statusf("🔍", "%d %s for %q", len(results), plural(len(results), "result", "results"), query)
	for i, r := range results {
		w.Newline()
		rank := fmt.Sprintf("%d.", i+1)
		score := fmt.Sprintf("%.4f", r.Score)
		path := Path(r)
		if w.useColor {
			rank = rankStyle.Render(rank)
			score = scoreStyle.Render(score)
			path = pathStyle.Render(path)
		}
		_, _ = fmt.Fprintf(w.out, "%s [%s] %s\n", rank, score, path)
		_, _ = fmt.Fprintf(w.out, "   %s\n", Preview(r.Chunk.Content, PreviewRunes))
	}
}

// Path renders the location of a hit as course > module > lesson (type).
func Path(r store.Result) string {
	md := r.Chunk.Metadata
	label := string(md.ChunkType)
	if md.CodeTitle != "" {
		label += ": " + md.CodeTitle
	}
	return fmt.Sprintf("%s > %s > %s (%s)", nonEmpty(md.CourseTitle, md.CourseID),
		nonEmpty(md.ModuleTitle, md.ModuleID), nonEmpty(md.LessonTitle, md.LessonID), label)
}

// Preview collapses whitespace and truncates s to n runes, adding an
// ellipsis when cut.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func nonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
