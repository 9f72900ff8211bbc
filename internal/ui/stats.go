package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/snapshot"
)

// StatsInfo is everything the stats command shows.
type StatsInfo struct {
	DataDir      string                  `json:"dataDir"`
	Metadata     snapshot.Metadata       `json:"metadata"`
	SnapshotSize int64                   `json:"snapshotSize"`
	Stats        *progress.IndexingStats `json:"stats,omitempty"`
	Runs         []snapshot.RunSummary   `json:"runs"`
}

// StatsRenderer prints index stats.
type StatsRenderer struct {
	out    io.Writer
	styles Styles
	now    func() time.Time
}

// NewStatsRenderer creates a stats renderer.
func NewStatsRenderer(out io.Writer, noColor bool) *StatsRenderer {
	return &StatsRenderer{out: out, styles: GetStyles(noColor), now: time.Now}
}

// Render prints info as text.
func (r *StatsRenderer) Render(info StatsInfo) error {
	m := info.Metadata
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Stats: "+info.DataDir))

	_, _ = fmt.Fprintf(r.out, "  Courses:      %d\n", m.TotalCourses)
	_, _ = fmt.Fprintf(r.out, "  Modules:      %d\n", m.TotalModules)
	_, _ = fmt.Fprintf(r.out, "  Lessons:      %d\n", m.TotalLessons)
	_, _ = fmt.Fprintf(r.out, "  Chunks:       %d\n", m.TotalChunks)
	if info.Stats != nil {
		_, _ = fmt.Fprintf(r.out, "  Code:         %d examples\n", info.Stats.TotalCodeExamples)
		_, _ = fmt.Fprintf(r.out, "  Indexed in:   %s\n", formatDuration(time.Duration(info.Stats.IndexingTimeMs)*time.Millisecond))
	}
	if !m.LastIndexed.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last indexed: %s\n", r.formatTime(m.LastIndexed))
	}
	if m.Model != "" {
		_, _ = fmt.Fprintf(r.out, "  Model:        %s (%d dims)\n", m.Model, m.Dimensions)
	}
	_, _ = fmt.Fprintf(r.out, "  Snapshot:     %s\n", FormatBytes(info.SnapshotSize))

	if info.Stats != nil && len(info.Stats.Errors) > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, r.styles.Warning.Render(fmt.Sprintf("  Errors (%d):", len(info.Stats.Errors))))
		for _, e := range info.Stats.Errors {
			_, _ = fmt.Fprintf(r.out, "    %s %s\n", r.styles.Error.Render("✗ "+e.Unit()+":"), e.Message)
		}
	}

	if len(info.Runs) > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, "  Recent runs:")
		for _, run := range info.Runs {
			status := r.styles.Success.Render("ok")
			if run.Errors > 0 {
				status = r.styles.Warning.Render(fmt.Sprintf("%d errors", run.Errors))
			}
			_, _ = fmt.Fprintf(r.out, "    %s  %-11s %4d chunks  %8s  %s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04"), run.Mode, run.Chunks,
				formatDuration(run.Duration), status)
		}
	}
	return nil
}

// RenderJSON prints info as indented JSON.
func (r *StatsRenderer) RenderJSON(info StatsInfo) error {
	if info.Runs == nil {
		info.Runs = []snapshot.RunSummary{}
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func (r *StatsRenderer) formatTime(t time.Time) string {
	diff := r.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatBytes formats a byte count for humans.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
