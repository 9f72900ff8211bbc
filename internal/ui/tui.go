package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
)

// TUIRenderer draws a live bubbletea view of the run.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *indexingModel
	tracker *Tracker
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. It fails for non-TTY output.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewTracker()
	model := newIndexingModel(tracker, cfg.ContentRoot)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	var ctxRun context.Context
	ctxRun, r.cancel = context.WithCancel(ctx)

	opts := []tea.ProgramOption{tea.WithContext(ctxRun)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// OnProgress implements progress.Observer.
func (r *TUIRenderer) OnProgress(p progress.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Update(p)
	if r.program != nil {
		r.program.Send(progressMsg(p))
	}
}

// OnError implements progress.ErrorObserver.
func (r *TUIRenderer) OnError(e progress.IndexingError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.AddError(e)
	if r.program != nil {
		r.program.Send(errorMsg(e))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(completeMsg(s))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Quit()
		// An unresponsive program must not hang the process on exit.
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}

type progressMsg progress.Progress
type errorMsg progress.IndexingError
type completeMsg Summary
type tickMsg time.Time

// indexingModel is the bubbletea model for a run.
type indexingModel struct {
	tracker     *Tracker
	width       int
	quitting    bool
	complete    bool
	summary     Summary
	spinner     spinner.Model
	progressBar bprogress.Model
	styles      Styles
	contentRoot string
}

func newIndexingModel(tracker *Tracker, contentRoot string) *indexingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	p := bprogress.New(
		bprogress.WithSolidFill(ColorLime),
		bprogress.WithWidth(50),
		bprogress.WithoutPercentage(),
	)

	return &indexingModel{
		tracker:     tracker,
		spinner:     s,
		progressBar: p,
		styles:      DefaultStyles(),
		width:       80,
		contentRoot: contentRoot,
	}
}

// Init implements tea.Model.
func (m *indexingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *indexingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(msg.Width-20, 20)

	case progressMsg, errorMsg:
		// The tracker already holds the state.
		return m, nil

	case completeMsg:
		m.complete = true
		m.summary = Summary(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *indexingModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	width := max(m.width-4, 40)
	stats := m.tracker.Stats()

	sections := []string{
		m.renderPosition(stats),
		m.renderDivider(width),
		m.renderProgress(stats),
		m.renderCounters(stats),
	}

	title := "ragindex"
	if m.contentRoot != "" {
		title = fmt.Sprintf("ragindex • %s", m.contentRoot)
	}
	panel := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Header.Render(title),
		m.styles.Panel.Width(width).Render(strings.Join(sections, "\n")),
	)
	return panel + "\n" + m.renderStatusBar(stats)
}

// renderPosition shows course > module > lesson with the active level spinning.
func (m *indexingModel) renderPosition(stats TrackerStats) string {
	p := stats.Progress
	if p.CurrentCourse == "" {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Dim.Render("Listing courses..."))
	}

	parts := []struct {
		level Level
		id    string
	}{
		{LevelCourse, p.CurrentCourse},
		{LevelModule, p.CurrentModule},
		{LevelLesson, p.CurrentLesson},
	}

	var rendered []string
	for _, part := range parts {
		if part.id == "" {
			continue
		}
		label := m.styles.Label.Render(part.level.String()+":") + " "
		if part.level == stats.Level {
			rendered = append(rendered, m.spinner.View()+" "+label+m.styles.Active.Render(part.id))
		} else {
			rendered = append(rendered, "  "+label+m.styles.Stage.Render(part.id))
		}
	}
	return strings.Join(rendered, "\n")
}

func (m *indexingModel) renderProgress(stats TrackerStats) string {
	bar := m.progressBar.ViewAs(stats.Fraction)
	pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Fraction*100))
	line := fmt.Sprintf("%s  %s", bar, pct)

	var meta []string
	meta = append(meta, m.styles.Speed.Render(fmt.Sprintf("Speed: %.0f chunks/s", stats.Speed)))
	if stats.ETA > 0 {
		meta = append(meta, m.styles.Label.Render("ETA: "+formatDuration(stats.ETA)))
	}
	return line + "\n" + strings.Join(meta, m.styles.Dim.Render("  •  "))
}

func (m *indexingModel) renderCounters(stats TrackerStats) string {
	p := stats.Progress
	return m.styles.Label.Render(fmt.Sprintf("%d/%d courses  %d modules  %d lessons  %d chunks",
		p.ProcessedCourses, p.TotalCourses, p.ProcessedModules, p.ProcessedLessons, p.ProcessedChunks))
}

func (m *indexingModel) renderDivider(width int) string {
	return m.styles.Border.Render(strings.Repeat("─", width))
}

func (m *indexingModel) renderStatusBar(stats TrackerStats) string {
	if stats.ErrorCount == 0 {
		return m.styles.Dim.Render("ctrl+c to cancel")
	}
	return m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", stats.ErrorCount)) +
		m.styles.Dim.Render("  │  ctrl+c to cancel")
}

func (m *indexingModel) renderComplete() string {
	s := m.summary
	lines := []string{
		m.styles.Success.Render("✓ Indexing Complete"),
		"",
		fmt.Sprintf("%s      %s", m.styles.Label.Render("Courses:"), m.styles.Active.Render(fmt.Sprint(s.Courses))),
		fmt.Sprintf("%s      %s", m.styles.Label.Render("Lessons:"), m.styles.Active.Render(fmt.Sprint(s.Lessons))),
		fmt.Sprintf("%s       %s", m.styles.Label.Render("Chunks:"), m.styles.Active.Render(fmt.Sprint(s.Chunks))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Code examples:"), m.styles.Active.Render(fmt.Sprint(s.CodeExamples))),
		fmt.Sprintf("%s     %s", m.styles.Label.Render("Duration:"), m.styles.Active.Render(formatDuration(s.Duration))),
	}
	if s.Model != "" {
		lines = append(lines, fmt.Sprintf("%s        %s", m.styles.Label.Render("Model:"),
			m.styles.Speed.Render(fmt.Sprintf("%s (%d dims)", s.Model, s.Dimensions))))
	}
	if s.Errors > 0 {
		lines = append(lines, "", m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", s.Errors)))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorLime)).
		Padding(1, 2).
		Width(max(m.width-4, 40))
	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration formats a duration for humans.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

var _ Renderer = (*TUIRenderer)(nil)
