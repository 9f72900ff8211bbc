package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
)

// MaxRuns is the number of run summaries kept in the run log.
const MaxRuns = 100

// RunSummary is one row of the run log.
type RunSummary struct {
	ID           string        `json:"id"`
	Mode         string        `json:"mode"`
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"durationNs"`
	Courses      int           `json:"courses"`
	Modules      int           `json:"modules"`
	Lessons      int           `json:"lessons"`
	Chunks       int           `json:"chunks"`
	CodeExamples int           `json:"codeExamples"`
	Errors       int           `json:"errors"`
}

// NewRunSummary summarizes a finished run under a fresh run ID.
func NewRunSummary(mode string, startedAt time.Time, stats progress.IndexingStats) RunSummary {
	return RunSummary{
		ID:           uuid.NewString(),
		Mode:         mode,
		StartedAt:    startedAt.UTC(),
		Duration:     time.Duration(stats.IndexingTimeMs) * time.Millisecond,
		Courses:      stats.TotalCourses,
		Modules:      stats.TotalModules,
		Lessons:      stats.TotalLessons,
		Chunks:       stats.TotalChunks,
		CodeExamples: stats.TotalCodeExamples,
		Errors:       len(stats.Errors),
	}
}

// RunLog is an append-only SQLite log of recent indexing runs, bounded to
// MaxRuns rows.
type RunLog struct {
	db *sql.DB
}

// OpenRunLog opens or creates the run log at path.
func OpenRunLog(path string) (*RunLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create run log directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := initRunLogSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &RunLog{db: db}, nil
}

func initRunLogSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		mode TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		courses INTEGER NOT NULL,
		modules INTEGER NOT NULL,
		lessons INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		code_examples INTEGER NOT NULL,
		errors INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create run log schema: %w", err)
	}
	return nil
}

// Append records a run and trims the log to the newest MaxRuns rows.
func (l *RunLog) Append(ctx context.Context, r RunSummary) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, mode, started_at, duration_ms, courses, modules, lessons, chunks, code_examples, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Mode, r.StartedAt.UTC().Format(time.RFC3339Nano), r.Duration.Milliseconds(),
		r.Courses, r.Modules, r.Lessons, r.Chunks, r.CodeExamples, r.Errors)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM runs
		WHERE seq NOT IN (
			SELECT seq FROM runs
			ORDER BY seq DESC
			LIMIT ?
		)
	`, MaxRuns)
	if err != nil {
		return fmt.Errorf("trim run log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (l *RunLog) Recent(ctx context.Context, n int) ([]RunSummary, error) {
	if n <= 0 {
		return []RunSummary{}, nil
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, mode, started_at, duration_ms, courses, modules, lessons, chunks, code_examples, errors
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			r          RunSummary
			startedAt  string
			durationMs int64
		)
		if err := rows.Scan(&r.ID, &r.Mode, &startedAt, &durationMs,
			&r.Courses, &r.Modules, &r.Lessons, &r.Chunks, &r.CodeExamples, &r.Errors); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Count returns the number of stored runs.
func (l *RunLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (l *RunLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
