package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/progress"
)

func openTestRunLog(t *testing.T) *RunLog {
	t.Helper()
	log, err := OpenRunLog(filepath.Join(t.TempDir(), RunLogFile))
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestRunLog_AppendAndRecent(t *testing.T) {
	// Given: an empty run log
	log := openTestRunLog(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	// When: two runs are appended
	first := NewRunSummary("index", start, progress.IndexingStats{TotalCourses: 3, TotalChunks: 30, IndexingTimeMs: 1200})
	second := NewRunSummary("incremental", start.Add(time.Hour), progress.IndexingStats{
		TotalCourses: 2,
		Errors:       []progress.IndexingError{{CourseID: "x", Message: "boom"}},
	})
	require.NoError(t, log.Append(ctx, first))
	require.NoError(t, log.Append(ctx, second))

	// Then: Recent returns them newest first with all fields
	runs, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0])
	assert.Equal(t, first, runs[1])
	assert.Equal(t, 1200*time.Millisecond, runs[1].Duration)
	assert.Equal(t, 1, runs[0].Errors)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRunLog_TrimsToMaxRuns(t *testing.T) {
	log := openTestRunLog(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < MaxRuns+5; i++ {
		require.NoError(t, log.Append(ctx, NewRunSummary("index", start.Add(time.Duration(i)*time.Minute),
			progress.IndexingStats{TotalChunks: i})))
	}

	n, err := log.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, MaxRuns, n)

	runs, err := log.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, MaxRuns+4, runs[0].Chunks)
}

func TestRunLog_RecentNonPositive(t *testing.T) {
	log := openTestRunLog(t)

	runs, err := log.Recent(context.Background(), 0)

	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunLog_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), RunLogFile)
	ctx := context.Background()

	log, err := OpenRunLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, NewRunSummary("index", time.Now(), progress.IndexingStats{})))
	require.NoError(t, log.Close())

	log, err = OpenRunLog(path)
	require.NoError(t, err)
	defer log.Close()
	n, err := log.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
