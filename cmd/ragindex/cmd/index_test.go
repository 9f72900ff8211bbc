package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/ui"
)

func TestIndexCmd_PrintsBanner(t *testing.T) {
	// Given: a project with one course of two lessons
	dir := newProject(t)

	// When: indexing
	out, err := run(t, dir, "index")

	// Then: progress lines and the success banner are printed
	require.NoError(t, err)
	assert.Contains(t, out, "[COURSE] 1/1 - intro-to-ai")
	assert.Contains(t, out, "[LESSON] intro-to-ai/m1/l2")
	assert.Contains(t, out, "✅ Indexing complete: 1 courses, 1 modules, 2 lessons, 4 chunks")
	assert.NotContains(t, out, "warning")
}

func TestIndexCmd_BrokenUnitIsAWarning(t *testing.T) {
	// Given: a second unit without a course export
	dir := newProject(t)
	writeUnit(t, dir, "broken", "helper:\n  title: nothing here\n")

	// When: indexing
	out, err := run(t, dir, "index")

	// Then: the good course is indexed and one warning is reported
	require.NoError(t, err)
	assert.Contains(t, out, "WARN: broken:")
	assert.Contains(t, out, "✅ Indexing complete: 1 courses")
	assert.Contains(t, out, "⚠️ 1 warning; run 'ragindex stats' for details")
}

func TestIndexCmd_MissingAPIKeyIsFatal(t *testing.T) {
	// Given: the openai provider without credentials
	dir := newProject(t)
	t.Setenv("RAGINDEX_EMBEDDINGS_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RAGINDEX_API_KEY", "")

	// When: indexing
	out, err := run(t, dir, "index")

	// Then: nothing runs and the missing key error is returned
	require.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeMissingAPIKey, ragerrors.GetCode(err))
	assert.NotContains(t, out, "[COURSE]")
}

func TestIndexCmd_MissingContentRootIsFatal(t *testing.T) {
	dir := newProject(t)
	t.Setenv("RAGINDEX_CONTENT_ROOT", "does-not-exist")

	_, err := run(t, dir, "index")

	require.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeContentRoot, ragerrors.GetCode(err))
}

func TestIncrementalCmd_RunsFullIndex(t *testing.T) {
	dir := newProject(t)

	out, err := run(t, dir, "incremental")

	require.NoError(t, err)
	assert.Contains(t, out, "✅ Indexing complete: 1 courses, 1 modules, 2 lessons, 4 chunks")
}

func TestStatsCmd(t *testing.T) {
	// Given: an indexed project with a broken unit
	dir := newProject(t)
	writeUnit(t, dir, "broken", "helper:\n  title: nothing here\n")
	_, err := run(t, dir, "index")
	require.NoError(t, err)

	// When: reading stats as JSON
	out, err := run(t, dir, "stats", "--json")
	require.NoError(t, err)

	// Then: metadata, per-unit errors and the run log entry are present
	var info ui.StatsInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 4, info.Metadata.TotalChunks)
	assert.Equal(t, 64, info.Metadata.Dimensions)
	require.NotNil(t, info.Stats)
	require.Len(t, info.Stats.Errors, 1)
	assert.Equal(t, "broken", info.Stats.Errors[0].CourseID)
	require.Len(t, info.Runs, 1)
	assert.Equal(t, "index", info.Runs[0].Mode)
	assert.Positive(t, info.SnapshotSize)

	// And: the text form names the failed unit
	text, err := run(t, dir, "stats")
	require.NoError(t, err)
	assert.Contains(t, text, "broken")
}

func TestStatsCmd_NoIndex(t *testing.T) {
	dir := newProject(t)

	out, err := run(t, dir, "stats")

	require.NoError(t, err)
	assert.Contains(t, out, "No index found")
}

func TestClearCmd_IsIdempotent(t *testing.T) {
	// Given: an indexed project
	dir := newProject(t)
	_, err := run(t, dir, "index")
	require.NoError(t, err)

	// When: clearing twice
	out, err := run(t, dir, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ Index cleared")
	_, err = run(t, dir, "clear")
	require.NoError(t, err)

	// Then: stats reports no index
	out, err = run(t, dir, "stats")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "No index found"))
}
