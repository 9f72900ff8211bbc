package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/chunk"
)

func TestParseFilter(t *testing.T) {
	code := chunk.Metadata{CourseID: "intro", LessonID: "l1", ChunkType: chunk.TypeCode}
	assignment := chunk.Metadata{CourseID: "intro", LessonID: "l3", ChunkType: chunk.TypeAssignment}
	content := chunk.Metadata{CourseID: "ml", LessonID: "l1", ChunkType: chunk.TypeContent, ChunkIndex: 2}

	tests := []struct {
		name string
		expr string
		want map[string]bool
	}{
		{"single equality", "chunkType=code", map[string]bool{"code": true, "assignment": false, "content": false}},
		{"conjunction", "chunkType=code,courseId=intro", map[string]bool{"code": true, "assignment": false, "content": false}},
		{"alternatives", "chunkType=code|assignment", map[string]bool{"code": true, "assignment": true, "content": false}},
		{"negation", "lessonId!=l3", map[string]bool{"code": true, "assignment": false, "content": true}},
		{"numeric field", "chunkIndex=2", map[string]bool{"code": false, "assignment": false, "content": true}},
		{"spaces", " courseId = ml ", map[string]bool{"code": false, "assignment": false, "content": true}},
	}
	md := map[string]chunk.Metadata{"code": code, "assignment": assignment, "content": content}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			require.NotNil(t, f)
			for key, want := range tt.want {
				assert.Equal(t, want, f.Match(md[key]), key)
			}
		})
	}
}

func TestParseFilter_Empty(t *testing.T) {
	f, err := ParseFilter("   ")
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestParseFilter_Errors(t *testing.T) {
	_, err := ParseFilter("chunkType")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected field=value")

	_, err = ParseFilter("colour=red")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestOr_EmptyMatchesNothing(t *testing.T) {
	assert.False(t, Or().Match(chunk.Metadata{}))
	assert.True(t, And().Match(chunk.Metadata{}))
}
