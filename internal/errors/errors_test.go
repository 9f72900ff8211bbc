package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: Error wrapping preserves original error
func TestRAGError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("connection refused")

	// When: wrapping with RAGError
	ragErr := New(ErrCodeNetworkUnavailable, "embedding provider unreachable", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, ragErr)
	assert.Equal(t, originalErr, errors.Unwrap(ragErr))
	assert.True(t, errors.Is(ragErr, originalErr))
}

func TestRAGError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{"config", ErrCodeConfigInvalid, "chunk overlap too large", "[ERR_102_CONFIG_INVALID] chunk overlap too large"},
		{"snapshot", ErrCodeCorruptIndex, "snapshot unreadable", "[ERR_205_CORRUPT_INDEX] snapshot unreadable"},
		{"export", ErrCodeMissingExport, "no course export", "[ERR_405_MISSING_EXPORT] no course export"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestRAGError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with the same code and different messages
	err1 := New(ErrCodeDimensionMismatch, "expected 256 got 8", nil)
	err2 := New(ErrCodeDimensionMismatch, "expected 1536 got 3", nil)
	other := New(ErrCodeModelMismatch, "model differs", nil)

	// Then: they match by code only
	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, other))
}

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeMissingAPIKey, CategoryConfig, SeverityFatal, false},
		{ErrCodeCorruptIndex, CategoryIO, SeverityFatal, false},
		{ErrCodeRateLimited, CategoryNetwork, SeverityWarning, true},
		{ErrCodeInvalidCourse, CategoryValidation, SeverityError, false},
		{ErrCodeEmbeddingFailed, CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	// Given: a RAGError wrapped by fmt.Errorf
	inner := New(ErrCodeNetworkTimeout, "timeout", nil)
	wrapped := fmt.Errorf("batch 3: %w", inner)

	// Then: helpers find it in the chain
	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsFatal(wrapped))
	assert.Equal(t, ErrCodeNetworkTimeout, GetCode(wrapped))
	assert.Equal(t, CategoryNetwork, GetCategory(wrapped))
}

func TestHelpers_PlainErrors(t *testing.T) {
	err := errors.New("plain")

	assert.False(t, IsRetryable(err))
	assert.False(t, IsFatal(err))
	assert.Empty(t, GetCode(err))
	assert.False(t, IsRetryable(nil))
}

func TestWithDetailAndSuggestion_Chain(t *testing.T) {
	err := New(ErrCodeSnapshotNotFound, "no snapshot", nil).
		WithDetail("path", ".ragindex/snapshot.json").
		WithSuggestion("run 'ragindex index' first")

	assert.Equal(t, ".ragindex/snapshot.json", err.Details["path"])
	assert.Equal(t, "run 'ragindex index' first", err.Suggestion)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}
