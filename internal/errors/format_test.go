package errors

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: a fatal credentials error with a suggestion
	err := New(ErrCodeMissingAPIKey, "embedding API key is not set", nil).
		WithSuggestion("export OPENAI_API_KEY=...")

	// When: formatting for the terminal
	out := FormatForCLI(err)

	// Then: message, hint and code are present
	assert.Contains(t, out, "Error: embedding API key is not set")
	assert.Contains(t, out, "Hint: export OPENAI_API_KEY=...")
	assert.Contains(t, out, "Code: ERR_103_MISSING_API_KEY")
}

func TestFormatForCLI_PlainErrorWrappedAsInternal(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))

	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Code: ERR_501_INTERNAL")
	assert.NotContains(t, out, "Cause:")
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestLogAttrs(t *testing.T) {
	// Given: an error with a cause and a detail
	err := New(ErrCodeEmbeddingFailed, "batch failed", errors.New("503")).
		WithDetail("lesson", "l1")

	// When: converting to slog attributes
	attrs := attrMap(LogAttrs(err))

	// Then: code, cause and detail are present
	assert.Equal(t, ErrCodeEmbeddingFailed, attrs["error_code"])
	assert.Equal(t, "503", attrs["cause"])
	assert.Equal(t, "l1", attrs["detail_lesson"])
	assert.Equal(t, "false", attrs["retryable"])

	assert.Equal(t, map[string]string{"error": "x"}, attrMap(LogAttrs(errors.New("x"))))
	assert.Nil(t, LogAttrs(nil))
}

func attrMap(attrs []any) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		attr := a.(slog.Attr)
		m[attr.Key] = attr.Value.String()
	}
	return m
}
