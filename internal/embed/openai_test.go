package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIEmbedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	e, err := NewOpenAIEmbedder(OpenAIConfig{
		BaseURL:    srv.URL + "/",
		APIKey:     "sk-test",
		Dimensions: 3,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	// Given: a provider that answers out of order
	var got openAIRequest
	e := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0,1,0]},
			{"index":0,"embedding":[1,0,0]}
		],"model":"text-embedding-3-small"}`))
	})

	// When: embedding two texts
	vecs, err := e.EmbedBatch(context.Background(), []string{"first", "second"})

	// Then: vectors are placed by index and the request names model and dims
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vecs)
	assert.Equal(t, []string{"first", "second"}, got.Input)
	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.Equal(t, 3, got.Dimensions)
}

func TestOpenAIEmbedder_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  string
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, ragerrors.ErrCodeRateLimited, true},
		{"server error", http.StatusBadGateway, ragerrors.ErrCodeNetworkUnavailable, true},
		{"unauthorized", http.StatusUnauthorized, ragerrors.ErrCodeMissingAPIKey, false},
		{"bad request", http.StatusBadRequest, ragerrors.ErrCodeEmbeddingFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"x"}}`))
			})

			_, err := e.Embed(context.Background(), "q")

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, ragerrors.GetCode(err))
			assert.Equal(t, tt.retryable, ragerrors.IsRetryable(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestOpenAIEmbedder_RejectsWrongDimensions(t *testing.T) {
	e := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0]}]}`))
	})

	_, err := e.Embed(context.Background(), "q")

	require.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeDimensionMismatch, ragerrors.GetCode(err))
}

func TestOpenAIEmbedder_RejectsShortResponse(t *testing.T) {
	e := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0,0]}]}`))
	})

	_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})

	require.Error(t, err)
	assert.Equal(t, ragerrors.ErrCodeEmbeddingFailed, ragerrors.GetCode(err))
}

func TestOpenAIEmbedder_EmptyBatchSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	e := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) { calls.Add(1) })

	vecs, err := e.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Zero(t, calls.Load())
}

func TestNewOpenAIEmbedder_MissingKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "  "})

	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.True(t, ragerrors.IsFatal(err))
}

func TestOpenAIEmbedder_Defaults(t *testing.T) {
	e, err := NewOpenAIEmbedder(OpenAIConfig{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultOpenAIModel, e.ModelName())
	assert.Equal(t, DefaultOpenAIDimensions, e.Dimensions())
}
