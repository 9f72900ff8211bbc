package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/config"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/embed"
)

func TestNewEmbedder_IndexingUsesCache(t *testing.T) {
	// Given: the static provider with the default cache size
	cfg := config.NewConfig()
	cfg.Embeddings.Provider = "static"
	cfg.Embeddings.Dimensions = 64

	// When: building the indexing and the search embedder
	indexing, err := newEmbedder(cfg, true)
	require.NoError(t, err)
	search, err := newEmbedder(cfg, false)
	require.NoError(t, err)

	// Then: only the indexing embedder is wrapped in the LRU
	assert.IsType(t, &embed.CachedEmbedder{}, indexing)
	assert.IsType(t, &embed.StaticEmbedder{}, search)
	assert.Equal(t, 64, indexing.Dimensions())
}
