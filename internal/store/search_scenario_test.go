package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/chunk"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/embed"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/store"
)

func TestIndex_Query_ExactPhraseRanksFirst(t *testing.T) {
	// Given: an index over static embeddings where one chunk names the phrase
	ctx := context.Background()
	emb := embed.NewStaticEmbedder(embed.StaticDimensions)
	ix, err := store.New(store.Config{Model: emb.ModelName(), Dimensions: emb.Dimensions()}, emb)
	require.NoError(t, err)

	texts := map[string]string{
		"python":   "Python lists hold ordered items and support slicing.",
		"neural":   "Neural networks stack layers of weighted units to learn features.",
		"sql":      "SQL joins combine rows from two tables on a shared key.",
		"gradient": "Gradient descent follows the slope of the loss downhill.",
	}
	for _, id := range []string{"python", "neural", "sql", "gradient"} {
		vec, err := emb.Embed(ctx, texts[id])
		require.NoError(t, err)
		require.NoError(t, ix.Add(store.Entry{
			Chunk:  chunk.Chunk{ID: id, Content: texts[id], Metadata: chunk.Metadata{ChunkType: chunk.TypeContent}},
			Vector: vec,
		}))
	}

	// When: searching for "neural networks"
	results, err := ix.Query(ctx, "neural networks", 3, nil)

	// Then: the chunk containing the phrase is first with a strictly higher score
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "neural", results[0].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}
