package cmd

import (
	"github.com/groeimetai/groeimetai-platform-sub011/internal/chunk"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/config"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/embed"
	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
)

// newEmbedder builds the configured provider. A provider that needs an API
// key fails here, before any work starts. cached wraps it in the LRU so
// repeated chunk texts in one run are embedded once.
func newEmbedder(cfg *config.Config, cached bool) (embed.Embedder, error) {
	provider, err := embed.ParseProvider(cfg.Embeddings.Provider)
	if err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey()
	if provider.RequiresAPIKey() && apiKey == "" {
		return nil, ragerrors.New(ragerrors.ErrCodeMissingAPIKey,
			"embedding API key is not set", embed.ErrMissingAPIKey).
			WithDetail("env", cfg.Embeddings.APIKeyEnv).
			WithSuggestion("Export " + cfg.Embeddings.APIKeyEnv + " (or RAGINDEX_API_KEY), or set embeddings.provider: static")
	}

	cacheSize := 0
	if cached {
		cacheSize = cfg.Embeddings.CacheSize
	}

	return embed.NewEmbedder(embed.Config{
		Provider:          provider,
		Model:             cfg.Embeddings.Model,
		Dimensions:        cfg.Embeddings.Dimensions,
		BaseURL:           cfg.Embeddings.BaseURL,
		APIKey:            apiKey,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Embeddings.RequestsPerSecond,
		CacheSize:         cacheSize,
	})
}

func newPipeline(cfg *config.Config, e embed.Embedder) *embed.Pipeline {
	retry := ragerrors.DefaultRetryConfig()
	retry.MaxRetries = cfg.Embeddings.MaxRetries

	return embed.NewPipeline(e, embed.PipelineConfig{
		BatchSize:   cfg.Embeddings.BatchSize,
		BatchDelay:  cfg.BatchDelay(),
		Retry:       retry,
		Concurrency: cfg.Embeddings.Concurrency,
	})
}

func newChunker(cfg *config.Config) (*chunk.Chunker, error) {
	splitter, err := chunk.NewRecursiveSplitter(
		chunk.WithChunkSize(cfg.Chunking.Size),
		chunk.WithChunkOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return nil, ragerrors.ConfigError("invalid chunking settings", err)
	}
	return chunk.NewChunker(splitter), nil
}
