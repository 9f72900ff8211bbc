package embed

import (
	"fmt"
	"strings"
	"time"

	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
)

// Provider names an embedding backend.
type Provider string

const (
	// ProviderOpenAI calls an OpenAI-compatible HTTP API. Needs an API key.
	ProviderOpenAI Provider = "openai"

	// ProviderStatic uses local hash embeddings. For offline use and tests.
	ProviderStatic Provider = "static"
)

// ErrMissingAPIKey is returned when a provider that needs credentials has none.
var ErrMissingAPIKey = ragerrors.New(ragerrors.ErrCodeMissingAPIKey, "embedding API key is not set", nil)

// Config selects and configures a provider.
type Config struct {
	Provider          Provider
	Model             string
	Dimensions        int
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64

	// CacheSize wraps the provider in a CachedEmbedder when > 0.
	CacheSize int
}

// RequiresAPIKey reports whether p needs credentials.
func (p Provider) RequiresAPIKey() bool {
	return p == ProviderOpenAI
}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderOpenAI, ProviderStatic:
		return p, nil
	default:
		return "", ragerrors.ConfigError(fmt.Sprintf("unknown embedding provider %q (use openai or static)", s), nil)
	}
}

// NewEmbedder builds the configured provider.
func NewEmbedder(cfg Config) (Embedder, error) {
	var e Embedder
	switch cfg.Provider {
	case ProviderOpenAI:
		oe, err := NewOpenAIEmbedder(OpenAIConfig{
			BaseURL:           cfg.BaseURL,
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		e = oe
	case ProviderStatic:
		e = NewStaticEmbedder(cfg.Dimensions)
	default:
		return nil, ragerrors.ConfigError(fmt.Sprintf("unknown embedding provider %q", cfg.Provider), nil)
	}

	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
