package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
)

// OpenAI defaults.
const (
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultOpenAIModel      = "text-embedding-3-small"
	DefaultOpenAIDimensions = 1536
)

// OpenAIConfig configures the OpenAI-compatible HTTP embedder.
type OpenAIConfig struct {
	// BaseURL is the API root; "/embeddings" is appended.
	BaseURL string

	// APIKey is sent as a bearer token. Required.
	APIKey string

	Model      string
	Dimensions int

	// Timeout bounds a single request.
	Timeout time.Duration

	// RequestsPerSecond paces requests; <= 0 disables pacing.
	RequestsPerSecond float64
}

type openAIRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client  *http.Client
	cfg     OpenAIConfig
	limiter *rate.Limiter

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder validates cfg, applies defaults and returns the embedder.
// A missing API key is a fatal configuration error.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultOpenAIDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	// No client-level timeout: each request gets its own context deadline.
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     10 * time.Second,
	}

	return &OpenAIEmbedder{
		client:  &http.Client{Transport: transport},
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends texts in one request. Callers split into batches of at
// most MaxBatchSize.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("openai embedder is closed")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if len(texts) > MaxBatchSize {
		return nil, ragerrors.ValidationError(
			fmt.Sprintf("batch of %d texts exceeds provider limit %d", len(texts), MaxBatchSize), nil)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	vecs, err := e.do(reqCtx, texts)
	slog.Debug("embedding_request",
		slog.Int("texts", len(texts)),
		slog.String("model", e.cfg.Model),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("ok", err == nil))
	return vecs, err
}

func (e *OpenAIEmbedder) do(ctx context.Context, texts []string) ([][]float32, error) {
	payload := openAIRequest{Input: texts, Model: e.cfg.Model}
	if strings.HasPrefix(e.cfg.Model, "text-embedding-3") {
		payload.Dimensions = e.cfg.Dimensions
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ragerrors.New(ragerrors.ErrCodeNetworkTimeout, "embedding request timed out", err)
		}
		return nil, ragerrors.NetworkError("embedding provider unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, ragerrors.NetworkError("read embedding response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, raw)
	}

	var out openAIResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, ragerrors.New(ragerrors.ErrCodeEmbeddingFailed, "decode embedding response", err)
	}
	if len(out.Data) != len(texts) {
		return nil, ragerrors.New(ragerrors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("provider returned %d embeddings for %d texts", len(out.Data), len(texts)), nil)
	}

	vecs := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) || vecs[d.Index] != nil {
			return nil, ragerrors.New(ragerrors.ErrCodeEmbeddingFailed,
				fmt.Sprintf("provider returned invalid index %d", d.Index), nil)
		}
		if len(d.Embedding) != e.cfg.Dimensions {
			return nil, ragerrors.New(ragerrors.ErrCodeDimensionMismatch,
				fmt.Sprintf("provider returned %d dimensions, configured %d", len(d.Embedding), e.cfg.Dimensions), nil)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var parsed openAIResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		msg = parsed.Error.Message
	}

	switch {
	case status == http.StatusTooManyRequests:
		return ragerrors.New(ragerrors.ErrCodeRateLimited, fmt.Sprintf("provider rate limited: %s", msg), nil)
	case status >= 500:
		return ragerrors.NetworkError(fmt.Sprintf("provider error %d: %s", status, msg), nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ragerrors.New(ragerrors.ErrCodeMissingAPIKey, fmt.Sprintf("provider rejected API key: %s", msg), nil)
	default:
		return ragerrors.New(ragerrors.ErrCodeEmbeddingFailed, fmt.Sprintf("provider returned %d: %s", status, msg), nil)
	}
}

// Dimensions implements Embedder.
func (e *OpenAIEmbedder) Dimensions() int { return e.cfg.Dimensions }

// ModelName implements Embedder.
func (e *OpenAIEmbedder) ModelName() string { return e.cfg.Model }

// Close implements Embedder.
func (e *OpenAIEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.client.CloseIdleConnections()
	return nil
}
