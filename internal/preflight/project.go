package preflight

import (
	"context"
	"errors"
	"fmt"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/course"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/embed"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/snapshot"
)

// CheckContentRoot checks that the content root can be listed. An empty root
// is a warning: indexing it succeeds with nothing to search.
func (c *Checker) CheckContentRoot(ctx context.Context, root string) CheckResult {
	result := CheckResult{
		Name:     "content_root",
		Required: true,
		Details:  root,
	}

	units, err := course.NewLoader(root).ListUnits(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot read %s", root)
		return result
	}
	if len(units) == 0 {
		result.Status = StatusWarn
		result.Message = "no course units found"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d course unit(s)", len(units))
	return result
}

// CheckEmbedder checks the provider name and, for providers that need one,
// that the API key is set.
func (c *Checker) CheckEmbedder(t Target) CheckResult {
	result := CheckResult{
		Name:     "embedder",
		Required: true,
	}

	provider, err := embed.ParseProvider(t.Provider)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("unknown provider %q", t.Provider)
		result.Details = "Use openai or static"
		return result
	}

	if provider.RequiresAPIKey() && !t.APIKeySet {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s needs an API key", provider)
		result.Details = fmt.Sprintf("Export %s, or set embeddings.provider: static", t.APIKeyEnv)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s (%s, %d dims)", provider, t.Model, t.Dimensions)
	return result
}

// CheckIndex compares the saved index, if any, with the configured model.
// A mismatch means search will fail until the index is rebuilt.
func (c *Checker) CheckIndex(t Target) CheckResult {
	result := CheckResult{
		Name: "index",
	}

	meta, err := snapshot.NewStore(t.DataDir).LoadMetadata()
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		result.Status = StatusWarn
		result.Message = "no index yet"
		result.Details = "Run 'ragindex index'"
		return result
	case err != nil:
		result.Status = StatusFail
		result.Message = "index metadata is unreadable"
		result.Details = "Run 'ragindex clear' and re-index"
		return result
	}

	if meta.Model != "" && (meta.Model != t.Model || meta.Dimensions != t.Dimensions) {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("built with %s (%d dims), configured %s (%d dims)",
			meta.Model, meta.Dimensions, t.Model, t.Dimensions)
		result.Details = "Run 'ragindex index' to rebuild"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d lessons, %d chunks", meta.TotalLessons, meta.TotalChunks)
	return result
}
