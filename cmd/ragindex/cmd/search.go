package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/chunk"
	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/output"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/snapshot"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/store"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/ui"
)

// searchHit is the JSON form of one result.
type searchHit struct {
	Rank     int            `json:"rank"`
	Score    float64        `json:"score"`
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata chunk.Metadata `json:"metadata"`
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit     int
		chunkType string
		courseID  string
		filterExp string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search the index",
		Long: `Search the persisted index for chunks similar to the query.

Filters are ANDed together:
  --type code                 only code examples
  --course intro-to-ai        only one course
  --filter 'chunkType=code|assignment,lessonId!=l3'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return ragerrors.New(ragerrors.ErrCodeQueryEmpty, "search query is empty", nil)
			}
			if format != "text" && format != "json" {
				return ragerrors.ValidationError(fmt.Sprintf("unknown --format %q (use text or json)", format), nil)
			}
			if limit <= 0 {
				limit = a.cfg.Search.DefaultLimit
			}

			filter, err := buildFilter(chunkType, courseID, filterExp)
			if err != nil {
				return err
			}

			embedder, err := newEmbedder(a.cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = embedder.Close() }()

			snaps := snapshot.NewStore(a.cfg.Paths.DataDir)
			idx, _, err := snaps.LoadSnapshot(embedder, snapshot.WithANN(a.cfg.Search.ANN, a.cfg.Search.ANNOverfetch))
			if err != nil {
				return err
			}

			start := time.Now()
			results, err := idx.Query(cmd.Context(), query, limit, filter)
			if err != nil {
				return ragerrors.New(ragerrors.ErrCodeSearchFailed, "search failed", err)
			}
			slog.Info("search_complete",
				slog.String("query", query),
				slog.Int("limit", limit),
				slog.Int("results", len(results)),
				slog.Duration("duration", time.Since(start)))

			if format == "json" {
				hits := make([]searchHit, len(results))
				for i, r := range results {
					hits[i] = searchHit{Rank: i + 1, Score: r.Score, ID: r.Chunk.ID, Content: r.Chunk.Content, Metadata: r.Chunk.Metadata}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(hits)
			}

			output.New(cmd.OutOrStdout()).WithColor(!ui.DetectNoColor() && ui.IsTTY(cmd.OutOrStdout())).
				Results(query, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default search.default_limit)")
	cmd.Flags().StringVar(&chunkType, "type", "", "Only return chunks of this type: content, code, assignment, resource")
	cmd.Flags().StringVar(&courseID, "course", "", "Only return chunks from this course id")
	cmd.Flags().StringVar(&filterExp, "filter", "", "Metadata filter: field=value[,field!=value...], '|' separates alternatives")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

func buildFilter(chunkType, courseID, expr string) (store.Filter, error) {
	var clauses []store.Filter

	if chunkType != "" {
		if !chunk.Type(chunkType).Valid() {
			return nil, ragerrors.ValidationError(fmt.Sprintf("unknown --type %q", chunkType), nil).
				WithSuggestion("Use one of: content, code, assignment, resource")
		}
		clauses = append(clauses, store.Eq("chunkType", chunkType))
	}
	if courseID != "" {
		clauses = append(clauses, store.Eq("courseId", courseID))
	}
	if expr != "" {
		f, err := store.ParseFilter(expr)
		if err != nil {
			return nil, ragerrors.ValidationError("invalid --filter", err).
				WithSuggestion("Known fields: " + strings.Join(chunk.FieldNames, ", "))
		}
		if f != nil {
			clauses = append(clauses, f)
		}
	}

	switch len(clauses) {
	case 0:
		return nil, nil
	case 1:
		return clauses[0], nil
	default:
		return store.And(clauses...), nil
	}
}
