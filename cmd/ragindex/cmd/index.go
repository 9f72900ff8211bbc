package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/course"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/embed"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/index"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/output"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/snapshot"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/ui"
)

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the index from the content root",
		Long: `Index every course unit under paths.content_root.

Each lesson is chunked and embedded, the result replaces the snapshot in
paths.data_dir and the run is appended to the run log. Units that fail to
load, chunk or embed are reported as warnings and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, a, false)
		},
	}
}

func newIncrementalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "incremental",
		Short: "Update the index (currently always a full rebuild)",
		Long: `Update the index using the previous run's metadata.

Change detection is not implemented yet: the previous metadata is read and
logged, then a full rebuild runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, a, true)
		},
	}
}

func runIndex(ctx context.Context, cmd *cobra.Command, a *app, incremental bool) error {
	cfg := a.cfg

	embedder, err := newEmbedder(cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	chunker, err := newChunker(cfg)
	if err != nil {
		return err
	}

	snaps := snapshot.NewStore(cfg.Paths.DataDir)
	unlock, err := snaps.Lock()
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	runLog, err := snapshot.OpenRunLog(snaps.RunLogPath())
	if err != nil {
		// The run log only feeds 'stats'; index without it.
		slog.Warn("run_log_unavailable", slog.String("error", err.Error()))
		runLog = nil
	} else {
		defer func() { _ = runLog.Close() }()
	}

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(a.noTUI),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithContentRoot(cfg.Paths.ContentRoot)))
	if err := renderer.Start(ctx); err != nil {
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Source:    course.NewLoader(cfg.Paths.ContentRoot),
		Chunker:   chunker,
		Pipeline:  newPipeline(cfg, embedder),
		Observer:  renderer,
		Snapshots: snaps,
		RunLog:    runLog,
		ANN:       cfg.Search.ANN,
	})
	if err != nil {
		return err
	}

	var res *index.Result
	if incremental {
		res, err = runner.RunIncremental(ctx)
	} else {
		res, err = runner.Run(ctx)
	}
	if err != nil {
		return err
	}

	if c, ok := embedder.(*embed.CachedEmbedder); ok {
		hits, misses := c.Stats()
		slog.Info("embedding_cache",
			slog.Int64("hits", hits),
			slog.Int64("misses", misses),
			slog.Int("entries", c.Len()))
	}

	renderer.Complete(ui.NewSummary(res.Stats, res.Index.Model(), res.Index.Dimensions()))
	_ = renderer.Stop()

	output.New(cmd.OutOrStdout()).WithColor(!ui.DetectNoColor() && ui.IsTTY(cmd.OutOrStdout())).
		IndexComplete(res.Stats)
	return nil
}
