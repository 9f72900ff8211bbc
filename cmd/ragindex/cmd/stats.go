package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/output"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/snapshot"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/ui"
)

// statsRuns is how many run log entries 'stats' shows.
const statsRuns = 5

func newStatsCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics and per-unit errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snaps := snapshot.NewStore(a.cfg.Paths.DataDir)

			meta, err := snaps.LoadMetadata()
			if errors.Is(err, snapshot.ErrNotFound) {
				output.New(cmd.OutOrStdout()).Warning("No index found. Run 'ragindex index' first.")
				return nil
			}
			if err != nil {
				return err
			}

			info := ui.StatsInfo{
				DataDir:      snaps.Dir(),
				Metadata:     meta,
				SnapshotSize: snaps.SnapshotSize(),
			}

			// The snapshot carries the per-unit errors; no query embedder is
			// needed to read it.
			if _, stats, err := snaps.LoadSnapshot(nil); err == nil {
				info.Stats = &stats
			} else if !errors.Is(err, snapshot.ErrNotFound) {
				return err
			}

			if _, statErr := os.Stat(snaps.RunLogPath()); statErr == nil {
				runLog, err := snapshot.OpenRunLog(snaps.RunLogPath())
				if err != nil {
					slog.Warn("run_log_unavailable", slog.String("error", err.Error()))
				} else {
					defer func() { _ = runLog.Close() }()
					if info.Runs, err = runLog.Recent(cmd.Context(), statsRuns); err != nil {
						slog.Warn("run_log_read_failed", slog.String("error", err.Error()))
					}
				}
			}

			r := ui.NewStatsRenderer(cmd.OutOrStdout(), ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()))
			if jsonOutput {
				return r.RenderJSON(info)
			}
			return r.Render(info)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output stats as JSON")

	return cmd
}
