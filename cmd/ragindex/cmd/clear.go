package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/output"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/snapshot"
)

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted index",
		Long: `Delete the snapshot, metadata and run log from paths.data_dir.
Running it on an empty data directory is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snaps := snapshot.NewStore(a.cfg.Paths.DataDir)

			unlock, err := snaps.Lock()
			if err != nil {
				return err
			}
			defer func() { _ = unlock() }()

			if err := snaps.Clear(); err != nil {
				return err
			}
			slog.Info("index_cleared", slog.String("data_dir", snaps.Dir()))
			output.New(cmd.OutOrStdout()).Successf("Index cleared: %s", snaps.Dir())
			return nil
		},
	}
}
