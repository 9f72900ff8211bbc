package cmd

import (
	"github.com/spf13/cobra"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/config"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/embed"
	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/output"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		force       bool
		provider    string
		contentRoot string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .ragindex.yaml with default settings",
		Long: `Write a .ragindex.yaml with default settings into the project directory.

An existing file is kept unless --force is given; it is then backed up
next to the new one (the newest three backups are kept).`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.NewConfig()
			if provider != "" {
				p, err := embed.ParseProvider(provider)
				if err != nil {
					return err
				}
				cfg.Embeddings.Provider = string(p)
				if p == embed.ProviderStatic {
					cfg.Embeddings.Model = embed.StaticModelName
					cfg.Embeddings.Dimensions = embed.StaticDimensions
				}
			}
			if contentRoot != "" {
				cfg.Paths.ContentRoot = contentRoot
			}
			if err := cfg.Validate(); err != nil {
				return ragerrors.ConfigError("invalid init settings", err)
			}

			path, backup, err := config.WriteProjectConfig(cfg, a.dir, force)
			if err != nil {
				return ragerrors.New(ragerrors.ErrCodeConfigInvalid, "cannot write project config", err)
			}

			out := output.New(cmd.OutOrStdout())
			if backup != "" {
				out.Statusf("💾", "Backed up previous config to %s", backup)
			}
			out.Successf("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config (a backup is kept)")
	cmd.Flags().StringVar(&provider, "provider", "", "Embedding provider: openai (default) or static")
	cmd.Flags().StringVar(&contentRoot, "content", "", "Content root, relative to the project directory")

	return cmd
}
