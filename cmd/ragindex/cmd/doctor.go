package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/embed"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/preflight"
)

// errCheckFailed is returned when a required doctor check fails.
var errCheckFailed = errors.New("system check failed")

func newDoctorCmd(a *app) *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project and system before indexing",
		Long: `Run diagnostics to make sure ragindex can index and search this project.

Checks:
  - Content root exists and contains course units
  - Data directory is writable
  - Disk space (100MB minimum)
  - File descriptor limits (1024 minimum)
  - Embedding provider and API key
  - Saved index matches the configured model (warning only)`,
		Example: `  # Run diagnostics
  ragindex doctor

  # JSON output for scripting
  ragindex doctor --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checker := preflight.New(
				preflight.WithVerbose(verbose),
				preflight.WithOutput(cmd.OutOrStdout()),
			)

			// The static provider ignores the configured model name.
			model := a.cfg.Embeddings.Model
			if p, err := embed.ParseProvider(a.cfg.Embeddings.Provider); err == nil && p == embed.ProviderStatic {
				model = embed.StaticModelName
			}

			results := checker.RunAll(cmd.Context(), preflight.Target{
				ContentRoot: a.cfg.Paths.ContentRoot,
				DataDir:     a.cfg.Paths.DataDir,
				Provider:    a.cfg.Embeddings.Provider,
				Model:       model,
				Dimensions:  a.cfg.Embeddings.Dimensions,
				APIKeyEnv:   a.cfg.Embeddings.APIKeyEnv,
				APIKeySet:   a.cfg.APIKey() != "",
			})

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(struct {
					Status string                  `json:"status"`
					Checks []preflight.CheckResult `json:"checks"`
				}{checker.SummaryStatus(results), results}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
