// Package cmd provides the CLI commands for ragindex.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/groeimetai/groeimetai-platform-sub011/internal/config"
	ragerrors "github.com/groeimetai/groeimetai-platform-sub011/internal/errors"
	"github.com/groeimetai/groeimetai-platform-sub011/internal/logging"
	"github.com/groeimetai/groeimetai-platform-sub011/pkg/version"
)

// skipSetup marks commands that run without loading the project config.
const skipSetup = "ragindex/skip-setup"

// app holds state shared by the subcommands of one root command.
type app struct {
	dir   string
	debug bool
	noTUI bool

	root    string
	cfg     *config.Config
	cleanup func()
}

// NewRootCmd creates the root command for the ragindex CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragindex",
		Short: "Index course content for semantic retrieval",
		Long: `ragindex walks a directory of course units, splits every lesson into
chunks, embeds them and keeps a searchable vector index on disk.

Run 'ragindex init' to write a .ragindex.yaml, then 'ragindex index'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("ragindex version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "Project directory (searched upwards for .ragindex.yaml)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log at debug level and mirror logs to stderr")
	cmd.PersistentFlags().BoolVar(&a.noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	cmd.PersistentPreRunE = a.setup
	cmd.PersistentPostRunE = a.teardown

	cmd.AddCommand(newInitCmd(a))
	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newIncrementalCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newClearCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newDoctorCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup finds the project, loads its configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipSetup] == "true" {
		return nil
	}

	root, err := config.FindProjectRoot(a.dir)
	if err != nil {
		return ragerrors.ConfigError("resolve project directory", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return ragerrors.New(ragerrors.ErrCodeConfigInvalid, "cannot load configuration", err).
			WithSuggestion("Fix " + config.ProjectFile + " or run 'ragindex init --force'")
	}
	a.root = root
	a.cfg = cfg

	logCfg := logging.DefaultConfig(cfg.Paths.DataDir)
	if a.debug {
		logCfg = logging.DebugConfig(cfg.Paths.DataDir)
	} else {
		logCfg.Level = cfg.Logging.Level
	}
	logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	logCfg.MaxFiles = cfg.Logging.MaxFiles

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging is not critical for the CLI.
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: file logging disabled: %v\n", err)
		return nil
	}
	a.cleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("config_loaded",
		slog.String("command", cmd.Name()),
		slog.String("project", root),
		slog.String("content_root", cfg.Paths.ContentRoot),
		slog.String("data_dir", cfg.Paths.DataDir),
		slog.String("provider", cfg.Embeddings.Provider))
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	a.close()
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// Execute runs the root command with SIGINT/SIGTERM cancellation and prints
// any error in CLI form.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.close()

	err := newRootCmd(a).ExecuteContext(ctx)
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, ragerrors.FormatForCLI(err))
		slog.Error("command_failed", ragerrors.LogAttrs(err)...)
	}
	return err
}
