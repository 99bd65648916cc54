// ABOUTME: Root command, global flags and shared app lifecycle for CLI commands
// ABOUTME: Every data command opens the app, runs, then flushes and reports sync notices
package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/app"
	"github.com/harper/tierworks/internal/config"
	"github.com/harper/tierworks/internal/logging"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
████████╗██╗███████╗██████╗ ███████╗
╚══██╔══╝██║██╔════╝██╔══██╗██╔════╝
   ██║   ██║█████╗  ██████╔╝███████╗
   ██║   ██║██╔══╝  ██╔══██╗╚════██║
   ██║   ██║███████╗██║  ██║███████║
   ╚═╝   ╚═╝╚══════╝╚═╝  ╚═╝╚══════╝`

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tierworks",
		Short: "Rank shows, movies and people into S-to-D tier lists",
		Long: banner + `

Tierworks ranks a template's items into S, A, B, C, D and Unranked tiers.
Progress is saved per template after every change, finished rankings can
be saved as immutable results, and tier lists can be shared as links.

Data lives in a local SQLite database and optionally syncs through Charm.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, json or table")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewTemplateCmd())
	cmd.AddCommand(NewPublicCmd())
	cmd.AddCommand(NewRankCmd())
	cmd.AddCommand(NewResultCmd())
	cmd.AddCommand(NewShareCmd())
	cmd.AddCommand(NewPostersCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewInstallSkillCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger picks the log level from flags, falling back to configuration
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	return logging.New(level)
}

// openApp loads configuration and opens storage
func openApp(opts ...app.Option) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return a, nil
}

// closeApp flushes pending writes and prints sync notices as warnings
func closeApp(cmd *cobra.Command, a *app.App) {
	if err := a.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", color.New(color.FgYellow).Sprint("warning:"), err)
	}
	if quiet {
		return
	}
	for _, n := range a.Notices() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", color.New(color.FgYellow).Sprint("warning:"), n)
	}
	_ = a.Logger.Sync()
}
