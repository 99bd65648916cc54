// ABOUTME: Sync commands for Charm cloud synchronization
// ABOUTME: Provides status, now, wipe and keys management
package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/tierworks/internal/charm"
	"github.com/harper/tierworks/internal/config"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization with Charm cloud.

The local SQLite database is always authoritative. With TIERWORKS_SYNC=true
every write is mirrored to Charm KV using your SSH keys, and data missing
locally is read back from the cloud. Sync failures are warnings, never errors.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

// openCharm connects to Charm regardless of TIERWORKS_SYNC
func openCharm() (*charm.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := charm.NewClient(&charm.Config{
		Host:        cfg.CharmHost,
		DBName:      cfg.CharmDBName,
		AutoSync:    false,
		SyncTimeout: cfg.SyncTimeout,
	}, logger.Named("charm"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, cfg, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local storage and sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			stats, err := a.Local.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database:  %s\n", a.Local.Path())
			fmt.Fprintf(out, "Templates: %d (%d public)\n", stats.Templates, stats.Published)
			fmt.Fprintf(out, "Results:   %d\n", stats.Results)
			fmt.Fprintf(out, "Sessions:  %d\n", stats.Snapshots)

			if !a.Config.SyncEnabled {
				fmt.Fprintf(out, "Sync:      %s (set TIERWORKS_SYNC=true)\n", color.New(color.FgYellow).Sprint("disabled"))
				return nil
			}
			if a.Remote == nil {
				fmt.Fprintf(out, "Sync:      %s\n", color.New(color.FgRed).Sprint("unavailable"))
				return nil
			}
			id, err := a.Remote.ID()
			if err != nil {
				fmt.Fprintf(out, "Sync:      %s\n", color.New(color.FgRed).Sprint("not connected"))
				fmt.Fprintln(out, "Run 'tierworks sync keys' to check your SSH keys")
				return nil
			}
			fmt.Fprintf(out, "Sync:      %s\n", color.New(color.FgGreen).Sprint("connected"))
			fmt.Fprintf(out, "User ID:   %s\n", id)
			fmt.Fprintf(out, "Host:      %s\n", a.Config.CharmHost)
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cfg, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.SyncTimeout)
			defer cancel()

			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Syncing...")
			}
			if err := client.Sync(ctx); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			}
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe the local Charm cache",
		Long: `Completely wipe the locally cached Charm data.

Your cloud data and the local SQLite database remain intact; the cache is
re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintln(cmd.OutOrStdout(), "This will wipe the local Charm cache!")
				fmt.Fprintln(cmd.OutOrStdout(), "Run with --confirm to proceed")
				return nil
			}

			client, _, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Local Charm cache wiped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := openCharm()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			keys, err := client.AuthorizedKeys()
			if err != nil {
				return fmt.Errorf("failed to get authorized keys: %w", err)
			}
			if keys == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No authorized keys found")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authorized SSH keys:")
			fmt.Fprintln(cmd.OutOrStdout(), keys)
			return nil
		},
	}
}
