// ABOUTME: Share commands build and open tier list links
// ABOUTME: Links carry items and placements; opening one can import it as a template
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/tierworks/internal/core"
	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/share"
)

var (
	shareTitle string
	shareSave  bool
)

var errInvalidShare = errors.New("not a valid share link")

// NewShareCmd creates the share command group
func NewShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Share tier lists as links",
		Long: `Share tier lists as links.

A link embeds the items and their tier placements, compressed into a single
query parameter. Nothing is uploaded.`,
	}

	cmd.AddCommand(newShareCreateCmd())
	cmd.AddCommand(newShareOpenCmd())

	return cmd
}

func newShareCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <template>",
		Short: "Print a link for the template's current tiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			sess, err := a.OpenSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			warnUnranked(cmd.ErrOrStderr(), sess)
			title := shareTitle
			if title == "" {
				title = sess.Name()
			}
			payload := share.FromTemplate(&models.Template{Name: title, Items: sess.Items()}, sess.Placements())
			link, err := share.BuildURL(a.Config.ShareBaseURL, payload)
			if err != nil {
				return fmt.Errorf("building link: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}

	cmd.Flags().StringVar(&shareTitle, "title", "", "Title shown to recipients (default: template name)")

	return cmd
}

func newShareOpenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open <link>",
		Short: "Preview a shared tier list, optionally importing it",
		Long: `Preview a shared tier list.

With --save the list becomes a new template whose session starts with the
shared placements.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(); err != nil {
				return err
			}
			payload, ok := share.FromURL(args[0])
			if !ok {
				return errInvalidShare
			}
			tpl, placements := share.ToTemplate(payload)

			if !shareSave {
				preview := core.NewSession(tpl)
				preview.ApplyPlacements(placements)
				return showSession(cmd, preview)
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			if err := a.Store.SaveTemplate(cmd.Context(), tpl); err != nil {
				return fmt.Errorf("saving template: %w", err)
			}
			sess, err := a.Mount(cmd.Context(), tpl)
			if err != nil {
				return err
			}
			sess.ApplyPlacements(placements)
			sess.Persist()
			report(cmd, "Imported as template %s", tpl.ID)
			return showSession(cmd, sess)
		},
	}

	cmd.Flags().BoolVar(&shareSave, "save", false, "Import as a new template")

	return cmd
}
