// ABOUTME: Rank commands operate the ranking session of one template
// ABOUTME: Each invocation restores the saved session, applies one change and saves it
package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harper/tierworks/internal/app"
	"github.com/harper/tierworks/internal/core"
	"github.com/harper/tierworks/internal/importer"
	"github.com/harper/tierworks/internal/models"
)

var (
	rankIndex int
)

// NewRankCmd creates the rank command group
func NewRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a template's items into tiers",
		Long: `Rank a template's items into tiers.

Every template has one ranking session. Unranked items wait in the pool and
one of them is selected; assign sends it to a tier and moves on, skip sends
it to the back of the line. Progress is saved after every change.

Tiers: S, A, B, C, D and U (unranked). Use "pool" to move an item back.

Examples:
  tierworks rank show <template>
  tierworks rank assign <template> S
  tierworks rank move <template> <item> A --index 0`,
	}

	cmd.AddCommand(newRankShowCmd())
	cmd.AddCommand(newRankMoveCmd())
	cmd.AddCommand(newRankSelectCmd())
	cmd.AddCommand(newRankAssignCmd())
	cmd.AddCommand(newRankSkipCmd())
	cmd.AddCommand(newRankClearCmd())
	cmd.AddCommand(newRankRenameCmd())
	cmd.AddCommand(newRankResetCmd())
	cmd.AddCommand(newRankAddCmd())
	cmd.AddCommand(newRankRemoveCmd())

	return cmd
}

// withSession opens the template's session, runs fn and shows the result
func withSession(cmd *cobra.Command, templateID string, fn func(a *app.App, sess *core.Session) error) error {
	if err := validateFormat(); err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	sess, err := a.OpenSession(cmd.Context(), templateID)
	if err != nil {
		return err
	}
	if err := fn(a, sess); err != nil {
		return err
	}
	return showSession(cmd, sess)
}

func showSession(cmd *cobra.Command, sess *core.Session) error {
	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), sess.View())
	}
	if !quiet {
		renderView(cmd.OutOrStdout(), sess.View())
	}
	return nil
}

func report(cmd *cobra.Command, format string, args ...interface{}) {
	if quiet || wantJSON() {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n\n", args...)
}

func newRankShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <template>",
		Short: "Show tiers, pool and the selected item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(*app.App, *core.Session) error { return nil })
		},
	}
}

func newRankMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <template> <item> <bucket>",
		Short: "Move an item to a tier or back to the pool",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := models.ParseBucket(args[2])
			if err != nil {
				return err
			}
			return withSession(cmd, args[0], func(_ *app.App, sess *core.Session) error {
				if !sess.MoveTo(args[1], to, rankIndex) {
					report(cmd, "Nothing moved")
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&rankIndex, "index", -1, "Position in the destination (default: append)")

	return cmd
}

func newRankSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <template> <item>",
		Short: "Select an item for assign and skip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(_ *app.App, sess *core.Session) error {
				if !sess.Select(args[1]) {
					return fmt.Errorf("no item %s in this session", args[1])
				}
				sess.Persist()
				return nil
			})
		},
	}
}

func newRankAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <template> <tier>",
		Short: "Assign the selected item to a tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := models.ParseTier(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, args[0], func(_ *app.App, sess *core.Session) error {
				id, err := sess.Assign(tier)
				if err != nil {
					return err
				}
				report(cmd, "Assigned %s to %s", id, tierLabel(tier))
				return nil
			})
		},
	}
}

func newRankSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip <template>",
		Short: "Send the selected item to the back of the line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(_ *app.App, sess *core.Session) error {
				id, err := sess.Skip()
				if err != nil {
					return err
				}
				report(cmd, "Skipped %s", id)
				return nil
			})
		},
	}
}

func newRankClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <template> <tier>",
		Short: "Return a tier's items to the pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, err := models.ParseTier(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, args[0], func(_ *app.App, sess *core.Session) error {
				n, err := sess.ClearTier(tier)
				if err != nil {
					return err
				}
				report(cmd, "Returned %d item(s) to the pool", n)
				return nil
			})
		},
	}
}

func newRankRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <template> <item> <title>",
		Short: "Rename an item (own templates only)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(_ *app.App, sess *core.Session) error {
				ok, err := sess.Rename(args[1], args[2])
				if err != nil {
					return err
				}
				if !ok {
					report(cmd, "No item %s", args[1])
				}
				return nil
			})
		},
	}
}

func newRankResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <template>",
		Short: "Return every ranked item to the pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(_ *app.App, sess *core.Session) error {
				n := sess.Reset()
				report(cmd, "Reset %d item(s)", n)
				return nil
			})
		},
	}
}

// editTemplate loads the session's template for a structural change.
// Published templates are read-only.
func editTemplate(cmd *cobra.Command, a *app.App, id string) (*models.Template, error) {
	tpl, err := a.Store.GetTemplate(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: %s", app.ErrTemplateNotFound, id)
	}
	if tpl.Published {
		return nil, core.ErrNotEditable
	}
	return tpl, nil
}

func newRankAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <template> <title[=image]>...",
		Short: "Add items to the pool (own templates only)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(a *app.App, sess *core.Session) error {
				tpl, err := editTemplate(cmd, a, args[0])
				if err != nil {
					return err
				}
				imported := importer.FromTitles(args[1:])
				for _, r := range imported.Rejected {
					report(cmd, "Skipped %q: %s", r.Name, r.Reason)
				}
				added := sess.AddItems(imported.Items...)
				tpl.Items = append(tpl.Items, added...)
				if err := a.Store.SaveTemplate(cmd.Context(), tpl); err != nil {
					return fmt.Errorf("saving template: %w", err)
				}
				report(cmd, "Added %d item(s)", len(added))
				return nil
			})
		},
	}
}

func newRankRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <template> <item>",
		Short: "Remove an item entirely (own templates only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, args[0], func(a *app.App, sess *core.Session) error {
				tpl, err := editTemplate(cmd, a, args[0])
				if err != nil {
					return err
				}
				if !sess.RemoveItem(args[1]) {
					return errors.New("no item " + strconv.Quote(args[1]))
				}
				kept := tpl.Items[:0]
				for _, it := range tpl.Items {
					if it.ID != args[1] {
						kept = append(kept, it)
					}
				}
				tpl.Items = kept
				if err := a.Store.SaveTemplate(cmd.Context(), tpl); err != nil {
					return fmt.Errorf("saving template: %w", err)
				}
				return nil
			})
		},
	}
}
