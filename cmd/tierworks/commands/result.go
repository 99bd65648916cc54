// ABOUTME: Result commands: save, list, show, open, delete
// ABOUTME: Results are immutable copies of a session's tiers
package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/tierworks/internal/app"
	"github.com/harper/tierworks/internal/models"
)

var (
	resultTitle    string
	resultTemplate string
)

var errResultNotFound = errors.New("result not found")

// NewResultCmd creates the result command group
func NewResultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Save and browse finished tier lists",
		Long: `Save and browse finished tier lists.

A result is an immutable copy of a session's tiers. Opening a result loads
its tiers back into the template's session; everything else returns to the
pool.`,
	}

	cmd.AddCommand(newResultSaveCmd())
	cmd.AddCommand(newResultListCmd())
	cmd.AddCommand(newResultShowCmd())
	cmd.AddCommand(newResultOpenCmd())
	cmd.AddCommand(newResultDeleteCmd())

	return cmd
}

func newResultSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <template>",
		Short: "Save the template's current tiers",
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
			result := sess.SaveResult(resultTitle)
			if err := a.Store.SaveResult(cmd.Context(), result); err != nil {
				return fmt.Errorf("saving result: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved result %s (%d ranked)\n", result.ID, result.Tiers.Count())
			return nil
		},
	}

	cmd.Flags().StringVar(&resultTitle, "title", "", "Result title")

	return cmd
}

func newResultListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(); err != nil {
				return err
			}
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			results, err := a.Store.ListResults(cmd.Context(), resultTemplate)
			if err != nil {
				return fmt.Errorf("listing results: %w", err)
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), results)
			}
			if len(results) == 0 {
				if !quiet {
					fmt.Fprintln(cmd.OutOrStdout(), "No results found")
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "TITLE\tRANKED\tSAVED\tID\n")
			fmt.Fprintf(w, "-----\t------\t-----\t--\n")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
					truncate(r.DisplayTitle(), 30), r.Tiers.Count(), formatTime(r.Created()), r.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&resultTemplate, "template", "", "Only results ranked from this template")

	return cmd
}

func loadResult(cmd *cobra.Command, a *app.App, id string) (*models.SavedResult, error) {
	r, err := a.Store.GetResult(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", errResultNotFound, id)
	}
	return r, nil
}

func newResultShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			r, err := loadResult(cmd, a, args[0])
			if err != nil {
				return err
			}
			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), r)
			}
			renderResult(cmd.OutOrStdout(), r)
			return nil
		},
	}
}

func newResultOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Load a result's tiers into its template's session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			r, err := loadResult(cmd, a, args[0])
			if err != nil {
				return err
			}
			sess, err := a.OpenSession(cmd.Context(), r.SourceTemplateID)
			if err != nil {
				return err
			}
			sess.ApplyResult(r)
			return showSession(cmd, sess)
		},
	}
}

func newResultDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			if err := a.Store.DeleteResult(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting result: %w", err)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted result %s\n", args[0])
			}
			return nil
		},
	}
}
