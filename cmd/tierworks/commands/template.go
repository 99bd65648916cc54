// ABOUTME: Template commands: create, list, show, delete, publish
// ABOUTME: Items come from title arguments, an image directory or TMDB top-rated TV
package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/tierworks/internal/app"
	"github.com/harper/tierworks/internal/importer"
	"github.com/harper/tierworks/internal/models"
)

var (
	templateDir         string
	templateTMDBTop     int
	templateDescription string
	templatePublish     bool
	templateUnpublish   bool
)

// NewTemplateCmd creates the template command group
func NewTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage templates (sets of items to rank)",
		Long: `Manage templates.

A template is a named set of items (shows, movies, actors, athletes).
Ranking a template starts a session whose progress is saved per template.`,
	}

	cmd.AddCommand(newTemplateCreateCmd())
	cmd.AddCommand(newTemplateListCmd())
	cmd.AddCommand(newTemplateShowCmd())
	cmd.AddCommand(newTemplateDeleteCmd())
	cmd.AddCommand(newTemplatePublishCmd())

	return cmd
}

func newTemplateCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name> [title[=image]...]",
		Short: "Create a template",
		Long: `Create a template from titles, an image directory or TMDB.

Examples:
  tierworks template create "Crime dramas" "The Wire" "The Sopranos=posters/sopranos.jpg"
  tierworks template create "My posters" --dir ~/Pictures/posters
  tierworks template create "Top TV" --tmdb-top 50`,
		Args: cobra.MinimumNArgs(1),
		RunE: runTemplateCreate,
	}

	cmd.Flags().StringVar(&templateDir, "dir", "", "Import one item per image in this directory")
	cmd.Flags().IntVar(&templateTMDBTop, "tmdb-top", 0, "Import the N top-rated TV shows from TMDB")
	cmd.Flags().StringVar(&templateDescription, "description", "", "Template description")
	cmd.Flags().BoolVar(&templatePublish, "publish", false, "Publish to the public catalogue")

	return cmd
}

func runTemplateCreate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	items, err := collectItems(cmd, a, args[1:])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("no items: pass titles, --dir or --tmdb-top")
	}

	tpl, err := models.NewTemplate(args[0], items)
	if err != nil {
		return err
	}
	tpl.Description = templateDescription
	tpl.Published = templatePublish

	if err := a.Store.SaveTemplate(cmd.Context(), tpl); err != nil {
		return fmt.Errorf("saving template: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), tpl)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created template %s with %d items\n", tpl.ID, len(tpl.Items))
	return nil
}

// collectItems gathers items from every source given on the command line.
// Rejected files are reported and skipped.
func collectItems(cmd *cobra.Command, a *app.App, entries []string) ([]models.Item, error) {
	var items []models.Item

	report := importer.FromTitles(entries)
	items = append(items, report.Items...)
	rejected := report.Rejected

	if templateDir != "" {
		dirReport, err := importer.FromDir(templateDir, a.Config.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		items = append(items, dirReport.Items...)
		rejected = append(rejected, dirReport.Rejected...)
	}

	if templateTMDBTop != 0 {
		if err := validatePositiveInt(templateTMDBTop, "--tmdb-top"); err != nil {
			return nil, err
		}
		if a.TMDB == nil {
			return nil, errors.New("TMDB_API_KEY is not set")
		}
		shows, err := a.TMDB.TopRatedTV(cmd.Context(), templateTMDBTop)
		if err != nil {
			return nil, fmt.Errorf("fetching top-rated TV: %w", err)
		}
		items = append(items, shows...)
	}

	for _, r := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", color.New(color.FgYellow).Sprint("skipped"), r.Name, r.Reason)
	}
	return items, nil
}

func newTemplateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTemplates(cmd, false)
		},
	}
}

// NewPublicCmd lists the published catalogue
func NewPublicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "public",
		Short: "List published templates",
		Long: `List templates published to the public catalogue.

Published templates are read-only: rankings work, renaming items does not.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTemplates(cmd, true)
		},
	}
}

func listTemplates(cmd *cobra.Command, publishedOnly bool) error {
	if err := validateFormat(); err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	var templates []models.Template
	if publishedOnly {
		templates, err = a.Store.ListPublished(cmd.Context())
	} else {
		templates, err = a.Store.ListTemplates(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("listing templates: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd.OutOrStdout(), templates)
	}
	if len(templates) == 0 {
		if !quiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No templates found")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tITEMS\tPUBLIC\tCREATED\tID\n")
	fmt.Fprintf(w, "----\t-----\t------\t-------\t--\n")
	for _, tpl := range templates {
		public := ""
		if tpl.Published {
			public = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			truncate(tpl.Name, 30), len(tpl.Items), public, formatTime(tpl.Created()), tpl.ID)
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d template(s)\n", len(templates))
	}
	return nil
}

func newTemplateShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a template's items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			tpl, err := a.Store.GetTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if tpl == nil {
				return fmt.Errorf("%w: %s", app.ErrTemplateNotFound, args[0])
			}

			if wantJSON() {
				return printJSON(cmd.OutOrStdout(), tpl)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d items)\n", color.New(color.Bold).Sprint(tpl.Name), len(tpl.Items))
			if tpl.Description != "" {
				fmt.Fprintln(cmd.OutOrStdout(), tpl.Description)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "ID\tTITLE\tIMAGE\n")
			for _, it := range tpl.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\n", it.ID, truncate(it.Title, 40), truncate(it.ImageRef, 50))
			}
			return w.Flush()
		},
	}
}

func newTemplateDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template and its saved progress",
		Long: `Delete a template and its saved ranking progress.

Saved results ranked from the template are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			if err := a.Store.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting template: %w", err)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %s\n", args[0])
			}
			return nil
		},
	}
}

func newTemplatePublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a template to the public catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			if err := a.Store.SetPublished(cmd.Context(), args[0], !templateUnpublish); err != nil {
				return fmt.Errorf("publishing template: %w", err)
			}
			if !quiet {
				state := "Published"
				if templateUnpublish {
					state = "Unpublished"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s template %s\n", state, args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&templateUnpublish, "unpublish", false, "Remove from the public catalogue instead")

	return cmd
}
