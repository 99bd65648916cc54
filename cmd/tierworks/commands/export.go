// ABOUTME: Export command writes local data to YAML or Markdown
// ABOUTME: YAML exports double as backups and can be imported again
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	exportOutput   string
	exportMarkdown bool
	exportImport   string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export templates and results",
		Long: `Export templates and saved results from the local database.

YAML (default) is a full backup that --import restores: templates are
overwritten, results that already exist are skipped. Markdown renders each
saved result as a tier table.

Examples:
  tierworks export
  tierworks export --markdown --output tiers.md
  tierworks export --import tierworks-export-2026-10-19.yaml`,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: tierworks-export-<date>.yaml|md)")
	cmd.Flags().BoolVar(&exportMarkdown, "markdown", false, "Export Markdown instead of YAML")
	cmd.Flags().StringVar(&exportImport, "import", "", "Import a YAML backup instead of exporting")
	cmd.MarkFlagsMutuallyExclusive("markdown", "import")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	ctx := cmd.Context()

	if exportImport != "" {
		templates, results, err := a.Local.ImportYAML(ctx, exportImport)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d template(s) and %d result(s)\n", templates, results)
		}
		return nil
	}

	output := exportOutput
	if output == "" {
		ext := "yaml"
		if exportMarkdown {
			ext = "md"
		}
		output = fmt.Sprintf("tierworks-export-%s.%s", time.Now().Format("2006-01-02"), ext)
	}

	if exportMarkdown {
		err = a.Local.ExportToMarkdown(ctx, output)
	} else {
		err = a.Local.ExportToYAML(ctx, output)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
	}
	return nil
}
