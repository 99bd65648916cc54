// ABOUTME: Export and import of the local store as a portable backup
// ABOUTME: Supports YAML and Markdown export; YAML backups can be re-imported
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/tierworks/internal/models"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version    string               `yaml:"version" json:"version"`
	ExportedAt string               `yaml:"exported_at" json:"exported_at"`
	Tool       string               `yaml:"tool" json:"tool"`
	Templates  []models.Template    `yaml:"templates,omitempty" json:"templates,omitempty"`
	Results    []models.SavedResult `yaml:"results,omitempty" json:"results,omitempty"`
}

// Export collects all templates and results
func (s *Storage) Export(ctx context.Context) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "tierworks",
	}

	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	data.Templates = templates

	results, err := s.results.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	data.Results = results

	return data, nil
}

// ExportToYAML exports data to a YAML file
func (s *Storage) ExportToYAML(ctx context.Context, outputPath string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	file, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ExportToMarkdown writes every saved result as a tier table
func (s *Storage) ExportToMarkdown(ctx context.Context, outputPath string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	file, err := createOutput(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "# Tier Lists - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(file, "Generated: %s\n\n", data.ExportedAt)

	labels := make(map[models.Bucket]string)
	for _, def := range models.DefaultTierDefs() {
		labels[def.ID] = def.Label
	}

	for _, r := range data.Results {
		_, _ = fmt.Fprintf(file, "## %s\n\n", displayTitle(&r))
		_, _ = fmt.Fprintf(file, "*Saved %s*\n\n", r.Created().Format("2006-01-02 15:04"))
		_, _ = fmt.Fprintln(file, "| Tier | Items |")
		_, _ = fmt.Fprintln(file, "|------|-------|")
		for _, tier := range models.Tiers {
			titles := make([]string, 0, len(r.Tiers[tier]))
			for _, it := range r.Tiers[tier] {
				titles = append(titles, it.Title)
			}
			_, _ = fmt.Fprintf(file, "| %s | %s |\n", labels[tier], strings.Join(titles, ", "))
		}
		_, _ = fmt.Fprintln(file)
	}

	if len(data.Templates) > 0 {
		_, _ = fmt.Fprintln(file, "## Templates")
		_, _ = fmt.Fprintln(file)
		for _, tpl := range data.Templates {
			published := ""
			if tpl.Published {
				published = " (public)"
			}
			_, _ = fmt.Fprintf(file, "- **%s**%s: %d items\n", tpl.Name, published, len(tpl.Items))
		}
	}

	return nil
}

// ImportYAML loads a YAML backup. Templates are upserted; results that already
// exist are skipped. Returns the number of templates and results written.
func (s *Storage) ImportYAML(ctx context.Context, inputPath string) (int, int, error) {
	raw, err := os.ReadFile(inputPath) // #nosec G304
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read backup: %w", err)
	}

	var data ExportData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return 0, 0, fmt.Errorf("failed to decode YAML: %w", err)
	}

	templates := 0
	for i := range data.Templates {
		if err := s.templates.Save(ctx, &data.Templates[i]); err != nil {
			return templates, 0, fmt.Errorf("failed to import template %s: %w", data.Templates[i].ID, err)
		}
		templates++
	}

	results := 0
	for i := range data.Results {
		existing, err := s.results.Get(ctx, data.Results[i].ID)
		if err != nil {
			return templates, results, err
		}
		if existing != nil {
			continue
		}
		if err := s.results.Save(ctx, &data.Results[i]); err != nil {
			return templates, results, fmt.Errorf("failed to import result %s: %w", data.Results[i].ID, err)
		}
		results++
	}

	return templates, results, nil
}

func createOutput(outputPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}

func displayTitle(r *models.SavedResult) string {
	if t := r.DisplayTitle(); t != "" {
		return t
	}
	return r.ID
}
