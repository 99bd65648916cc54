// ABOUTME: Builds items from image directories and title lists
// ABOUTME: Oversized or unreadable files are rejected individually with a reason
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/harper/tierworks/internal/models"
)

// ErrImageTooLarge rejects images above the size budget
var ErrImageTooLarge = errors.New("image too large")

// ImageExtensions lists the file types imported from directories
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Rejection explains why one input did not become an item
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Report is the outcome of an import
type Report struct {
	Items    []models.Item `json:"items"`
	Rejected []Rejection   `json:"rejected,omitempty"`
}

func (r *Report) reject(name string, err error) {
	r.Rejected = append(r.Rejected, Rejection{Name: name, Reason: err.Error(), Err: err})
}

// FromDir creates one item per image file in dir, titled after the file name.
// Files larger than maxBytes are rejected; a maxBytes of zero disables the check.
func FromDir(dir string, maxBytes int64) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	report := &Report{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !ImageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			report.reject(name, err)
			continue
		}
		if maxBytes > 0 && info.Size() > maxBytes {
			report.reject(name, fmt.Errorf("%w: %d bytes exceeds %d", ErrImageTooLarge, info.Size(), maxBytes))
			continue
		}

		path, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			report.reject(name, err)
			continue
		}
		report.Items = append(report.Items, models.Item{
			ID:       uuid.New().String(),
			Title:    strings.TrimSuffix(name, filepath.Ext(name)),
			ImageRef: path,
		})
	}
	return report, nil
}

// FromTitles creates items from "Title" or "Title=imageRef" entries. Blank
// entries are skipped.
func FromTitles(entries []string) *Report {
	report := &Report{}
	for _, entry := range entries {
		title, ref, _ := strings.Cut(entry, "=")
		title = strings.TrimSpace(title)
		if title == "" {
			if strings.TrimSpace(entry) != "" {
				report.reject(entry, errors.New("missing title"))
			}
			continue
		}
		report.Items = append(report.Items, models.Item{
			ID:       uuid.New().String(),
			Title:    title,
			ImageRef: strings.TrimSpace(ref),
		})
	}
	return report
}
