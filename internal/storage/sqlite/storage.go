// ABOUTME: Unified Storage layer that wraps all SQLite stores
// ABOUTME: Authoritative local implementation of storage.Store
package sqlite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/storage"
)

// Storage manages all persistent tier list data using SQLite
type Storage struct {
	db        *DB
	templates *TemplateStore
	results   *ResultStore
	snapshots *SnapshotStore
}

var _ storage.Store = (*Storage)(nil)

// Stats summarizes stored rows
type Stats struct {
	Templates int `json:"templates"`
	Published int `json:"published"`
	Results   int `json:"results"`
	Snapshots int `json:"snapshots"`
}

// NewStorage initializes storage at the default path
func NewStorage(logger *zap.Logger) (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath(), logger)
}

// NewStorageWithPath initializes storage with a custom database path
func NewStorageWithPath(dbPath string, logger *zap.Logger) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db, logger), nil
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory() (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db, nil), nil
}

func newStorage(db *DB, logger *zap.Logger) *Storage {
	return &Storage{
		db:        db,
		templates: NewTemplateStore(db),
		results:   NewResultStore(db),
		snapshots: NewSnapshotStore(db, logger),
	}
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// LoadPartitionSnapshot returns the stored snapshot or nil
func (s *Storage) LoadPartitionSnapshot(ctx context.Context, sourceKey string) (*models.Snapshot, error) {
	return s.snapshots.Load(ctx, sourceKey)
}

// SavePartitionSnapshot stores a snapshot
func (s *Storage) SavePartitionSnapshot(ctx context.Context, sourceKey string, snap *models.Snapshot) error {
	if err := s.snapshots.Save(ctx, sourceKey, snap); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// DeletePartitionSnapshot forgets the saved partition for a source key
func (s *Storage) DeletePartitionSnapshot(ctx context.Context, sourceKey string) error {
	return s.snapshots.Delete(ctx, sourceKey)
}

// SaveTemplate upserts a template
func (s *Storage) SaveTemplate(ctx context.Context, tpl *models.Template) error {
	if err := s.templates.Save(ctx, tpl); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// GetTemplate retrieves a template or nil
func (s *Storage) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	return s.templates.Get(ctx, id)
}

// ListTemplates lists every template
func (s *Storage) ListTemplates(ctx context.Context) ([]models.Template, error) {
	return s.templates.List(ctx)
}

// ListPublished lists published templates
func (s *Storage) ListPublished(ctx context.Context) ([]models.Template, error) {
	return s.templates.ListPublished(ctx)
}

// SetPublished toggles the published flag
func (s *Storage) SetPublished(ctx context.Context, id string, published bool) error {
	return s.templates.SetPublished(ctx, id, published)
}

// DeleteTemplate removes a template and its snapshot. Saved results stay.
func (s *Storage) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return s.snapshots.Delete(ctx, id)
}

// SaveResult inserts a result
func (s *Storage) SaveResult(ctx context.Context, r *models.SavedResult) error {
	if err := s.results.Save(ctx, r); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult retrieves a result or nil
func (s *Storage) GetResult(ctx context.Context, id string) (*models.SavedResult, error) {
	return s.results.Get(ctx, id)
}

// ListResults lists results, optionally for one template
func (s *Storage) ListResults(ctx context.Context, templateID string) ([]models.SavedResult, error) {
	return s.results.List(ctx, templateID)
}

// DeleteResult removes a result
func (s *Storage) DeleteResult(ctx context.Context, id string) error {
	return s.results.Delete(ctx, id)
}

// Stats counts stored rows
func (s *Storage) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM templates),
			(SELECT COUNT(*) FROM templates WHERE published = 1),
			(SELECT COUNT(*) FROM results),
			(SELECT COUNT(*) FROM snapshots)
	`).Scan(&st.Templates, &st.Published, &st.Results, &st.Snapshots)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	return &st, nil
}
