// ABOUTME: Template storage operations for SQLite
// ABOUTME: Items are stored as a JSON column alongside template metadata
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/storage"
)

// TemplateStore handles template persistence
type TemplateStore struct {
	db *DB
}

// NewTemplateStore creates a new TemplateStore
func NewTemplateStore(db *DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// Save saves or updates a template (upsert)
func (s *TemplateStore) Save(ctx context.Context, tpl *models.Template) error {
	if err := tpl.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	items := tpl.Items
	if items == nil {
		items = []models.Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO templates (id, name, description, items, published, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			items = excluded.items,
			published = excluded.published
	`, tpl.ID, tpl.Name, tpl.Description, string(itemsJSON), tpl.Published, tpl.CreatedAt)

	return err
}

// Get retrieves a template by ID
func (s *TemplateStore) Get(ctx context.Context, id string) (*models.Template, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, items, published, created_at
		FROM templates
		WHERE id = ?
	`, id)

	tpl, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return tpl, err
}

// List retrieves all templates, newest first
func (s *TemplateStore) List(ctx context.Context) ([]models.Template, error) {
	return s.query(ctx, `
		SELECT id, name, description, items, published, created_at
		FROM templates
		ORDER BY created_at DESC
	`)
}

// ListPublished retrieves published templates, newest first
func (s *TemplateStore) ListPublished(ctx context.Context) ([]models.Template, error) {
	return s.query(ctx, `
		SELECT id, name, description, items, published, created_at
		FROM templates
		WHERE published = 1
		ORDER BY created_at DESC
	`)
}

// SetPublished toggles the published flag
func (s *TemplateStore) SetPublished(ctx context.Context, id string, published bool) error {
	res, err := s.db.Exec(ctx, "UPDATE templates SET published = ? WHERE id = ?", published, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// Delete removes a template
func (s *TemplateStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.Exec(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// requireRow turns an update that touched nothing into ErrTemplateNotFound
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrTemplateNotFound, id)
	}
	return nil
}

func (s *TemplateStore) query(ctx context.Context, query string, args ...any) ([]models.Template, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var templates []models.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *tpl)
	}
	return templates, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*models.Template, error) {
	var (
		tpl         models.Template
		description sql.NullString
		itemsJSON   string
	)
	if err := row.Scan(&tpl.ID, &tpl.Name, &description, &itemsJSON, &tpl.Published, &tpl.CreatedAt); err != nil {
		return nil, err
	}
	tpl.Description = description.String
	if err := json.Unmarshal([]byte(itemsJSON), &tpl.Items); err != nil {
		tpl.Items = []models.Item{}
	}
	return &tpl, nil
}
