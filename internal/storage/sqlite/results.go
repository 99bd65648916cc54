// ABOUTME: Saved result storage operations for SQLite
// ABOUTME: Results are insert-only; a second save with the same id is rejected
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harper/tierworks/internal/models"
)

// ResultStore handles saved result persistence
type ResultStore struct {
	db *DB
}

// NewResultStore creates a new ResultStore
func NewResultStore(db *DB) *ResultStore {
	return &ResultStore{db: db}
}

// Save inserts a result
func (s *ResultStore) Save(ctx context.Context, r *models.SavedResult) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}
	tiers := r.Tiers
	if tiers == nil {
		tiers = models.EmptyTierAssignment()
	}
	tiersJSON, err := json.Marshal(tiers)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO results (id, source_template_id, template_name, title, tiers, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.SourceTemplateID, r.TemplateName, r.Title, string(tiersJSON), r.CreatedAt)
	return err
}

// Get retrieves a result by ID
func (s *ResultStore) Get(ctx context.Context, id string) (*models.SavedResult, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, source_template_id, template_name, title, tiers, created_at
		FROM results
		WHERE id = ?
	`, id)

	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// List retrieves results, newest first. An empty templateID lists all.
func (s *ResultStore) List(ctx context.Context, templateID string) ([]models.SavedResult, error) {
	query := `
		SELECT id, source_template_id, template_name, title, tiers, created_at
		FROM results`
	var args []any
	if templateID != "" {
		query += " WHERE source_template_id = ?"
		args = append(args, templateID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []models.SavedResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// Delete removes a result
func (s *ResultStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM results WHERE id = ?", id)
	return err
}

func scanResult(row scanner) (*models.SavedResult, error) {
	var (
		r            models.SavedResult
		templateName sql.NullString
		title        sql.NullString
		tiersJSON    string
	)
	if err := row.Scan(&r.ID, &r.SourceTemplateID, &templateName, &title, &tiersJSON, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.TemplateName = templateName.String
	r.Title = title.String
	if err := json.Unmarshal([]byte(tiersJSON), &r.Tiers); err != nil {
		r.Tiers = models.EmptyTierAssignment()
	}
	return &r, nil
}
