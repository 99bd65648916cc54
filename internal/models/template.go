// ABOUTME: Template is a named source set of items that sessions rank
// ABOUTME: Published templates make up the public/community catalogue
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Template represents a reusable set of items to rank
type Template struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Items       []Item `json:"items" yaml:"items"`
	CreatedAt   int64  `json:"createdAt" yaml:"created_at"`
	Published   bool   `json:"published" yaml:"published"`
}

// NewTemplate creates a template with a fresh id and creation time
func NewTemplate(name string, items []Item) (*Template, error) {
	if name == "" {
		return nil, errors.New("template name cannot be empty")
	}
	return &Template{
		ID:        uuid.New().String(),
		Name:      name,
		Items:     CloneItems(items),
		CreatedAt: time.Now().UnixMilli(),
	}, nil
}

// Validate checks if the Template has valid data
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.New("template ID cannot be empty")
	}
	if t.Name == "" {
		return errors.New("template name cannot be empty")
	}
	seen := make(map[string]bool, len(t.Items))
	for i := range t.Items {
		if err := t.Items[i].Validate(); err != nil {
			return err
		}
		if seen[t.Items[i].ID] {
			return errors.New("duplicate item ID " + t.Items[i].ID)
		}
		seen[t.Items[i].ID] = true
	}
	return nil
}

// Created returns the creation time
func (t *Template) Created() time.Time {
	return time.UnixMilli(t.CreatedAt)
}
