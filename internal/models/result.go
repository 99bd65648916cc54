// ABOUTME: SavedResult is an immutable snapshot of a finished ranking
// ABOUTME: Created on explicit save, never mutated, only deleted
package models

import (
	"errors"
	"time"
)

// SavedResult represents a saved tier list
type SavedResult struct {
	ID               string         `json:"id" yaml:"id"`
	SourceTemplateID string         `json:"sourceTemplateId" yaml:"source_template_id"`
	TemplateName     string         `json:"templateName,omitempty" yaml:"template_name,omitempty"`
	CreatedAt        int64          `json:"createdAt" yaml:"created_at"`
	Tiers            TierAssignment `json:"tiers" yaml:"tiers"`
	Title            string         `json:"title,omitempty" yaml:"title,omitempty"`
}

// Validate checks if the SavedResult has valid data
func (r *SavedResult) Validate() error {
	if r.ID == "" {
		return errors.New("result ID cannot be empty")
	}
	if r.SourceTemplateID == "" {
		return errors.New("source template ID cannot be empty")
	}
	if r.CreatedAt <= 0 {
		return errors.New("createdAt must be set")
	}
	return nil
}

// DisplayTitle returns the title, falling back to the template name
func (r *SavedResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.TemplateName
}

// Created returns the creation time
func (r *SavedResult) Created() time.Time {
	return time.UnixMilli(r.CreatedAt)
}
