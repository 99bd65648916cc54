// ABOUTME: Item is a single rankable media entry (show, actor, athlete)
// ABOUTME: Identified by a unique id; title and image reference are mutable
package models

import "errors"

// Item represents a rankable entry in a template
type Item struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	ImageRef string `json:"imageRef,omitempty" yaml:"image_ref,omitempty"`
}

// Validate checks if the Item has valid data
func (i *Item) Validate() error {
	if i.ID == "" {
		return errors.New("item ID cannot be empty")
	}
	if i.Title == "" {
		return errors.New("item title cannot be empty")
	}
	return nil
}

// CloneItems returns a copy of the given slice
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
