// ABOUTME: Registry holds the canonical items available to a partition
// ABOUTME: Keyed by id, insertion-ordered, generates fresh ids on collision
package core

import (
	"github.com/google/uuid"

	"github.com/harper/tierworks/internal/models"
)

// Registry is an insertion-ordered collection of items keyed by id
type Registry struct {
	order []string
	items map[string]models.Item
}

// NewRegistry creates a registry seeded with items. Items with empty or
// duplicate ids receive fresh ids.
func NewRegistry(items []models.Item) *Registry {
	r := &Registry{items: make(map[string]models.Item, len(items))}
	for _, it := range items {
		r.AddItem(it)
	}
	return r
}

// Add creates a new item with a fresh id
func (r *Registry) Add(title, imageRef string) models.Item {
	return r.AddItem(models.Item{Title: title, ImageRef: imageRef})
}

// AddItem registers an item, keeping its id unless it is empty or taken
func (r *Registry) AddItem(it models.Item) models.Item {
	if _, taken := r.items[it.ID]; it.ID == "" || taken {
		it.ID = r.freshID()
	}
	r.items[it.ID] = it
	r.order = append(r.order, it.ID)
	return it
}

func (r *Registry) freshID() string {
	for {
		id := uuid.New().String()
		if _, taken := r.items[id]; !taken {
			return id
		}
	}
}

// Get looks up an item by id
func (r *Registry) Get(id string) (models.Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Has reports whether id is registered
func (r *Registry) Has(id string) bool {
	_, ok := r.items[id]
	return ok
}

// Len returns the number of registered items
func (r *Registry) Len() int {
	return len(r.order)
}

// IDs returns item ids in insertion order
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Items returns items in insertion order
func (r *Registry) Items() []models.Item {
	out := make([]models.Item, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

// Resolve maps ids to items, skipping unknown ids
func (r *Registry) Resolve(ids []string) []models.Item {
	out := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// Remove deletes an item. Returns false if the id is unknown.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Rename updates an item's title. Returns false if the id is unknown.
func (r *Registry) Rename(id, title string) bool {
	it, ok := r.items[id]
	if !ok {
		return false
	}
	it.Title = title
	r.items[id] = it
	return true
}

// SetImageRef updates an item's image reference. Returns false if the id is unknown.
func (r *Registry) SetImageRef(id, ref string) bool {
	it, ok := r.items[id]
	if !ok {
		return false
	}
	it.ImageRef = ref
	r.items[id] = it
	return true
}
