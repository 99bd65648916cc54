// ABOUTME: Partition engine maintaining pool and tier membership with order
// ABOUTME: Every registered item lives in exactly one bucket; moves conserve items
package core

import (
	"strings"

	"github.com/harper/tierworks/internal/models"
)

// AppendIndex asks Move to append at the end of the destination bucket
const AppendIndex = -1

// Partition is a value copy of every bucket's ordered item ids
type Partition [models.NumBuckets][]string

// Clone returns a deep copy of the partition
func (p Partition) Clone() Partition {
	var out Partition
	for b := range p {
		out[b] = append([]string{}, p[b]...)
	}
	return out
}

// Count returns the total number of ids across all buckets
func (p Partition) Count() int {
	n := 0
	for b := range p {
		n += len(p[b])
	}
	return n
}

// Engine owns bucket membership and ordering for one session
type Engine struct {
	registry *Registry
	editable bool
	buckets  Partition
	location map[string]models.Bucket
}

// NewEngine creates an engine with every registry item in the pool, in
// registry order
func NewEngine(reg *Registry, editable bool) *Engine {
	e := &Engine{
		registry: reg,
		editable: editable,
		location: make(map[string]models.Bucket, reg.Len()),
	}
	for i := range e.buckets {
		e.buckets[i] = []string{}
	}
	for _, id := range reg.IDs() {
		e.buckets[models.Pool] = append(e.buckets[models.Pool], id)
		e.location[id] = models.Pool
	}
	return e
}

// Editable reports whether item titles may be changed
func (e *Engine) Editable() bool {
	return e.editable
}

// Move relocates itemID from one bucket to another. The item is removed from
// its current position and inserted at toIndex when 0 <= toIndex <= len(dest)
// (measured after removal), otherwise appended. Returns false without changing
// anything when the item is not in from or the resulting position equals the
// current one.
func (e *Engine) Move(itemID string, from, to models.Bucket, toIndex int) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if loc, ok := e.location[itemID]; !ok || loc != from {
		return false
	}
	src := e.buckets[from]
	idx := indexOf(src, itemID)
	if idx < 0 {
		return false
	}

	rest := removeAt(src, idx)
	if from == to {
		dest := toIndex
		if dest < 0 || dest > len(rest) {
			dest = len(rest)
		}
		if dest == idx {
			return false
		}
		e.buckets[from] = insertAt(rest, dest, itemID)
		return true
	}

	e.buckets[from] = rest
	e.buckets[to] = insertAt(e.buckets[to], toIndex, itemID)
	e.location[itemID] = to
	return true
}

// Rename updates an item's title in place. Unknown ids are a silent no-op.
func (e *Engine) Rename(itemID, title string) (bool, error) {
	if !e.editable {
		return false, ErrNotEditable
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return false, ErrEmptyTitle
	}
	if _, ok := e.location[itemID]; !ok {
		return false, nil
	}
	return e.registry.Rename(itemID, title), nil
}

// ClearBucket moves every item in tier to the end of the pool, preserving
// their relative order. Returns the number of items moved.
func (e *Engine) ClearBucket(tier models.Bucket) int {
	if !tier.IsTier() {
		return 0
	}
	ids := e.buckets[tier]
	if len(ids) == 0 {
		return 0
	}
	for _, id := range ids {
		e.location[id] = models.Pool
	}
	e.buckets[models.Pool] = append(append([]string{}, e.buckets[models.Pool]...), ids...)
	e.buckets[tier] = []string{}
	return len(ids)
}

// Insert appends a registered item that is not yet placed to the pool
func (e *Engine) Insert(itemID string) bool {
	if !e.registry.Has(itemID) {
		return false
	}
	if _, placed := e.location[itemID]; placed {
		return false
	}
	e.buckets[models.Pool] = insertAt(e.buckets[models.Pool], AppendIndex, itemID)
	e.location[itemID] = models.Pool
	return true
}

// Remove drops an item from whichever bucket holds it
func (e *Engine) Remove(itemID string) bool {
	b, ok := e.location[itemID]
	if !ok {
		return false
	}
	idx := indexOf(e.buckets[b], itemID)
	e.buckets[b] = removeAt(e.buckets[b], idx)
	delete(e.location, itemID)
	return true
}

// Locate returns the bucket and index holding itemID
func (e *Engine) Locate(itemID string) (models.Bucket, int, bool) {
	b, ok := e.location[itemID]
	if !ok {
		return models.Pool, -1, false
	}
	return b, indexOf(e.buckets[b], itemID), true
}

// Bucket returns a copy of one bucket's ids
func (e *Engine) Bucket(b models.Bucket) []string {
	if !b.Valid() {
		return nil
	}
	return append([]string{}, e.buckets[b]...)
}

// Snapshot returns a deep copy of the current partition
func (e *Engine) Snapshot() Partition {
	return e.buckets.Clone()
}

// Count returns the number of placed items
func (e *Engine) Count() int {
	return len(e.location)
}

// load replaces the partition wholesale. Callers guarantee every id is
// registered and appears once.
func (e *Engine) load(p Partition) {
	e.buckets = p.Clone()
	e.location = make(map[string]models.Bucket, p.Count())
	for b := range e.buckets {
		for _, id := range e.buckets[b] {
			e.location[id] = models.Bucket(b)
		}
	}
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeAt(ids []string, idx int) []string {
	out := make([]string, 0, len(ids)-1)
	out = append(out, ids[:idx]...)
	return append(out, ids[idx+1:]...)
}

func insertAt(ids []string, idx int, id string) []string {
	if idx < 0 || idx > len(ids) {
		idx = len(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:idx]...)
	out = append(out, id)
	return append(out, ids[idx:]...)
}
