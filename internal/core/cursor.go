// ABOUTME: Selection cursor and traversal queue for one-at-a-time ranking
// ABOUTME: Skipped items are deferred to the queue tail; new pool items are shuffled in
package core

import (
	"math/rand/v2"

	"github.com/harper/tierworks/internal/models"
)

// CursorState is the selection state machine
type CursorState int

const (
	Idle CursorState = iota
	HasSelection
)

func (s CursorState) String() string {
	if s == HasSelection {
		return "has_selection"
	}
	return "idle"
}

// Cursor tracks the selected item and the queue of pool items awaiting a decision
type Cursor struct {
	state    CursorState
	selected string
	queue    []string
	rng      *rand.Rand
}

// NewCursor creates an idle cursor. A nil rng uses the global source.
func NewCursor(rng *rand.Rand) *Cursor {
	return &Cursor{rng: rng}
}

// Init resets the cursor to Idle with a shuffled permutation of poolIDs
func (c *Cursor) Init(poolIDs []string) {
	c.state = Idle
	c.selected = ""
	c.queue = c.shuffle(dedupe(poolIDs))
}

// State returns the current state
func (c *Cursor) State() CursorState {
	return c.state
}

// Selected returns the selected item id, if any
func (c *Cursor) Selected() (string, bool) {
	return c.selected, c.state == HasSelection
}

// Queue returns a copy of the traversal queue
func (c *Cursor) Queue() []string {
	return append([]string{}, c.queue...)
}

// SelectExplicit selects itemID regardless of its queue position
func (c *Cursor) SelectExplicit(itemID string) {
	c.selected = itemID
	c.state = HasSelection
}

// Clear drops the selection
func (c *Cursor) Clear() {
	c.selected = ""
	c.state = Idle
}

// Tick selects the queue head when idle
func (c *Cursor) Tick() {
	if c.state == Idle && len(c.queue) > 0 {
		c.advance()
	}
}

func (c *Cursor) advance() {
	if len(c.queue) == 0 {
		c.Clear()
		return
	}
	c.selected = c.queue[0]
	c.state = HasSelection
}

// Assign moves the selected item into tier, drops it from the queue and
// advances to the queue head
func (c *Cursor) Assign(e *Engine, tier models.Bucket) error {
	if !tier.IsTier() {
		return ErrNotATier
	}
	if c.state != HasSelection {
		return ErrNoSelection
	}
	if from, _, ok := e.Locate(c.selected); ok {
		e.Move(c.selected, from, tier, AppendIndex)
	}
	c.queue = without(c.queue, c.selected)
	c.advance()
	return nil
}

// Skip defers the selected item: it goes to the end of the pool (from a tier
// or rotated within the pool) and to the tail of the queue. The selection is
// cleared; the next Tick picks the new queue head.
func (c *Cursor) Skip(e *Engine) error {
	if c.state != HasSelection {
		return ErrNoSelection
	}
	id := c.selected
	if from, _, ok := e.Locate(id); ok {
		e.Move(id, from, models.Pool, AppendIndex)
		c.queue = append(without(c.queue, id), id)
	}
	c.Clear()
	return nil
}

// Reconcile aligns the queue with the pool: entries still in the pool keep
// their order, entries gone from the pool are dropped, and new pool ids are
// appended in shuffled order. An empty pool clears the selection.
func (c *Cursor) Reconcile(poolIDs []string) {
	inPool := make(map[string]bool, len(poolIDs))
	for _, id := range poolIDs {
		inPool[id] = true
	}

	kept := make([]string, 0, len(c.queue))
	queued := make(map[string]bool, len(c.queue))
	for _, id := range c.queue {
		if inPool[id] && !queued[id] {
			kept = append(kept, id)
			queued[id] = true
		}
	}

	var fresh []string
	for _, id := range poolIDs {
		if !queued[id] {
			fresh = append(fresh, id)
			queued[id] = true
		}
	}

	c.queue = append(kept, c.shuffle(fresh)...)
	if len(poolIDs) == 0 {
		c.Clear()
	}
}

func (c *Cursor) shuffle(ids []string) []string {
	out := append([]string{}, ids...)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if c.rng != nil {
		c.rng.Shuffle(len(out), swap)
	} else {
		rand.Shuffle(len(out), swap)
	}
	return out
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
