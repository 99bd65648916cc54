// ABOUTME: Invariant checks run after every churn step
// ABOUTME: Conservation, queue/pool agreement and selection placement

package churn

import (
	"fmt"

	"github.com/harper/tierworks/internal/core"
	"github.com/harper/tierworks/internal/models"
)

// CheckInvariants verifies that every one of total items sits in exactly one
// bucket, that the queue is a duplicate-free subset of the pool covering all
// of it, and that a selection names a placed item
func CheckInvariants(sess *core.Session, total int) error {
	v := sess.View()

	seen := make(map[string]models.Bucket, total)
	place := func(b models.Bucket, items []models.Item) error {
		for _, it := range items {
			if prev, dup := seen[it.ID]; dup {
				return fmt.Errorf("conservation: %s in both %s and %s", it.ID, prev, b)
			}
			seen[it.ID] = b
		}
		return nil
	}
	if err := place(models.Pool, v.Pool); err != nil {
		return err
	}
	for _, t := range models.Tiers {
		if err := place(t, v.Tiers[t]); err != nil {
			return err
		}
	}
	if len(seen) != total {
		return fmt.Errorf("conservation: %d items placed, want %d", len(seen), total)
	}

	queue := sess.Queue()
	queued := make(map[string]bool, len(queue))
	for _, id := range queue {
		if queued[id] {
			return fmt.Errorf("queue: %s queued twice", id)
		}
		queued[id] = true
		if seen[id] != models.Pool {
			return fmt.Errorf("queue: %s queued but in %s", id, seen[id])
		}
	}
	if len(queue) != len(v.Pool) {
		return fmt.Errorf("queue: %d queued, pool holds %d", len(queue), len(v.Pool))
	}

	if v.Selected != nil {
		if _, ok := seen[v.Selected.ID]; !ok {
			return fmt.Errorf("selection: %s is not placed", v.Selected.ID)
		}
	} else if len(v.Pool) > 0 && len(queue) > 0 {
		return fmt.Errorf("selection: idle with %d queued", len(queue))
	}
	return nil
}
