// ABOUTME: Metrics collector interface for session and persistence instrumentation
// ABOUTME: Nop implementation is the default so callers never nil-check
package metrics

import "github.com/harper/tierworks/internal/models"

// Collector receives instrumentation events from sessions and adapters
type Collector interface {
	RecordMove(from, to models.Bucket, moved bool)
	RecordAssign(tier models.Bucket)
	RecordSkip()
	RecordClear(tier models.Bucket, items int)
	RecordSnapshotWrite(ok bool)
	RecordSyncFailure(op string)
	RecordPosterLookup(outcome string)
}

// Poster lookup outcomes
const (
	PosterFound     = "found"
	PosterMissing   = "missing"
	PosterError     = "error"
	PosterCancelled = "cancelled"
)

// Nop discards all events
type Nop struct{}

// NewNop returns a collector that records nothing
func NewNop() *Nop { return &Nop{} }

func (*Nop) RecordMove(from, to models.Bucket, moved bool) {}
func (*Nop) RecordAssign(tier models.Bucket) {}
func (*Nop) RecordSkip() {}
func (*Nop) RecordClear(tier models.Bucket, items int) {}
func (*Nop) RecordSnapshotWrite(ok bool) {}
func (*Nop) RecordSyncFailure(op string) {}
func (*Nop) RecordPosterLookup(outcome string) {}

var _ Collector = (*Nop)(nil)
