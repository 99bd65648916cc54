// ABOUTME: Sentinel errors for partition, cursor and session operations
// ABOUTME: Lookup misses are not errors; these cover rejected requests only
package core

import "errors"

var (
	// ErrNotEditable is returned when renaming items in a read-only pool
	ErrNotEditable = errors.New("item pool is not editable")
	// ErrEmptyTitle is returned when renaming an item to an empty title
	ErrEmptyTitle = errors.New("title cannot be empty")
	// ErrNoSelection is returned by assign/skip when nothing is selected
	ErrNoSelection = errors.New("no item selected")
	// ErrNotATier is returned when a tier operation names the pool
	ErrNotATier = errors.New("bucket is not a tier")
)
