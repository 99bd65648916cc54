// ABOUTME: Bucket enumerates the fixed set of partition buckets (pool + tiers)
// ABOUTME: Tier ids serialize as S/A/B/C/D/U, the pool as "pool"
package models

import (
	"fmt"
	"strings"
)

// Bucket identifies one ordered sequence in a partition
type Bucket int

const (
	Pool Bucket = iota
	TierS
	TierA
	TierB
	TierC
	TierD
	TierU
)

// NumBuckets is the number of buckets in every partition
const NumBuckets = 7

// Tiers lists the tier buckets in display order
var Tiers = []Bucket{TierS, TierA, TierB, TierC, TierD, TierU}

var bucketNames = [NumBuckets]string{"pool", "S", "A", "B", "C", "D", "U"}

// String returns the persisted identifier of the bucket
func (b Bucket) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
	return bucketNames[b]
}

// Valid reports whether b is one of the known buckets
func (b Bucket) Valid() bool {
	return b >= Pool && b <= TierU
}

// IsTier reports whether b is a tier (not the pool)
func (b Bucket) IsTier() bool {
	return b >= TierS && b <= TierU
}

// ParseBucket parses a bucket name. Accepts pool, S, A, B, C, D, U and
// "unranked", case-insensitive.
func ParseBucket(s string) (Bucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pool", "p":
		return Pool, nil
	case "s":
		return TierS, nil
	case "a":
		return TierA, nil
	case "b":
		return TierB, nil
	case "c":
		return TierC, nil
	case "d":
		return TierD, nil
	case "u", "unranked":
		return TierU, nil
	}
	return Pool, fmt.Errorf("unknown bucket %q", s)
}

// ParseTier parses a tier name, rejecting the pool
func ParseTier(s string) (Bucket, error) {
	b, err := ParseBucket(s)
	if err != nil {
		return b, err
	}
	if !b.IsTier() {
		return b, fmt.Errorf("%q is not a tier", s)
	}
	return b, nil
}

// MarshalText implements encoding.TextMarshaler so buckets work as JSON map keys
func (b Bucket) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid bucket %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (b *Bucket) UnmarshalText(text []byte) error {
	parsed, err := ParseBucket(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// TierDef describes how a tier row is displayed
type TierDef struct {
	ID    Bucket `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// DefaultTierDefs returns the stock tier rows
func DefaultTierDefs() []TierDef {
	return []TierDef{
		{ID: TierS, Label: "S", Color: "#f59e0b"},
		{ID: TierA, Label: "A", Color: "#ef4444"},
		{ID: TierB, Label: "B", Color: "#22c55e"},
		{ID: TierC, Label: "C", Color: "#3b82f6"},
		{ID: TierD, Label: "D", Color: "#a855f7"},
		{ID: TierU, Label: "Unranked", Color: "#94a3b8"},
	}
}
