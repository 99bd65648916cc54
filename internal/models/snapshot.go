// ABOUTME: Snapshot and TierAssignment are the persisted shapes of a partition
// ABOUTME: Stored per source key by the persistence adapters
package models

// TierAssignment maps each tier to its ordered items
type TierAssignment map[Bucket][]Item

// EmptyTierAssignment returns an assignment with every tier present and empty
func EmptyTierAssignment() TierAssignment {
	ta := make(TierAssignment, len(Tiers))
	for _, t := range Tiers {
		ta[t] = []Item{}
	}
	return ta
}

// Clone returns a deep copy of the assignment
func (ta TierAssignment) Clone() TierAssignment {
	if ta == nil {
		return nil
	}
	out := make(TierAssignment, len(ta))
	for k, v := range ta {
		out[k] = CloneItems(v)
	}
	return out
}

// AssignedIDs returns the set of item ids present in any tier
func (ta TierAssignment) AssignedIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, t := range Tiers {
		for _, it := range ta[t] {
			ids[it.ID] = true
		}
	}
	return ids
}

// Count returns the number of items across all tiers
func (ta TierAssignment) Count() int {
	n := 0
	for _, t := range Tiers {
		n += len(ta[t])
	}
	return n
}

// Snapshot is the serialized partition for one source key. Queue and
// Selected carry the traversal cursor between CLI invocations; readers that
// only know the partition ignore them.
type Snapshot struct {
	PoolItems []Item         `json:"poolItems"`
	Tiers     TierAssignment `json:"tiers"`
	Queue     []string       `json:"queue,omitempty"`
	Selected  string         `json:"selected,omitempty"`
}
