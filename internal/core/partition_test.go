// ABOUTME: Tests for the partition engine
// ABOUTME: Covers moves, no-ops, clearing and conservation of items
package core

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/harper/tierworks/internal/models"
)

func xyzEngine(t *testing.T) *Engine {
	t.Helper()
	reg := NewRegistry([]models.Item{
		{ID: "X", Title: "X"},
		{ID: "Y", Title: "Y"},
		{ID: "Z", Title: "Z"},
	})
	return NewEngine(reg, true)
}

func partitionOf(pool []string, tiers map[models.Bucket][]string) Partition {
	var p Partition
	for i := range p {
		p[i] = []string{}
	}
	p[models.Pool] = append([]string{}, pool...)
	for b, ids := range tiers {
		p[b] = append([]string{}, ids...)
	}
	return p
}

func TestEngine_ScenarioXYZ(t *testing.T) {
	e := xyzEngine(t)

	if !e.Move("Y", models.Pool, models.TierS, AppendIndex) {
		t.Fatal("move Y to S failed")
	}
	want := partitionOf([]string{"X", "Z"}, map[models.Bucket][]string{models.TierS: {"Y"}})
	if diff := cmp.Diff(want, e.Snapshot()); diff != "" {
		t.Errorf("after first move (-want +got):\n%s", diff)
	}

	if !e.Move("X", models.Pool, models.TierS, 0) {
		t.Fatal("move X to S[0] failed")
	}
	want = partitionOf([]string{"Z"}, map[models.Bucket][]string{models.TierS: {"X", "Y"}})
	if diff := cmp.Diff(want, e.Snapshot()); diff != "" {
		t.Errorf("after second move (-want +got):\n%s", diff)
	}
}

func TestEngine_MoveNotInFromIsNoop(t *testing.T) {
	e := xyzEngine(t)
	before := e.Snapshot()

	if e.Move("X", models.TierA, models.TierS, 0) {
		t.Error("move from wrong bucket should report false")
	}
	if e.Move("missing", models.Pool, models.TierS, 0) {
		t.Error("move of unknown id should report false")
	}
	if diff := cmp.Diff(before, e.Snapshot()); diff != "" {
		t.Errorf("partition changed on no-op (-before +after):\n%s", diff)
	}
}

func TestEngine_MoveSamePosition(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		toIndex int
		moved   bool
		pool    []string
	}{
		{name: "same index", id: "Y", toIndex: 1, moved: false, pool: []string{"X", "Y", "Z"}},
		{name: "append last", id: "Z", toIndex: AppendIndex, moved: false, pool: []string{"X", "Y", "Z"}},
		{name: "to front", id: "Z", toIndex: 0, moved: true, pool: []string{"Z", "X", "Y"}},
		{name: "append first", id: "X", toIndex: AppendIndex, moved: true, pool: []string{"Y", "Z", "X"}},
		{name: "out of range appends", id: "X", toIndex: 99, moved: true, pool: []string{"Y", "Z", "X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := xyzEngine(t)
			if got := e.Move(tt.id, models.Pool, models.Pool, tt.toIndex); got != tt.moved {
				t.Errorf("Move() = %v, want %v", got, tt.moved)
			}
			if diff := cmp.Diff(tt.pool, e.Bucket(models.Pool)); diff != "" {
				t.Errorf("pool mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngine_ClearBucket(t *testing.T) {
	e := xyzEngine(t)
	e.Move("Y", models.Pool, models.TierB, AppendIndex)
	e.Move("X", models.Pool, models.TierB, AppendIndex)

	if n := e.ClearBucket(models.TierB); n != 2 {
		t.Errorf("ClearBucket() = %d, want 2", n)
	}
	want := partitionOf([]string{"Z", "Y", "X"}, nil)
	if diff := cmp.Diff(want, e.Snapshot()); diff != "" {
		t.Errorf("partition mismatch (-want +got):\n%s", diff)
	}
	if n := e.ClearBucket(models.Pool); n != 0 {
		t.Errorf("clearing the pool should be a no-op, got %d", n)
	}
}

func TestEngine_ClearRoundTrip(t *testing.T) {
	e := xyzEngine(t)
	poolBefore := e.Bucket(models.Pool)

	e.Move("Y", models.Pool, models.TierC, AppendIndex)
	e.ClearBucket(models.TierC)

	got := e.Bucket(models.Pool)
	sort.Strings(got)
	sort.Strings(poolBefore)
	if diff := cmp.Diff(poolBefore, got); diff != "" {
		t.Errorf("pool membership changed (-before +after):\n%s", diff)
	}
	if len(e.Bucket(models.TierC)) != 0 {
		t.Error("tier C should be empty")
	}
}

func TestEngine_Rename(t *testing.T) {
	e := xyzEngine(t)

	ok, err := e.Rename("X", "  Ex  ")
	if err != nil || !ok {
		t.Fatalf("Rename() = %v, %v", ok, err)
	}
	if it, _ := e.registry.Get("X"); it.Title != "Ex" {
		t.Errorf("title = %q, want Ex", it.Title)
	}

	if _, err := e.Rename("X", "   "); err != ErrEmptyTitle {
		t.Errorf("empty title error = %v, want ErrEmptyTitle", err)
	}
	if ok, err := e.Rename("nope", "x"); ok || err != nil {
		t.Errorf("unknown id should be a silent no-op, got %v, %v", ok, err)
	}

	ro := NewEngine(NewRegistry([]models.Item{{ID: "a", Title: "A"}}), false)
	if _, err := ro.Rename("a", "B"); err != ErrNotEditable {
		t.Errorf("read-only rename error = %v, want ErrNotEditable", err)
	}
}

func TestEngine_InsertRemove(t *testing.T) {
	reg := NewRegistry([]models.Item{{ID: "a", Title: "A"}})
	e := NewEngine(reg, true)
	reg.AddItem(models.Item{ID: "b", Title: "B"})

	if !e.Insert("b") {
		t.Fatal("Insert(b) = false")
	}
	if e.Insert("b") {
		t.Error("inserting a placed item should report false")
	}
	if diff := cmp.Diff([]string{"a", "b"}, e.Bucket(models.Pool)); diff != "" {
		t.Errorf("pool mismatch (-want +got):\n%s", diff)
	}

	if !e.Remove("a") || e.Count() != 1 {
		t.Errorf("Remove(a) failed, count = %d", e.Count())
	}
	if _, _, ok := e.Locate("a"); ok {
		t.Error("removed item should not be locatable")
	}
}

// Conservation: random move/clear sequences never lose or duplicate ids.
func TestEngine_Conservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	var items []models.Item
	for i := 0; i < 20; i++ {
		items = append(items, models.Item{ID: string(rune('a' + i)), Title: "t"})
	}
	reg := NewRegistry(items)
	e := NewEngine(reg, true)

	for step := 0; step < 2000; step++ {
		id := items[rng.IntN(len(items))].ID
		from := models.Bucket(rng.IntN(models.NumBuckets))
		to := models.Bucket(rng.IntN(models.NumBuckets))
		if rng.IntN(10) == 0 {
			e.ClearBucket(to)
		} else {
			e.Move(id, from, to, rng.IntN(8)-1)
		}

		snap := e.Snapshot()
		seen := make(map[string]int)
		for b := range snap {
			for _, id := range snap[b] {
				seen[id]++
			}
		}
		if len(seen) != len(items) {
			t.Fatalf("step %d: %d distinct ids, want %d", step, len(seen), len(items))
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("step %d: id %s appears %d times", step, id, n)
			}
		}
	}
}
