// ABOUTME: Tests for the unified SQLite Storage
// ABOUTME: Covers templates, results, snapshots and malformed data handling
package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorageInMemory()
	if err != nil {
		t.Fatalf("NewStorageInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleTemplate(t *testing.T) *models.Template {
	t.Helper()
	tpl, err := models.NewTemplate("Crime dramas", []models.Item{
		{ID: "wire", Title: "The Wire"},
		{ID: "sopranos", Title: "The Sopranos", ImageRef: "posters/sopranos.jpg"},
	})
	if err != nil {
		t.Fatalf("NewTemplate() error = %v", err)
	}
	return tpl
}

func TestTemplateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	tpl := sampleTemplate(t)

	if err := store.SaveTemplate(ctx, tpl); err != nil {
		t.Fatalf("SaveTemplate() error = %v", err)
	}

	got, err := store.GetTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetTemplate() returned nil")
	}
	if got.Name != tpl.Name || len(got.Items) != 2 {
		t.Errorf("GetTemplate() = %+v", got)
	}
	if got.Items[1].ImageRef != "posters/sopranos.jpg" {
		t.Errorf("imageRef lost: %+v", got.Items[1])
	}
	if got.CreatedAt != tpl.CreatedAt {
		t.Errorf("CreatedAt = %d, want %d", got.CreatedAt, tpl.CreatedAt)
	}
}

func TestGetTemplateMissing(t *testing.T) {
	store := newTestStorage(t)
	got, err := store.GetTemplate(context.Background(), "nope")
	if err != nil || got != nil {
		t.Errorf("GetTemplate(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestSaveTemplateRejectsDuplicateItems(t *testing.T) {
	store := newTestStorage(t)
	tpl := sampleTemplate(t)
	tpl.Items = append(tpl.Items, models.Item{ID: "wire", Title: "Again"})

	if err := store.SaveTemplate(context.Background(), tpl); err == nil {
		t.Error("expected validation error for duplicate item ids")
	}
}

func TestPublishAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	a, b := sampleTemplate(t), sampleTemplate(t)
	_ = store.SaveTemplate(ctx, a)
	_ = store.SaveTemplate(ctx, b)

	if err := store.SetPublished(ctx, b.ID, true); err != nil {
		t.Fatalf("SetPublished() error = %v", err)
	}

	all, _ := store.ListTemplates(ctx)
	if len(all) != 2 {
		t.Errorf("ListTemplates() = %d, want 2", len(all))
	}
	pub, _ := store.ListPublished(ctx)
	if len(pub) != 1 || pub[0].ID != b.ID {
		t.Errorf("ListPublished() = %+v, want only %s", pub, b.ID)
	}
}

func TestUnknownTemplateUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	_ = store.SaveTemplate(ctx, sampleTemplate(t))

	tests := []struct {
		name string
		fn   func() error
	}{
		{"publish", func() error { return store.SetPublished(ctx, "no-such-template", true) }},
		{"unpublish", func() error { return store.SetPublished(ctx, "no-such-template", false) }},
		{"delete", func() error { return store.DeleteTemplate(ctx, "no-such-template") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, storage.ErrTemplateNotFound) {
				t.Errorf("error = %v, want ErrTemplateNotFound", err)
			}
		})
	}

	all, _ := store.ListTemplates(ctx)
	if len(all) != 1 || all[0].Published {
		t.Errorf("existing template should be untouched, got %+v", all)
	}
}

func TestDeleteTemplateDropsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	tpl := sampleTemplate(t)
	_ = store.SaveTemplate(ctx, tpl)
	_ = store.SavePartitionSnapshot(ctx, tpl.ID, &models.Snapshot{PoolItems: tpl.Items, Tiers: models.EmptyTierAssignment()})

	if err := store.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatalf("DeleteTemplate() error = %v", err)
	}
	snap, err := store.LoadPartitionSnapshot(ctx, tpl.ID)
	if err != nil || snap != nil {
		t.Errorf("snapshot should be gone, got %v, %v", snap, err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	snap := &models.Snapshot{
		PoolItems: []models.Item{{ID: "z", Title: "Z"}},
		Tiers:     models.EmptyTierAssignment(),
		Queue:     []string{"z"},
		Selected:  "z",
	}
	snap.Tiers[models.TierS] = []models.Item{{ID: "y", Title: "Y"}, {ID: "x", Title: "X"}}

	if err := store.SavePartitionSnapshot(ctx, "tpl", snap); err != nil {
		t.Fatalf("SavePartitionSnapshot() error = %v", err)
	}
	// overwrite keeps a single row
	if err := store.SavePartitionSnapshot(ctx, "tpl", snap); err != nil {
		t.Fatalf("second SavePartitionSnapshot() error = %v", err)
	}

	got, err := store.LoadPartitionSnapshot(ctx, "tpl")
	if err != nil || got == nil {
		t.Fatalf("LoadPartitionSnapshot() = %v, %v", got, err)
	}
	if len(got.Tiers[models.TierS]) != 2 || got.Tiers[models.TierS][0].ID != "y" {
		t.Errorf("tier S = %+v, want [y x]", got.Tiers[models.TierS])
	}
	if got.Selected != "z" {
		t.Errorf("Selected = %q, want z", got.Selected)
	}

	keys, _ := store.snapshots.Keys(ctx)
	if len(keys) != 1 {
		t.Errorf("Keys() = %v, want one key", keys)
	}
}

func TestMalformedSnapshotIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.db.Exec(ctx, "INSERT INTO snapshots (source_key, data) VALUES (?, ?)", "bad", "{not json")
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	snap, err := store.LoadPartitionSnapshot(ctx, "bad")
	if err != nil || snap != nil {
		t.Errorf("LoadPartitionSnapshot(malformed) = %v, %v; want nil, nil", snap, err)
	}
}

func TestResults(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	tiers := models.EmptyTierAssignment()
	tiers[models.TierA] = []models.Item{{ID: "wire", Title: "The Wire"}}
	r := &models.SavedResult{ID: "r1", SourceTemplateID: "tpl-1", TemplateName: "Crime", CreatedAt: 1000, Tiers: tiers}
	other := &models.SavedResult{ID: "r2", SourceTemplateID: "tpl-2", CreatedAt: 2000, Tiers: models.EmptyTierAssignment()}

	if err := store.SaveResult(ctx, r); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	_ = store.SaveResult(ctx, other)

	if err := store.SaveResult(ctx, r); err == nil {
		t.Error("results are immutable; saving the same id twice should fail")
	}

	got, err := store.GetResult(ctx, "r1")
	if err != nil || got == nil {
		t.Fatalf("GetResult() = %v, %v", got, err)
	}
	if got.Tiers[models.TierA][0].Title != "The Wire" {
		t.Errorf("tiers not restored: %+v", got.Tiers)
	}

	forTpl, _ := store.ListResults(ctx, "tpl-1")
	if len(forTpl) != 1 {
		t.Errorf("ListResults(tpl-1) = %d, want 1", len(forTpl))
	}
	all, _ := store.ListResults(ctx, "")
	if len(all) != 2 || all[0].ID != "r2" {
		t.Errorf("ListResults() should list newest first, got %+v", all)
	}

	if err := store.DeleteResult(ctx, "r1"); err != nil {
		t.Fatalf("DeleteResult() error = %v", err)
	}
	if got, _ := store.GetResult(ctx, "r1"); got != nil {
		t.Error("result should be deleted")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	tpl := sampleTemplate(t)
	tpl.Published = true
	_ = store.SaveTemplate(ctx, tpl)

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if st.Templates != 1 || st.Published != 1 || st.Results != 0 {
		t.Errorf("Stats() = %+v", st)
	}
}
