// ABOUTME: In-memory Store fake shared by storage package tests
// ABOUTME: Can be told to fail every call to simulate an unreachable backend
package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/harper/tierworks/internal/models"
)

var errUnavailable = errors.New("backend unavailable")

type fakeStore struct {
	mu        sync.Mutex
	fail      bool
	snapshots map[string]*models.Snapshot
	templates map[string]models.Template
	results   map[string]models.SavedResult
	saves     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snapshots: make(map[string]*models.Snapshot),
		templates: make(map[string]models.Template),
		results:   make(map[string]models.SavedResult),
	}
}

func (f *fakeStore) err() error {
	if f.fail {
		return errUnavailable
	}
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) LoadPartitionSnapshot(ctx context.Context, key string) (*models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.snapshots[key], nil
}

func (f *fakeStore) SavePartitionSnapshot(ctx context.Context, key string, snap *models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.saves++
	f.snapshots[key] = snap
	return nil
}

func (f *fakeStore) SaveTemplate(ctx context.Context, tpl *models.Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.templates[tpl.ID] = *tpl
	return nil
}

func (f *fakeStore) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return nil, err
	}
	tpl, ok := f.templates[id]
	if !ok {
		return nil, nil
	}
	return &tpl, nil
}

func (f *fakeStore) ListTemplates(ctx context.Context) ([]models.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return nil, err
	}
	var out []models.Template
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) ListPublished(ctx context.Context) ([]models.Template, error) {
	all, err := f.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Template
	for _, t := range all {
		if t.Published {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) SetPublished(ctx context.Context, id string, published bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	t, ok := f.templates[id]
	if !ok {
		return ErrTemplateNotFound
	}
	t.Published = published
	f.templates[id] = t
	return nil
}

func (f *fakeStore) DeleteTemplate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeStore) SaveResult(ctx context.Context, r *models.SavedResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	f.results[r.ID] = *r
	return nil
}

func (f *fakeStore) GetResult(ctx context.Context, id string) (*models.SavedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return nil, err
	}
	r, ok := f.results[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakeStore) ListResults(ctx context.Context, templateID string) ([]models.SavedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return nil, err
	}
	var out []models.SavedResult
	for _, r := range f.results {
		if templateID == "" || r.SourceTemplateID == templateID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteResult(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.err(); err != nil {
		return err
	}
	delete(f.results, id)
	return nil
}
