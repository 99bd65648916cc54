// ABOUTME: Persistence adapter contracts for snapshots, templates and results
// ABOUTME: Implemented by the SQLite store (local) and the Charm KV client (remote)
package storage

import (
	"context"
	"errors"

	"github.com/harper/tierworks/internal/models"
)

// ErrTemplateNotFound is returned when an update or delete names an unknown template
var ErrTemplateNotFound = errors.New("template not found")

// SnapshotStore persists partition snapshots per source key. A missing or
// unreadable snapshot loads as (nil, nil).
type SnapshotStore interface {
	LoadPartitionSnapshot(ctx context.Context, sourceKey string) (*models.Snapshot, error)
	SavePartitionSnapshot(ctx context.Context, sourceKey string, snap *models.Snapshot) error
}

// TemplateStore persists templates. Get returns (nil, nil) when absent.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, tpl *models.Template) error
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
	ListPublished(ctx context.Context) ([]models.Template, error)
	SetPublished(ctx context.Context, id string, published bool) error
	DeleteTemplate(ctx context.Context, id string) error
}

// ResultStore persists saved results. Results are immutable once saved;
// Get returns (nil, nil) when absent. An empty templateID lists everything.
type ResultStore interface {
	SaveResult(ctx context.Context, result *models.SavedResult) error
	GetResult(ctx context.Context, id string) (*models.SavedResult, error)
	ListResults(ctx context.Context, templateID string) ([]models.SavedResult, error)
	DeleteResult(ctx context.Context, id string) error
}

// Store combines every persistence concern with lifecycle management
type Store interface {
	SnapshotStore
	TemplateStore
	ResultStore
	Close() error
}

// Notice reports a non-fatal persistence failure to the user layer
type Notice struct {
	Op  string
	Key string
	Err error
}

func (n Notice) Error() string {
	return n.Op + " " + n.Key + ": " + n.Err.Error()
}

func (n Notice) Unwrap() error {
	return n.Err
}

// NoticeFunc receives non-fatal persistence failures
type NoticeFunc func(Notice)
