// ABOUTME: Synced store layers an optional remote mirror over the local store
// ABOUTME: Local state is authoritative; remote failures become notices, not errors
package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/metrics"
	"github.com/harper/tierworks/internal/models"
)

// Remote is a hosted backend mirroring the local store
type Remote interface {
	SnapshotStore
	TemplateStore
	ResultStore
}

// Synced writes to local first and mirrors to remote. Reads fall back to the
// remote only when the local store has nothing.
type Synced struct {
	local   Store
	remote  Remote
	notify  NoticeFunc
	logger  *zap.Logger
	metrics metrics.Collector
}

var _ Store = (*Synced)(nil)

// NewSynced wraps local with a remote mirror. A nil remote makes Synced a
// pass-through.
func NewSynced(local Store, remote Remote, notify NoticeFunc, logger *zap.Logger, m metrics.Collector) *Synced {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Synced{local: local, remote: remote, notify: notify, logger: logger, metrics: m}
}

// Close closes the local store
func (s *Synced) Close() error {
	return s.local.Close()
}

func (s *Synced) remoteFailed(op, key string, err error) {
	s.metrics.RecordSyncFailure(op)
	s.logger.Warn("remote sync failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
	if s.notify != nil {
		s.notify(Notice{Op: op, Key: key, Err: err})
	}
}

// LoadPartitionSnapshot reads locally, falling back to the remote
func (s *Synced) LoadPartitionSnapshot(ctx context.Context, sourceKey string) (*models.Snapshot, error) {
	snap, err := s.local.LoadPartitionSnapshot(ctx, sourceKey)
	if err != nil || snap != nil || s.remote == nil {
		return snap, err
	}
	snap, err = s.remote.LoadPartitionSnapshot(ctx, sourceKey)
	if err != nil {
		s.remoteFailed("load_snapshot", sourceKey, err)
		return nil, nil
	}
	if snap != nil {
		if err := s.local.SavePartitionSnapshot(ctx, sourceKey, snap); err != nil {
			s.logger.Warn("caching remote snapshot failed", zap.String("source", sourceKey), zap.Error(err))
		}
	}
	return snap, nil
}

// SavePartitionSnapshot writes locally, then mirrors
func (s *Synced) SavePartitionSnapshot(ctx context.Context, sourceKey string, snap *models.Snapshot) error {
	if err := s.local.SavePartitionSnapshot(ctx, sourceKey, snap); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.SavePartitionSnapshot(ctx, sourceKey, snap); err != nil {
			s.remoteFailed("save_snapshot", sourceKey, err)
		}
	}
	return nil
}

// SaveTemplate writes locally, then mirrors
func (s *Synced) SaveTemplate(ctx context.Context, tpl *models.Template) error {
	if err := s.local.SaveTemplate(ctx, tpl); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.SaveTemplate(ctx, tpl); err != nil {
			s.remoteFailed("save_template", tpl.ID, err)
		}
	}
	return nil
}

// GetTemplate reads locally, falling back to the remote
func (s *Synced) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	tpl, err := s.local.GetTemplate(ctx, id)
	if err != nil || tpl != nil || s.remote == nil {
		return tpl, err
	}
	tpl, err = s.remote.GetTemplate(ctx, id)
	if err != nil {
		s.remoteFailed("get_template", id, err)
		return nil, nil
	}
	return tpl, nil
}

// ListTemplates lists local templates
func (s *Synced) ListTemplates(ctx context.Context) ([]models.Template, error) {
	return s.local.ListTemplates(ctx)
}

// ListPublished merges local and remote published templates, local first
func (s *Synced) ListPublished(ctx context.Context) ([]models.Template, error) {
	out, err := s.local.ListPublished(ctx)
	if err != nil || s.remote == nil {
		return out, err
	}
	remote, err := s.remote.ListPublished(ctx)
	if err != nil {
		s.remoteFailed("list_published", "", err)
		return out, nil
	}
	seen := make(map[string]bool, len(out))
	for _, t := range out {
		seen[t.ID] = true
	}
	for _, t := range remote {
		if !seen[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// SetPublished updates locally, then mirrors
func (s *Synced) SetPublished(ctx context.Context, id string, published bool) error {
	if err := s.local.SetPublished(ctx, id, published); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.SetPublished(ctx, id, published); err != nil {
			s.remoteFailed("set_published", id, err)
		}
	}
	return nil
}

// DeleteTemplate deletes locally, then mirrors
func (s *Synced) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.local.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.DeleteTemplate(ctx, id); err != nil {
			s.remoteFailed("delete_template", id, err)
		}
	}
	return nil
}

// SaveResult writes locally, then mirrors
func (s *Synced) SaveResult(ctx context.Context, result *models.SavedResult) error {
	if err := s.local.SaveResult(ctx, result); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.SaveResult(ctx, result); err != nil {
			s.remoteFailed("save_result", result.ID, err)
		}
	}
	return nil
}

// GetResult reads locally, falling back to the remote
func (s *Synced) GetResult(ctx context.Context, id string) (*models.SavedResult, error) {
	r, err := s.local.GetResult(ctx, id)
	if err != nil || r != nil || s.remote == nil {
		return r, err
	}
	r, err = s.remote.GetResult(ctx, id)
	if err != nil {
		s.remoteFailed("get_result", id, err)
		return nil, nil
	}
	return r, nil
}

// ListResults lists local results
func (s *Synced) ListResults(ctx context.Context, templateID string) ([]models.SavedResult, error) {
	return s.local.ListResults(ctx, templateID)
}

// DeleteResult deletes locally, then mirrors
func (s *Synced) DeleteResult(ctx context.Context, id string) error {
	if err := s.local.DeleteResult(ctx, id); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.DeleteResult(ctx, id); err != nil {
			s.remoteFailed("delete_result", id, err)
		}
	}
	return nil
}
