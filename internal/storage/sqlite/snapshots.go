// ABOUTME: Partition snapshot storage for SQLite, one row per source key
// ABOUTME: Unreadable rows load as absent so a session falls back to its default partition
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/models"
)

// SnapshotStore handles snapshot persistence
type SnapshotStore struct {
	db     *DB
	logger *zap.Logger
}

// NewSnapshotStore creates a new SnapshotStore
func NewSnapshotStore(db *DB, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{db: db, logger: logger}
}

// Load returns the snapshot for sourceKey, or nil when absent or malformed
func (s *SnapshotStore) Load(ctx context.Context, sourceKey string) (*models.Snapshot, error) {
	var data string
	err := s.db.QueryRow(ctx, "SELECT data FROM snapshots WHERE source_key = ?", sourceKey).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		s.logger.Warn("ignoring malformed snapshot", zap.String("source", sourceKey), zap.Error(err))
		return nil, nil
	}
	return &snap, nil
}

// Save stores snap under sourceKey, replacing any previous snapshot
func (s *SnapshotStore) Save(ctx context.Context, sourceKey string, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO snapshots (source_key, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, sourceKey, string(data))
	return err
}

// Delete removes the snapshot for sourceKey
func (s *SnapshotStore) Delete(ctx context.Context, sourceKey string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM snapshots WHERE source_key = ?", sourceKey)
	return err
}

// Keys lists every stored source key
func (s *SnapshotStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, "SELECT source_key FROM snapshots ORDER BY source_key")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
