// ABOUTME: Charm KV client wrapper used as the hosted mirror of the local store
// ABOUTME: Stores templates, results and snapshots as JSON under typed key prefixes
package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/storage"
)

// Key prefixes for different entity types
const (
	TemplatePrefix = "template:"
	ResultPrefix   = "result:"
	SnapshotPrefix = "snapshot:"
)

// Config holds charm client configuration
type Config struct {
	Host        string
	DBName      string
	AutoSync    bool
	SyncTimeout time.Duration
}

// DefaultConfig returns default configuration for charm client
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "charm.2389.dev"
	}
	return &Config{
		Host:        host,
		DBName:      "tierworks",
		AutoSync:    true,
		SyncTimeout: 30 * time.Second,
	}
}

// ErrClosed is returned by operations on a closed client
var ErrClosed = errors.New("charm client closed")

// Client wraps charm KV for storage operations
type Client struct {
	kv     *kv.KV
	config *Config
	logger *zap.Logger
	mu     sync.Mutex
}

var _ storage.Remote = (*Client)(nil)

// NewClient opens the charm KV database described by cfg
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// charm reads the host from the environment when opening KV
	if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
		return nil, fmt.Errorf("failed to set CHARM_HOST: %w", err)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
		logger: logger,
	}

	// pull remote data on startup
	if cfg.AutoSync {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout)
		defer cancel()
		if err := c.Sync(ctx); err != nil {
			logger.Warn("initial charm sync failed", zap.Error(err))
		}
	}

	return c, nil
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

// Sync pushes and pulls changes, giving up when ctx is done. A sync that
// outlives ctx still holds the client lock, so Close waits for it.
func (c *Client) Sync(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.kv == nil {
			done <- ErrClosed
			return
		}
		if err := c.kv.Sync(); err != nil {
			done <- fmt.Errorf("charm sync failed: %w", err)
			return
		}
		done <- nil
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) syncIfEnabled(ctx context.Context) error {
	if !c.config.AutoSync {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.SyncTimeout)
	defer cancel()
	return c.Sync(ctx)
}

// Reset wipes all local data (nuclear option)
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return ErrClosed
	}
	return c.kv.Reset()
}

// ID returns the charm user ID
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.ID()
}

// AuthorizedKeys returns the linked devices/keys
func (c *Client) AuthorizedKeys() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("failed to create charm client: %w", err)
	}
	return cc.AuthorizedKeys()
}

func (c *Client) set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	c.mu.Lock()
	if c.kv == nil {
		c.mu.Unlock()
		return ErrClosed
	}
	err = c.kv.Set([]byte(key), data)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return c.syncIfEnabled(ctx)
}

// get decodes key into dest. Returns false when the key is missing or holds
// data that no longer decodes.
func (c *Client) get(ctx context.Context, key string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	if c.kv == nil {
		c.mu.Unlock()
		return false, ErrClosed
	}
	data, err := c.kv.Get([]byte(key))
	c.mu.Unlock()
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && data == nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("ignoring malformed charm value", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (c *Client) delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.kv == nil {
		c.mu.Unlock()
		return ErrClosed
	}
	err := c.kv.Delete([]byte(key))
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return c.syncIfEnabled(ctx)
}

// listKeys returns all keys with the given prefix, sorted
func (c *Client) listKeys(prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return nil, ErrClosed
	}

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		if keyStr := string(key); strings.HasPrefix(keyStr, prefix) {
			result = append(result, keyStr)
		}
	}
	sort.Strings(result)
	return result, nil
}

// LoadPartitionSnapshot returns the mirrored snapshot or nil
func (c *Client) LoadPartitionSnapshot(ctx context.Context, sourceKey string) (*models.Snapshot, error) {
	var snap models.Snapshot
	ok, err := c.get(ctx, SnapshotKey(sourceKey), &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

// SavePartitionSnapshot mirrors a snapshot
func (c *Client) SavePartitionSnapshot(ctx context.Context, sourceKey string, snap *models.Snapshot) error {
	return c.set(ctx, SnapshotKey(sourceKey), snap)
}

// SaveTemplate mirrors a template
func (c *Client) SaveTemplate(ctx context.Context, tpl *models.Template) error {
	return c.set(ctx, TemplateKey(tpl.ID), tpl)
}

// GetTemplate returns a mirrored template or nil
func (c *Client) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	var tpl models.Template
	ok, err := c.get(ctx, TemplateKey(id), &tpl)
	if err != nil || !ok {
		return nil, err
	}
	return &tpl, nil
}

// ListTemplates returns every mirrored template, newest first
func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	keys, err := c.listKeys(TemplatePrefix)
	if err != nil {
		return nil, err
	}
	var out []models.Template
	for _, key := range keys {
		var tpl models.Template
		ok, err := c.get(ctx, key, &tpl)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, tpl)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// ListPublished returns published mirrored templates
func (c *Client) ListPublished(ctx context.Context) ([]models.Template, error) {
	all, err := c.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Template
	for _, tpl := range all {
		if tpl.Published {
			out = append(out, tpl)
		}
	}
	return out, nil
}

// SetPublished updates the published flag of a mirrored template
func (c *Client) SetPublished(ctx context.Context, id string, published bool) error {
	tpl, err := c.GetTemplate(ctx, id)
	if err != nil || tpl == nil {
		return err
	}
	tpl.Published = published
	return c.SaveTemplate(ctx, tpl)
}

// DeleteTemplate removes a mirrored template and its snapshot
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	if err := c.delete(ctx, TemplateKey(id)); err != nil {
		return err
	}
	return c.delete(ctx, SnapshotKey(id))
}

// SaveResult mirrors a result
func (c *Client) SaveResult(ctx context.Context, r *models.SavedResult) error {
	return c.set(ctx, ResultKey(r.ID), r)
}

// GetResult returns a mirrored result or nil
func (c *Client) GetResult(ctx context.Context, id string) (*models.SavedResult, error) {
	var r models.SavedResult
	ok, err := c.get(ctx, ResultKey(id), &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// ListResults returns mirrored results, newest first
func (c *Client) ListResults(ctx context.Context, templateID string) ([]models.SavedResult, error) {
	keys, err := c.listKeys(ResultPrefix)
	if err != nil {
		return nil, err
	}
	var out []models.SavedResult
	for _, key := range keys {
		var r models.SavedResult
		ok, err := c.get(ctx, key, &r)
		if err != nil {
			return nil, err
		}
		if ok && (templateID == "" || r.SourceTemplateID == templateID) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// DeleteResult removes a mirrored result
func (c *Client) DeleteResult(ctx context.Context, id string) error {
	return c.delete(ctx, ResultKey(id))
}

// TemplateKey generates a key for a Template
func TemplateKey(id string) string {
	return TemplatePrefix + id
}

// ResultKey generates a key for a SavedResult
func ResultKey(id string) string {
	return ResultPrefix + id
}

// SnapshotKey generates a key for a partition snapshot
func SnapshotKey(sourceKey string) string {
	return SnapshotPrefix + sourceKey
}
