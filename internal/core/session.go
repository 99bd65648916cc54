// ABOUTME: Session composes registry, partition engine and cursor for one template
// ABOUTME: Every mutation reconciles the queue, ticks the cursor and persists on change
package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/metrics"
	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/storage"
)

// Persister receives snapshots at save points. storage.AsyncWriter satisfies it.
type Persister interface {
	Submit(sourceKey string, snap *models.Snapshot)
}

// Session is the active ranking session over one template's items
type Session struct {
	mu sync.Mutex

	key      string
	name     string
	registry *Registry
	engine   *Engine
	cursor   *Cursor

	persister Persister
	logger    *zap.Logger
	metrics   metrics.Collector
	dirty     bool
}

// SessionOption configures a Session
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	editable  bool
	rng       *rand.Rand
	persister Persister
	logger    *zap.Logger
	metrics   metrics.Collector
}

// WithEditable allows renaming items
func WithEditable(editable bool) SessionOption {
	return func(c *sessionConfig) { c.editable = editable }
}

// WithRand sets the shuffle source for the traversal queue
func WithRand(rng *rand.Rand) SessionOption {
	return func(c *sessionConfig) { c.rng = rng }
}

// WithPersister sets where snapshots go after a changing mutation
func WithPersister(p Persister) SessionOption {
	return func(c *sessionConfig) { c.persister = p }
}

// WithLogger sets the session logger
func WithLogger(l *zap.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// WithMetrics sets the metrics collector
func WithMetrics(m metrics.Collector) SessionOption {
	return func(c *sessionConfig) { c.metrics = m }
}

// NewSession starts a session with every template item in the pool and the
// first queued item selected
func NewSession(tpl *models.Template, opts ...SessionOption) *Session {
	cfg := sessionConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.metrics == nil {
		cfg.metrics = metrics.NewNop()
	}

	reg := NewRegistry(tpl.Items)
	s := &Session{
		key:       tpl.ID,
		name:      tpl.Name,
		registry:  reg,
		engine:    NewEngine(reg, cfg.editable),
		cursor:    NewCursor(cfg.rng),
		persister: cfg.persister,
		logger:    cfg.logger.With(zap.String("source", tpl.ID)),
		metrics:   cfg.metrics,
	}
	s.cursor.Init(s.engine.Bucket(models.Pool))
	s.cursor.Tick()
	return s
}

// Key returns the source key snapshots are stored under
func (s *Session) Key() string {
	return s.key
}

// Name returns the template name
func (s *Session) Name() string {
	return s.name
}

// Mount restores the persisted snapshot for this session, if any. Returns
// whether a snapshot was applied.
func (s *Session) Mount(ctx context.Context, store storage.SnapshotStore) (bool, error) {
	snap, err := store.LoadPartitionSnapshot(ctx, s.key)
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap == nil {
		return false, nil
	}
	s.Restore(snap)
	return true, nil
}

// after runs the post-mutation steps. Callers hold mu.
func (s *Session) after(changed bool) {
	s.cursor.Reconcile(s.engine.Bucket(models.Pool))
	s.cursor.Tick()
	if changed {
		s.dirty = true
		s.checkpoint()
	}
}

func (s *Session) checkpoint() bool {
	if !s.dirty || s.persister == nil {
		return false
	}
	s.persister.Submit(s.key, s.snapshot())
	s.dirty = false
	return true
}

// Checkpoint submits a snapshot if anything changed since the last one
func (s *Session) Checkpoint() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpoint()
}

// Persist submits a snapshot even when the partition is unchanged, so a
// moved selection survives the process
func (s *Session) Persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	s.checkpoint()
}

// Dirty reports whether there are changes not yet handed to the persister
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Move relocates an item between buckets. See Engine.Move.
func (s *Session) Move(itemID string, from, to models.Bucket, toIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	moved := s.engine.Move(itemID, from, to, toIndex)
	s.metrics.RecordMove(from, to, moved)
	s.after(moved)
	return moved
}

// MoveTo relocates an item from wherever it currently is
func (s *Session) MoveTo(itemID string, to models.Bucket, toIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, _, ok := s.engine.Locate(itemID)
	if !ok {
		return false
	}
	moved := s.engine.Move(itemID, from, to, toIndex)
	s.metrics.RecordMove(from, to, moved)
	s.after(moved)
	return moved
}

// Select makes itemID the current selection. Unknown ids are ignored.
func (s *Session) Select(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.engine.Locate(itemID); !ok {
		return false
	}
	s.cursor.SelectExplicit(itemID)
	return true
}

// Assign moves the selected item into tier and advances the cursor.
// Returns the assigned item id.
func (s *Session) Assign(tier models.Bucket) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, _ := s.cursor.Selected()
	if err := s.cursor.Assign(s.engine, tier); err != nil {
		return "", err
	}
	s.metrics.RecordAssign(tier)
	s.logger.Debug("item assigned", zap.String("item", id), zap.Stringer("tier", tier))
	s.after(true)
	return id, nil
}

// Skip defers the selected item to the end of the pool and queue.
// Returns the skipped item id.
func (s *Session) Skip() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, _ := s.cursor.Selected()
	if err := s.cursor.Skip(s.engine); err != nil {
		return "", err
	}
	s.metrics.RecordSkip()
	s.after(true)
	return id, nil
}

// ClearTier returns every item of tier to the pool
func (s *Session) ClearTier(tier models.Bucket) (int, error) {
	if !tier.IsTier() {
		return 0, ErrNotATier
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.engine.ClearBucket(tier)
	s.metrics.RecordClear(tier, n)
	s.after(n > 0)
	return n, nil
}

// Reset clears every tier and reshuffles the queue
func (s *Session) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range models.Tiers {
		cleared := s.engine.ClearBucket(t)
		s.metrics.RecordClear(t, cleared)
		n += cleared
	}
	s.cursor.Init(s.engine.Bucket(models.Pool))
	s.after(true)
	return n
}

// Rename changes an item title. Requires an editable session.
func (s *Session) Rename(itemID, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.engine.Rename(itemID, title)
	if err != nil {
		return false, err
	}
	s.after(ok)
	return ok, nil
}

// AddItems registers new items and appends them to the pool
func (s *Session) AddItems(items ...models.Item) []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]models.Item, 0, len(items))
	for _, it := range items {
		it = s.registry.AddItem(it)
		s.engine.Insert(it.ID)
		added = append(added, it)
	}
	s.after(len(added) > 0)
	return added
}

// RemoveItem drops an item from the session entirely
func (s *Session) RemoveItem(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.engine.Remove(itemID) {
		return false
	}
	s.registry.Remove(itemID)
	if id, ok := s.cursor.Selected(); ok && id == itemID {
		s.cursor.Clear()
	}
	s.after(true)
	return true
}

// Selected returns the selected item
func (s *Session) Selected() (models.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.cursor.Selected()
	if !ok {
		return models.Item{}, false
	}
	return s.registry.Get(id)
}

// Queue returns the pending traversal order
func (s *Session) Queue() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Queue()
}

// Items returns every registered item in registry order
func (s *Session) Items() []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Items()
}

// Locate reports where an item currently sits
func (s *Session) Locate(itemID string) (models.Bucket, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Locate(itemID)
}

// View is a read-only rendering of the session
type View struct {
	Name     string                `json:"name"`
	Pool     []models.Item         `json:"pool"`
	Tiers    models.TierAssignment `json:"tiers"`
	Selected *models.Item          `json:"selected,omitempty"`
	Queued   int                   `json:"queued"`
}

// View resolves the partition into items
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Name:   s.name,
		Pool:   s.registry.Resolve(s.engine.Bucket(models.Pool)),
		Tiers:  s.tiers(),
		Queued: len(s.cursor.queue),
	}
	if id, ok := s.cursor.Selected(); ok {
		if it, found := s.registry.Get(id); found {
			v.Selected = &it
		}
	}
	return v
}

func (s *Session) tiers() models.TierAssignment {
	ta := models.EmptyTierAssignment()
	for _, t := range models.Tiers {
		ta[t] = s.registry.Resolve(s.engine.Bucket(t))
	}
	return ta
}

// Snapshot returns the persisted shape of the current state
func (s *Session) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() *models.Snapshot {
	snap := &models.Snapshot{
		PoolItems: s.registry.Resolve(s.engine.Bucket(models.Pool)),
		Tiers:     s.tiers(),
		Queue:     s.cursor.Queue(),
	}
	if id, ok := s.cursor.Selected(); ok {
		snap.Selected = id
	}
	return snap
}

// Restore rebuilds the partition from a snapshot. Unknown and repeated ids are
// ignored; registered items the snapshot does not mention land at the end of
// the pool. Stored titles and image refs override the template's.
func (s *Session) Restore(snap *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	placed := s.load(snap, true)
	s.cursor.Init(nil)
	s.cursor.queue = dedupe(snap.Queue)
	s.cursor.Reconcile(s.engine.Bucket(models.Pool))
	if snap.Selected != "" && placed[snap.Selected] {
		s.cursor.SelectExplicit(snap.Selected)
	}
	s.cursor.Tick()
	s.dirty = false
}

// load rebuilds the partition from snap and returns the ids it placed. With
// withMeta, stored titles and image refs replace the registry's. Callers hold mu.
func (s *Session) load(snap *models.Snapshot, withMeta bool) map[string]bool {
	var p Partition
	placed := make(map[string]bool, s.registry.Len())
	place := func(b models.Bucket, items []models.Item) {
		for _, it := range items {
			if !s.registry.Has(it.ID) || placed[it.ID] {
				continue
			}
			placed[it.ID] = true
			p[b] = append(p[b], it.ID)
			if !withMeta {
				continue
			}
			if it.Title != "" {
				s.registry.Rename(it.ID, it.Title)
			}
			if it.ImageRef != "" {
				s.registry.SetImageRef(it.ID, it.ImageRef)
			}
		}
	}

	place(models.Pool, snap.PoolItems)
	for _, t := range models.Tiers {
		place(t, snap.Tiers[t])
	}
	for _, id := range s.registry.IDs() {
		if !placed[id] {
			p[models.Pool] = append(p[models.Pool], id)
		}
	}
	for b := range p {
		if p[b] == nil {
			p[b] = []string{}
		}
	}
	s.engine.load(p)
	return placed
}

// ApplyResult loads a saved result: tiers come from the result, the pool is
// every other registered item in registry order. Only placement is taken from
// the result; current titles and image refs are kept.
func (s *Session) ApplyResult(r *models.SavedResult) {
	snap := &models.Snapshot{Tiers: r.Tiers.Clone()}
	assigned := r.Tiers.AssignedIDs()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.registry.Items() {
		if !assigned[it.ID] {
			snap.PoolItems = append(snap.PoolItems, it)
		}
	}
	s.load(snap, false)
	s.cursor.Init(s.engine.Bucket(models.Pool))
	s.cursor.Tick()
	s.dirty = true
	s.checkpoint()
}

// SaveResult captures the current tiers as an immutable result
func (s *Session) SaveResult(title string) *models.SavedResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &models.SavedResult{
		ID:               uuid.New().String(),
		SourceTemplateID: s.key,
		TemplateName:     s.name,
		CreatedAt:        time.Now().UnixMilli(),
		Tiers:            s.tiers(),
		Title:            title,
	}
}

// Placements maps every tiered item id to its tier
func (s *Session) Placements() map[string]models.Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.Bucket)
	for _, t := range models.Tiers {
		for _, id := range s.engine.Bucket(t) {
			out[id] = t
		}
	}
	return out
}

// ApplyPlacements moves items into the given tiers, in registry order.
// Unknown ids and non-tier targets are skipped.
func (s *Session) ApplyPlacements(placements map[string]models.Bucket) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range s.registry.IDs() {
		to, ok := placements[id]
		if !ok || !to.IsTier() {
			continue
		}
		from, _, _ := s.engine.Locate(id)
		if s.engine.Move(id, from, to, AppendIndex) {
			n++
		}
	}
	s.after(n > 0)
	return n
}

// ApplyPosterUpdates sets image refs resolved in the background. Ids that
// left the session meanwhile are skipped.
func (s *Session) ApplyPosterUpdates(updates map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, id := range s.registry.IDs() {
		ref, ok := updates[id]
		if !ok || ref == "" {
			continue
		}
		if s.registry.SetImageRef(id, ref) {
			n++
		}
	}
	if n > 0 {
		s.logger.Debug("poster updates applied", zap.Int("count", n))
	}
	s.after(n > 0)
	return n
}
