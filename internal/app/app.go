// ABOUTME: Runtime wiring shared by the CLI, the MCP server and cmd/server
// ABOUTME: Builds local storage, the optional Charm mirror, snapshot writer and poster lookups
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/charm"
	"github.com/harper/tierworks/internal/config"
	"github.com/harper/tierworks/internal/core"
	"github.com/harper/tierworks/internal/metrics"
	"github.com/harper/tierworks/internal/models"
	"github.com/harper/tierworks/internal/poster"
	"github.com/harper/tierworks/internal/storage"
	"github.com/harper/tierworks/internal/storage/sqlite"
	"github.com/harper/tierworks/internal/tmdb"
)

// ErrTemplateNotFound is returned when a session is opened on an unknown template
var ErrTemplateNotFound = storage.ErrTemplateNotFound

// BackfillLimit bounds concurrent poster lookups
const BackfillLimit = 4

// App holds the long-lived dependencies of one process
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics metrics.Collector

	Local  *sqlite.Storage
	Remote *charm.Client
	Store  storage.Store
	Writer *storage.AsyncWriter
	TMDB   *tmdb.Client

	Resolver *poster.Resolver
	Posters  poster.Lookup

	mu      sync.Mutex
	notices []storage.Notice
}

type options struct {
	local   *sqlite.Storage
	metrics metrics.Collector
	http    *http.Client
}

// Option configures New
type Option func(*options)

// WithLocal uses an already opened local store instead of opening cfg.DBPath
func WithLocal(s *sqlite.Storage) Option {
	return func(o *options) { o.local = s }
}

// WithMetrics sets the collector shared by sessions, the writer and backfill
func WithMetrics(m metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// WithHTTPClient sets the client used for poster checks and TMDB
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.http = c }
}

// New opens storage and builds the poster lookup chain. Charm and TMDB are
// optional: a failure to reach either is logged and the app runs without it.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	if o.http == nil {
		o.http = &http.Client{Timeout: cfg.Timeout}
	}

	a := &App{Config: cfg, Logger: logger, Metrics: o.metrics}

	a.Local = o.local
	if a.Local == nil {
		var err error
		if cfg.DBPath != "" {
			a.Local, err = sqlite.NewStorageWithPath(cfg.DBPath, logger)
		} else {
			a.Local, err = sqlite.NewStorage(logger)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open local storage: %w", err)
		}
	}

	var remote storage.Remote
	if cfg.SyncEnabled {
		client, err := charm.NewClient(&charm.Config{
			Host:        cfg.CharmHost,
			DBName:      cfg.CharmDBName,
			AutoSync:    cfg.AutoSync,
			SyncTimeout: cfg.SyncTimeout,
		}, logger.Named("charm"))
		if err != nil {
			logger.Warn("charm sync unavailable, continuing locally", zap.Error(err))
			a.notice(storage.Notice{Op: "connect", Key: cfg.CharmHost, Err: err})
		} else {
			a.Remote = client
			remote = client
		}
	}

	a.Store = storage.NewSynced(a.Local, remote, a.notice, logger.Named("store"), o.metrics)
	a.Writer = storage.NewAsyncWriter(a.Store,
		storage.WithNotice(a.notice),
		storage.WithWriterLogger(logger.Named("writer")),
		storage.WithWriterMetrics(o.metrics),
	)

	a.Resolver = poster.NewResolver(cfg.PosterRoot, cfg.PosterFolders, poster.NewSchemeChecker(o.http), logger.Named("poster"))
	lookups := []poster.Lookup{a.Resolver.Lookup}
	if cfg.HasTMDB() {
		client, err := tmdb.NewClient(&tmdb.ClientConfig{
			APIKey:     cfg.TMDBKey,
			Language:   cfg.TMDBLanguage,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			HTTPClient: o.http,
			Logger:     logger.Named("tmdb"),
		})
		if err != nil {
			logger.Warn("tmdb client unavailable", zap.Error(err))
		} else {
			a.TMDB = client
			lookups = append(lookups, poster.TitleLookup(client.SearchPoster))
		}
	}
	a.Posters = poster.Chain(lookups...)

	return a, nil
}

func (a *App) notice(n storage.Notice) {
	a.mu.Lock()
	a.notices = append(a.notices, n)
	a.mu.Unlock()
}

// Notices drains the non-fatal persistence failures collected so far
func (a *App) Notices() []storage.Notice {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.notices
	a.notices = nil
	return out
}

// OpenSession loads a template and mounts its persisted snapshot. Published
// templates are read-only; a user's own templates allow renaming items.
func (a *App) OpenSession(ctx context.Context, templateID string) (*core.Session, error) {
	tpl, err := a.Store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	if tpl == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}
	return a.Mount(ctx, tpl)
}

// Mount starts a session on tpl and restores its snapshot if one exists.
// Pending snapshot writes are flushed first so the newest state is loaded.
func (a *App) Mount(ctx context.Context, tpl *models.Template) (*core.Session, error) {
	if err := a.Writer.Flush(ctx); err != nil && !errors.Is(err, storage.ErrWriterClosed) {
		return nil, fmt.Errorf("failed to flush pending snapshots: %w", err)
	}
	sess := core.NewSession(tpl,
		core.WithEditable(!tpl.Published),
		core.WithPersister(a.Writer),
		core.WithLogger(a.Logger.Named("session")),
		core.WithMetrics(a.Metrics),
	)
	restored, err := sess.Mount(ctx, a.Store)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("session opened", zap.String("template", tpl.ID), zap.Bool("restored", restored))
	return sess, nil
}

// LookupPosters resolves posters for the session's items that have none
// without touching the session. A cancelled lookup returns what it found so
// far with ctx's error.
func (a *App) LookupPosters(ctx context.Context, sess *core.Session) (map[string]string, error) {
	return poster.Backfill(ctx, sess.Items(), a.Posters, BackfillLimit,
		poster.WithMetrics(a.Metrics),
		poster.WithLogger(a.Logger.Named("backfill")),
	)
}

// Backfill looks up posters and applies them to sess. Returns the number of
// items updated. Cancellation means the session was abandoned, so nothing is
// applied; a deadline keeps the posters found before it.
func (a *App) Backfill(ctx context.Context, sess *core.Session) (int, error) {
	updates, err := a.LookupPosters(ctx, sess)
	if errors.Is(err, context.Canceled) {
		a.Logger.Debug("poster backfill abandoned", zap.String("template", sess.Key()), zap.Int("dropped", len(updates)))
		return 0, err
	}
	return sess.ApplyPosterUpdates(updates), err
}

// Close flushes pending snapshots and releases storage
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := a.Writer.Flush(ctx); err != nil && !errors.Is(err, storage.ErrWriterClosed) {
		errs = append(errs, fmt.Errorf("failed to flush snapshots: %w", err))
	}
	_ = a.Writer.Close()
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.Remote != nil {
		if err := a.Remote.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
