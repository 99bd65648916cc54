// ABOUTME: Concurrent poster backfill for items missing an image reference
// ABOUTME: Bounded fan-out; per-item failures leave the item unchanged
package poster

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harper/tierworks/internal/metrics"
	"github.com/harper/tierworks/internal/models"
)

// Lookup finds an image ref for an item. An empty ref with a nil error is a miss.
type Lookup func(ctx context.Context, it models.Item) (string, error)

// TitleLookup adapts a title search (such as a TMDB poster search) to a Lookup
func TitleLookup(search func(ctx context.Context, title string) (string, error)) Lookup {
	return func(ctx context.Context, it models.Item) (string, error) {
		return search(ctx, it.Title)
	}
}

// Chain tries each lookup in turn and returns the first hit. Errors from one
// lookup do not stop the next; if every lookup misses, the last error is
// returned.
func Chain(lookups ...Lookup) Lookup {
	return func(ctx context.Context, it models.Item) (string, error) {
		var lastErr error
		for _, lookup := range lookups {
			ref, err := lookup(ctx, it)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				lastErr = err
				continue
			}
			if ref != "" {
				return ref, nil
			}
		}
		return "", lastErr
	}
}

type backfillConfig struct {
	metrics metrics.Collector
	logger  *zap.Logger
}

// Option configures Backfill
type Option func(*backfillConfig)

// WithMetrics records each lookup outcome
func WithMetrics(m metrics.Collector) Option {
	return func(c *backfillConfig) { c.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *backfillConfig) { c.logger = l }
}

// Backfill looks up posters for items without an image ref, at most limit at
// a time. It returns the id to ref updates found so far; when ctx is
// cancelled the partial updates come back with ctx's error.
func Backfill(ctx context.Context, items []models.Item, lookup Lookup, limit int, opts ...Option) (map[string]string, error) {
	cfg := backfillConfig{metrics: metrics.NewNop(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if limit <= 0 {
		limit = 1
	}

	var (
		mu      sync.Mutex
		updates = make(map[string]string)
	)

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, it := range items {
		if it.ImageRef != "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				cfg.metrics.RecordPosterLookup(metrics.PosterCancelled)
				return nil
			}
			ref, err := lookup(ctx, it)
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				cfg.metrics.RecordPosterLookup(metrics.PosterCancelled)
			case err != nil:
				cfg.metrics.RecordPosterLookup(metrics.PosterError)
				cfg.logger.Warn("poster lookup failed", zap.String("item", it.ID), zap.String("title", it.Title), zap.Error(err))
			case ref == "":
				cfg.metrics.RecordPosterLookup(metrics.PosterMissing)
			default:
				cfg.metrics.RecordPosterLookup(metrics.PosterFound)
				mu.Lock()
				updates[it.ID] = ref
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return updates, ctx.Err()
}
