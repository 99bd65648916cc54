// ABOUTME: Fire-and-forget snapshot writer used at session save points
// ABOUTME: Coalesces writes per source key and reports failures without retrying
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/metrics"
	"github.com/harper/tierworks/internal/models"
)

// ErrWriterClosed is returned by Flush after Close
var ErrWriterClosed = errors.New("snapshot writer closed")

// AsyncWriter writes snapshots in the background
type AsyncWriter struct {
	store   SnapshotStore
	timeout time.Duration
	notify  NoticeFunc
	logger  *zap.Logger
	metrics metrics.Collector

	mu      sync.Mutex
	pending map[string]*models.Snapshot
	order   []string
	closed  bool

	wake  chan struct{}
	flush chan chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

// WriterOption configures an AsyncWriter
type WriterOption func(*AsyncWriter)

// WithWriteTimeout bounds each individual write
func WithWriteTimeout(d time.Duration) WriterOption {
	return func(w *AsyncWriter) { w.timeout = d }
}

// WithNotice sets the failure callback
func WithNotice(fn NoticeFunc) WriterOption {
	return func(w *AsyncWriter) { w.notify = fn }
}

// WithWriterLogger sets the logger
func WithWriterLogger(l *zap.Logger) WriterOption {
	return func(w *AsyncWriter) { w.logger = l }
}

// WithWriterMetrics sets the metrics collector
func WithWriterMetrics(m metrics.Collector) WriterOption {
	return func(w *AsyncWriter) { w.metrics = m }
}

// NewAsyncWriter starts a background writer for store
func NewAsyncWriter(store SnapshotStore, opts ...WriterOption) *AsyncWriter {
	w := &AsyncWriter{
		store:   store,
		timeout: 10 * time.Second,
		logger:  zap.NewNop(),
		metrics: metrics.NewNop(),
		pending: make(map[string]*models.Snapshot),
		wake:    make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w
}

// Submit queues snap for sourceKey and returns immediately. A newer snapshot
// for the same key replaces one that has not been written yet.
func (w *AsyncWriter) Submit(sourceKey string, snap *models.Snapshot) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("snapshot submitted after close", zap.String("source", sourceKey))
		return
	}
	if _, queued := w.pending[sourceKey]; !queued {
		w.order = append(w.order, sourceKey)
	}
	w.pending[sourceKey] = snap
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every snapshot submitted before the call is written
func (w *AsyncWriter) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.flush <- ack:
	case <-w.done:
		return ErrWriterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes everything pending and stops the background goroutine
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
	return nil
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case ack := <-w.flush:
			w.drain()
			close(ack)
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *AsyncWriter) drain() {
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.mu.Unlock()
			return
		}
		key := w.order[0]
		w.order = w.order[1:]
		snap := w.pending[key]
		delete(w.pending, key)
		w.mu.Unlock()

		w.write(key, snap)
	}
}

func (w *AsyncWriter) write(key string, snap *models.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	err := w.store.SavePartitionSnapshot(ctx, key, snap)
	w.metrics.RecordSnapshotWrite(err == nil)
	if err == nil {
		w.logger.Debug("snapshot written", zap.String("source", key))
		return
	}

	w.logger.Warn("snapshot write failed", zap.String("source", key), zap.Error(err))
	if w.notify != nil {
		w.notify(Notice{Op: "save_snapshot", Key: key, Err: err})
	}
}
