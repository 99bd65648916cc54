// ABOUTME: Prometheus-backed metrics collector and /metrics HTTP server
// ABOUTME: Registers tierworks counters lazily on first use
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harper/tierworks/internal/models"
)

// PrometheusCollector implements Collector backed by Prometheus
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	moves         *prometheus.CounterVec
	assigns       *prometheus.CounterVec
	skips         prometheus.Counter
	clearedItems  *prometheus.CounterVec
	snapshotWrite *prometheus.CounterVec
	syncFailures  *prometheus.CounterVec
	posterLookups *prometheus.CounterVec
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus creates a Prometheus collector. A nil registerer uses the
// default registry; an empty namespace becomes "tierworks".
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "tierworks"
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.moves = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "session",
			Name:      "moves_total",
			Help:      "Move requests by source bucket, destination bucket and whether anything changed.",
		}, []string{"from", "to", "moved"})
		p.assigns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "session",
			Name:      "assigns_total",
			Help:      "Selected items assigned to a tier.",
		}, []string{"tier"})
		p.skips = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "session",
			Name:      "skips_total",
			Help:      "Selected items deferred to the end of the queue.",
		})
		p.clearedItems = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "session",
			Name:      "cleared_items_total",
			Help:      "Items returned to the pool by clearing a tier.",
		}, []string{"tier"})
		p.snapshotWrite = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "storage",
			Name:      "snapshot_writes_total",
			Help:      "Partition snapshot writes by result.",
		}, []string{"ok"})
		p.syncFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "storage",
			Name:      "sync_failures_total",
			Help:      "Remote sync failures by operation.",
		}, []string{"op"})
		p.posterLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "poster",
			Name:      "lookups_total",
			Help:      "Poster lookups by outcome.",
		}, []string{"outcome"})

		p.reg.MustRegister(p.moves, p.assigns, p.skips, p.clearedItems,
			p.snapshotWrite, p.syncFailures, p.posterLookups)
	})
}

func (p *PrometheusCollector) RecordMove(from, to models.Bucket, moved bool) {
	p.ensureRegistered()
	p.moves.WithLabelValues(from.String(), to.String(), strconv.FormatBool(moved)).Inc()
}

func (p *PrometheusCollector) RecordAssign(tier models.Bucket) {
	p.ensureRegistered()
	p.assigns.WithLabelValues(tier.String()).Inc()
}

func (p *PrometheusCollector) RecordSkip() {
	p.ensureRegistered()
	p.skips.Inc()
}

func (p *PrometheusCollector) RecordClear(tier models.Bucket, items int) {
	p.ensureRegistered()
	p.clearedItems.WithLabelValues(tier.String()).Add(float64(items))
}

func (p *PrometheusCollector) RecordSnapshotWrite(ok bool) {
	p.ensureRegistered()
	p.snapshotWrite.WithLabelValues(strconv.FormatBool(ok)).Inc()
}

func (p *PrometheusCollector) RecordSyncFailure(op string) {
	p.ensureRegistered()
	p.syncFailures.WithLabelValues(op).Inc()
}

func (p *PrometheusCollector) RecordPosterLookup(outcome string) {
	p.ensureRegistered()
	p.posterLookups.WithLabelValues(outcome).Inc()
}

// Server serves /metrics and /health over HTTP
type Server struct {
	addr     string
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a metrics server. A nil gatherer uses the default registry.
func NewServer(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{addr: addr, gatherer: gatherer, logger: logger}
}

// Start begins serving in the background and shuts down when ctx is done
func (s *Server) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting metrics server", zap.String("addr", s.addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
}
