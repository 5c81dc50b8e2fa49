package metric

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mdkeep"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Backup metrics
	BackupsCreated  prometheus.Counter
	BackupsFailed   *prometheus.CounterVec
	BackupsPruned   prometheus.Counter
	BackupsRestored prometheus.Counter
	BackupDuration  prometheus.Histogram

	// Transfer metrics
	Exports prometheus.Counter
	Imports *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,

		BackupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "created_total",
			Help:      "Backups created",
		}),
		BackupsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "failures_total",
			Help:      "Failed backup operations by operation",
		}, []string{"op"}),
		BackupsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "pruned_total",
			Help:      "Backups removed by retention",
		}),
		BackupsRestored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "restored_total",
			Help:      "Backups restored into the editor state",
		}),
		BackupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backup",
			Name:      "duration_seconds",
			Help:      "Time to capture, store and prune one backup",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),

		Exports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "exports_total",
			Help:      "Export files produced",
		}),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "imports_total",
			Help:      "Import attempts by result",
		}, []string{"result"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		r.BackupsCreated,
		r.BackupsFailed,
		r.BackupsPruned,
		r.BackupsRestored,
		r.BackupDuration,
		r.Exports,
		r.Imports,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Registerer returns the underlying registerer for components that own
// their own metrics.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns the /metrics handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// BackupCreated records a successful backup.
func (r *Registry) BackupCreated(elapsed time.Duration) {
	r.BackupsCreated.Inc()
	r.BackupDuration.Observe(elapsed.Seconds())
}

// BackupFailed records a failed backup operation.
func (r *Registry) BackupFailed(op string) {
	r.BackupsFailed.WithLabelValues(op).Inc()
}

// BackupPruned records a backup removed by retention.
func (r *Registry) BackupPruned() {
	r.BackupsPruned.Inc()
}

// BackupRestored records a restore.
func (r *Registry) BackupRestored() {
	r.BackupsRestored.Inc()
}

// ExportFinished records an export.
func (r *Registry) ExportFinished() {
	r.Exports.Inc()
}

// ImportFinished records an import attempt.
func (r *Registry) ImportFinished(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	r.Imports.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
