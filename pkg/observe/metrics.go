// Package observe exports store and scheduler activity as Prometheus
// metrics.
//
// A *Metrics implements both store.Recorder and scheduler.Observer:
//
//	m := observe.NewMetrics(observe.WithNamespace("app"))
//	rt := store.New(root, store.WithRecorder(m))
//	s := scheduler.New(rt, scheduler.WithObserver(m))
//
// Metrics collected:
//   - <ns>_dependencies_recorded_total: new (path, unit) dependencies
//   - <ns>_staged_writes_total{kind}: writes forwarded to the stage
//   - <ns>_noop_writes_total{kind}: writes skipped as no-ops
//   - <ns>_rejected_operations_total{code}: refused reads and writes
//   - <ns>_commits_total: commits
//   - <ns>_commit_duration_seconds: commit duration including re-renders
//   - <ns>_rerenders_total: renders triggered by commits
//   - <ns>_render_errors_total: renders that returned an error
package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/vango-store/pkg/scheduler"
	"github.com/vango-dev/vango-store/pkg/store"
)

// MetricsConfig configures the metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vango_store").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vango_store",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors.
type Metrics struct {
	dependencies   prometheus.Counter
	stagedWrites   *prometheus.CounterVec
	noopWrites     *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	commits        prometheus.Counter
	commitDuration prometheus.Histogram
	rerenders      prometheus.Counter
	renderErrors   prometheus.Counter
}

// NewMetrics registers the collectors and returns them. Registering twice
// against the same registry panics, as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help, label string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, []string{label})
	}

	return &Metrics{
		dependencies: counter("dependencies_recorded_total", "Total number of dependencies recorded by rendering units"),
		stagedWrites: counterVec("staged_writes_total", "Total number of writes forwarded to the stage", "kind"),
		noopWrites:   counterVec("noop_writes_total", "Total number of writes skipped because they changed nothing", "kind"),
		rejected:     counterVec("rejected_operations_total", "Total number of refused store operations", "code"),
		commits:      counter("commits_total", "Total number of commits"),
		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Commit duration in seconds, including re-renders",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		rerenders:    counter("rerenders_total", "Total number of renders triggered by commits"),
		renderErrors: counter("render_errors_total", "Total number of renders that returned an error"),
	}
}

// DependencyRecorded implements store.Recorder.
func (m *Metrics) DependencyRecorded() {
	m.dependencies.Inc()
}

// WriteStaged implements store.Recorder.
func (m *Metrics) WriteStaged(op store.Op) {
	m.stagedWrites.WithLabelValues(op.String()).Inc()
}

// WriteSkipped implements store.Recorder.
func (m *Metrics) WriteSkipped(op store.Op) {
	m.noopWrites.WithLabelValues(op.String()).Inc()
}

// Rejected implements store.Recorder.
func (m *Metrics) Rejected(code string) {
	m.rejected.WithLabelValues(code).Inc()
}

// CommitObserved implements scheduler.Observer.
func (m *Metrics) CommitObserved(d time.Duration, _, rerendered int) {
	m.commits.Inc()
	m.commitDuration.Observe(d.Seconds())
	m.rerenders.Add(float64(rerendered))
}

// Rendered implements scheduler.Observer.
func (m *Metrics) Rendered(_ string, err error) {
	if err != nil {
		m.renderErrors.Inc()
	}
}

var (
	_ store.Recorder     = (*Metrics)(nil)
	_ scheduler.Observer = (*Metrics)(nil)
)
