package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace groups every phlow metric under one Prometheus namespace,
// grounded on model-collapse-quidditch's pkg/common/metrics/metrics.go
// (component-scoped metric collector built with promauto).
const Namespace = "phlow"

// Metrics is the set of phlow's counters/histograms. The dispatcher updates
// PipelinesTotal and PipelineDuration once per handled request;
// ModuleCallsTotal, ModuleCallErrors and QueueDepth are registered but not
// updated anywhere in this module.
type Metrics struct {
	PipelinesTotal   *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
	ModuleCallsTotal *prometheus.CounterVec
	ModuleCallErrors *prometheus.CounterVec
	QueueDepth       prometheus.Gauge
}

// NewMetrics registers phlow's metrics against reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default global
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PipelinesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pipelines_total",
			Help:      "Number of pipeline runs, labeled by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Pipeline run wall-clock duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		ModuleCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "module_calls_total",
			Help:      "Number of module invocations, labeled by module name.",
		}, []string{"module"}),
		ModuleCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "module_call_errors_total",
			Help:      "Number of module invocations that returned an error.",
		}, []string{"module"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "inbound_queue_depth",
			Help:      "Number of packages currently queued for a worker.",
		}),
	}
}
