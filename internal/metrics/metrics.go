package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder owns the family analysis collectors and the registry they live in.
// A nil *Recorder records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	droppedEdges *prometheus.CounterVec
	graphSize    *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kintrace",
			Name:      "operations_total",
			Help:      "Family analysis operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kintrace",
			Name:      "operation_duration_seconds",
			Help:      "Latency of family analysis operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kintrace",
			Name:      "graph_cache_lookups_total",
			Help:      "Family graph cache lookups by result.",
		}, []string{"result"}),
		droppedEdges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kintrace",
			Name:      "dropped_edges_total",
			Help:      "Relationship edges discarded while building family graphs.",
		}, []string{"reason"}),
		graphSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kintrace",
			Name:      "graph_size",
			Help:      "Individuals and edges of built family graphs.",
			Buckets:   prometheus.ExponentialBuckets(4, 4, 8),
		}, []string{"dimension"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveOperation counts one operation and records its latency.
func (r *Recorder) ObserveOperation(operation string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CacheLookup records a graph cache hit or miss.
func (r *Recorder) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// DroppedEdge counts one discarded relationship edge.
func (r *Recorder) DroppedEdge(reason string) {
	if r == nil {
		return
	}
	r.droppedEdges.WithLabelValues(reason).Inc()
}

// GraphBuilt records the size of a freshly built family graph.
func (r *Recorder) GraphBuilt(individuals, edges int) {
	if r == nil {
		return
	}
	r.graphSize.WithLabelValues("individuals").Observe(float64(individuals))
	r.graphSize.WithLabelValues("edges").Observe(float64(edges))
}
