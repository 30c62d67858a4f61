package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Assignment outcome labels.
const (
	OutcomeAssigned = "assigned"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

var (
	registry = prometheus.NewRegistry()

	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "batching",
		Name:      "operation_duration_seconds",
		Help:      "Duration of timed planner and adapter operations.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"op"})

	batchesPlanned = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "batching",
		Name:      "batch_size_orders",
		Help:      "Number of orders in each planned batch.",
		Buckets:   prometheus.LinearBuckets(1, 1, 6),
	})

	assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "batching",
		Name:      "assignments_total",
		Help:      "Order assignment attempts by outcome.",
	}, []string{"outcome"})

	poolCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "batching",
		Name:      "pool_cache_requests_total",
		Help:      "Availability pool cache lookups by result.",
	}, []string{"result"})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "batching",
		Name:      "events_published_total",
		Help:      "Delivery events published by type and result.",
	}, []string{"type", "result"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		operationDuration,
		batchesPlanned,
		assignments,
		poolCache,
		eventsPublished,
	)
}

// ObserveBatchSize records the size of one planned batch.
func ObserveBatchSize(n int) {
	batchesPlanned.Observe(float64(n))
}

// CountAssignment records one assignment attempt outcome.
func CountAssignment(outcome string) {
	assignments.WithLabelValues(outcome).Inc()
}

// CountCache records a pool cache hit or miss.
func CountCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	poolCache.WithLabelValues(result).Inc()
}

// CountEvent records one publish attempt.
func CountEvent(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventsPublished.WithLabelValues(eventType, result).Inc()
}

// Registry exposes the collector registry, mainly for tests.
func Registry() *prometheus.Registry { return registry }

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
