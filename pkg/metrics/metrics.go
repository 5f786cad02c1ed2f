// Package metrics exposes the coordinator's Prometheus instrumentation:
// request-lifecycle counters, per-stage duration histograms, and gauges for
// queue depth, dropped events, cache hits and misses, and breaker state.
// Grounded on the teacher's own metrics-less deploy, so the shape here
// follows jordigilh-kubernaut's pkg/metrics convention instead: package-level
// promauto collectors plus small Record* functions, with a /metrics endpoint
// mounted by the caller rather than a standalone server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/burnwise/coordinator/pkg/cache"
)

var (
	RequestsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "burnwise_requests_submitted_total",
		Help: "Burn requests accepted onto the coordinator's work queue.",
	})

	RequestsTerminatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "burnwise_requests_terminated_total",
		Help: "Burn requests reaching a terminal state, by state.",
	}, []string{"state"})

	StageDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "burnwise_stage_duration_seconds",
		Help:    "Per-stage execution time.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	CacheHitsTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "burnwise_cache_hits_total",
		Help: "Cumulative cache hits, by cache.",
	}, []string{"cache"})

	CacheMissesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "burnwise_cache_misses_total",
		Help: "Cumulative cache misses, by cache.",
	}, []string{"cache"})

	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "burnwise_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open), by name.",
	}, []string{"name"})
)

// RecordSubmitted increments the submitted-requests counter (call from
// Coordinator.Submit).
func RecordSubmitted() {
	RequestsSubmittedTotal.Inc()
}

// RecordStageDuration observes a completed stage's wall-clock time.
func RecordStageDuration(stage string, d time.Duration) {
	StageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordTermination increments the terminated-requests counter for state
// ("done", "rejected", or "failed").
func RecordTermination(state string) {
	RequestsTerminatedTotal.WithLabelValues(state).Inc()
}

// NewQueueDepthGauge registers a gauge that calls fn on every scrape.
func NewQueueDepthGauge(fn func() float64) prometheus.GaugeFunc {
	return promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "burnwise_queue_depth",
		Help: "Requests currently waiting to be claimed by a worker.",
	}, fn)
}

// NewEventsDroppedGauge registers a gauge that calls fn on every scrape.
func NewEventsDroppedGauge(fn func() float64) prometheus.GaugeFunc {
	return promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "burnwise_events_dropped_total",
		Help: "Broadcast bus events dropped because a subscriber's buffer was full.",
	}, fn)
}

// StartPoller periodically snapshots cache hit/miss counts and breaker
// states into the gauges above, since neither exposes a push hook. It
// returns once stop is closed.
func StartPoller(interval time.Duration, caches map[string]cache.Cache, breakers *cache.BreakerRegistry, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			pollCaches(caches)
			pollBreakers(breakers)
		}
	}
}

func pollCaches(caches map[string]cache.Cache) {
	for name, c := range caches {
		if c == nil {
			continue
		}
		st := c.Stats()
		CacheHitsTotal.WithLabelValues(name).Set(float64(st.Hits))
		CacheMissesTotal.WithLabelValues(name).Set(float64(st.Misses))
	}
}

func pollBreakers(breakers *cache.BreakerRegistry) {
	if breakers == nil {
		return
	}
	for _, name := range breakers.Names() {
		BreakerState.WithLabelValues(name).Set(breakerStateValue(breakers.State(name)))
	}
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
