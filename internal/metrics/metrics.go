package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gamelens"

// Breaker states as reported by the source guard.
var breakerStates = []string{"closed", "half-open", "open"}

// Recorder implements the observer interfaces of the sources guard, the API
// client cache and the search orchestrator.
type Recorder struct {
	registry *prometheus.Registry

	sourceCalls     *prometheus.CounterVec
	sourceDuration  *prometheus.HistogramVec
	breakerState    *prometheus.GaugeVec
	cacheLookups    *prometheus.CounterVec
	searches        prometheus.Counter
	searchDuration  prometheus.Histogram
	searchCandidate prometheus.Histogram
	mergedGroups    prometheus.Histogram
	mergedAway      prometheus.Counter
	searchReturned  prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sourceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_calls_total",
			Help:      "Source adapter calls by operation and outcome",
		}, []string{"source", "operation", "outcome"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_call_duration_seconds",
			Help:      "Source adapter call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "operation"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_breaker_state",
			Help:      "Circuit breaker state per source (1 for the current state)",
		}, []string{"source", "state"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_lookups_total",
			Help:      "Response cache lookups by source and result",
		}, []string{"source", "result"}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Completed searches",
		}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		searchCandidate: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates",
			Help:      "Raw records returned by all sources per search",
			Buckets:   prometheus.LinearBuckets(0, 10, 8),
		}),
		mergedGroups: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_groups",
			Help:      "Merged groups per search",
			Buckets:   prometheus.LinearBuckets(0, 5, 8),
		}),
		mergedAway: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merged_records_total",
			Help:      "Relevant records folded into another record's group",
		}),
		searchReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Results returned per search",
			Buckets:   prometheus.LinearBuckets(0, 5, 6),
		}),
	}
	r.registry.MustRegister(
		r.sourceCalls,
		r.sourceDuration,
		r.breakerState,
		r.cacheLookups,
		r.searches,
		r.searchDuration,
		r.searchCandidate,
		r.mergedGroups,
		r.mergedAway,
		r.searchReturned,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSourceCall records one guarded adapter call.
func (r *Recorder) ObserveSourceCall(source, operation, outcome string, elapsed time.Duration) {
	r.sourceCalls.WithLabelValues(source, operation, outcome).Inc()
	r.sourceDuration.WithLabelValues(source, operation).Observe(elapsed.Seconds())
}

// SetBreakerState marks state as current for source and clears the others.
func (r *Recorder) SetBreakerState(source, state string) {
	for _, s := range breakerStates {
		value := 0.0
		if s == state {
			value = 1
		}
		r.breakerState.WithLabelValues(source, s).Set(value)
	}
}

// ObserveCache records a response cache lookup.
func (r *Recorder) ObserveCache(source string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(source, result).Inc()
}

// ObserveSearch records the funnel of one search.
func (r *Recorder) ObserveSearch(candidates, relevant, groups, returned int, elapsed time.Duration) {
	r.searches.Inc()
	r.searchDuration.Observe(elapsed.Seconds())
	r.searchCandidate.Observe(float64(candidates))
	r.mergedGroups.Observe(float64(groups))
	if relevant > groups {
		r.mergedAway.Add(float64(relevant - groups))
	}
	r.searchReturned.Observe(float64(returned))
}

// WriteTextfile writes the registry to path, creating parent directories.
// The write goes through a temporary file so a collector never reads a
// partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
