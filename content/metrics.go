package content

import (
	"context"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/logging"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "aggregator"

// Request outcomes.
const (
	outcomeOK         = "ok"
	outcomeNotFound   = "not_found"
	outcomeOverloaded = "overloaded"
	outcomeDenied     = "denied"
	outcomeError      = "error"
)

// Metrics holds the manager's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	generations   *prometheus.HistogramVec
	mergeHits     *prometheus.CounterVec
	mergeMisses   *prometheus.CounterVec
	nfcHits       prometheus.Counter
	invalidations prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, nfcLen func() int, logger *logging.Logger) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Content requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Content request latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		generations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent generating merged content.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"generator", "status"}),
		mergeHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "merge_cache_hits_total",
			Help:      "Merged content served from the group cache.",
		}, []string{"generator"}),
		mergeMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "merge_cache_misses_total",
			Help:      "Merged content requests that required generation.",
		}, []string{"generator"}),
		nfcHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "nfc_hits_total",
			Help:      "Lookups answered by the not-found cache.",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "invalidations_total",
			Help:      "Merged artifacts cleared by the invalidation cascade.",
		}),
	}

	collectors := []prometheus.Collector{
		m.requests, m.duration, m.generations, m.mergeHits, m.mergeMisses, m.nfcHits, m.invalidations,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "nfc_entries",
			Help:      "Entries held by the not-found cache.",
		}, func() float64 { return float64(nfcLen()) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			logger.Warn(context.Background(), "failed to register content metric", "error", err)
		}
	}
	return m
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.IsNotFound(err):
		return outcomeNotFound
	case errors.IsOverloaded(err):
		return outcomeOverloaded
	case errors.IsPolicyDenied(err), errors.IsSuitability(err):
		return outcomeDenied
	}
	return outcomeError
}

func (m *Metrics) observeRequest(op logging.Operation, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(op), outcome(err)).Inc()
	m.duration.WithLabelValues(string(op)).Observe(d.Seconds())
}

func (m *Metrics) nfcHit() {
	if m != nil {
		m.nfcHits.Inc()
	}
}

func (m *Metrics) invalidated() {
	if m != nil {
		m.invalidations.Inc()
	}
}

// MergeHit implements generator.Observer.
func (m *Metrics) MergeHit(name string) {
	if m != nil {
		m.mergeHits.WithLabelValues(name).Inc()
	}
}

// MergeMiss implements generator.Observer.
func (m *Metrics) MergeMiss(name string) {
	if m != nil {
		m.mergeMisses.WithLabelValues(name).Inc()
	}
}

// Generated implements generator.Observer.
func (m *Metrics) Generated(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.generations.WithLabelValues(name, status).Observe(d.Seconds())
}
