// Package metrics holds the Prometheus collectors shared by the server and
// the worker.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linker"

// Outcome labels for lookups.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	AnnotatedTotal prometheus.Counter
	MessagesTotal  *prometheus.CounterVec
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Lookups by operation and outcome.",
		}, []string{"operation", "outcome"}),
		LookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Lookup latency by operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation"}),
		AnnotatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotated_mentions_total",
			Help:      "Mentions passed through the annotator.",
		}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_messages_total",
			Help:      "Queue messages by queue and result.",
		}, []string{"queue", "result"}),
	}
	m.registry.MustRegister(
		m.Lookups,
		m.LookupDuration,
		m.AnnotatedTotal,
		m.MessagesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one lookup. A nil receiver is a no-op so callers can run
// without metrics.
func (m *Metrics) Observe(operation string, start time.Time, found bool, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeNotFound
	switch {
	case err != nil:
		outcome = OutcomeError
	case found:
		outcome = OutcomeFound
	}
	m.Lookups.WithLabelValues(operation, outcome).Inc()
	m.LookupDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Message(queue, result string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(queue, result).Inc()
}

func (m *Metrics) Annotated(n int) {
	if m == nil {
		return
	}
	m.AnnotatedTotal.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
