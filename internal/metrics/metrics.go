package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors. A fresh registry per
// instance keeps tests free of duplicate-registration panics.
type Metrics struct {
	Registry *prometheus.Registry

	Transitions  *prometheus.CounterVec
	Rejections   *prometheus.CounterVec
	SummaryJobs  prometheus.Counter
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
	}

	m.Transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drms",
		Name:      "verification_transitions_total",
		Help:      "Verification state transitions by record kind and target state",
	}, []string{"kind", "to"})
	m.Rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drms",
		Name:      "rejections_total",
		Help:      "Rejections by reason code",
	}, []string{"kind", "reason"})
	m.SummaryJobs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "drms",
		Name:      "gap_summary_jobs_total",
		Help:      "Gap summary recompute jobs processed",
	})
	m.HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drms",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})
	m.HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "drms",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	m.Registry.MustRegister(m.Transitions, m.Rejections, m.SummaryJobs, m.HTTPRequests, m.HTTPDuration)
	return m
}
