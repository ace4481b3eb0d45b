package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
	Mutations     *prometheus.CounterVec
}

// NewMetrics registers the cache counters on reg. A nil reg leaves them
// unregistered, which keeps tests independent of the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "list_cache",
			Name:      "hits_total",
			Help:      "List reads served from the cache.",
		}, []string{"key"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "list_cache",
			Name:      "misses_total",
			Help:      "List reads that fetched from the backend.",
		}, []string{"key"}),
		Invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "list_cache",
			Name:      "invalidations_total",
			Help:      "List cache invalidations.",
		}, []string{"key"}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "admin",
			Name:      "mutations_total",
			Help:      "Successful create, update and delete calls.",
		}, []string{"resource", "action"}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Invalidations, m.Mutations)
	}
	return m
}

func (m *Metrics) hit(key string) {
	if m != nil {
		m.Hits.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) miss(key string) {
	if m != nil {
		m.Misses.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) invalidated(key string) {
	if m != nil {
		m.Invalidations.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) mutated(resource, action string) {
	if m != nil {
		m.Mutations.WithLabelValues(resource, action).Inc()
	}
}
