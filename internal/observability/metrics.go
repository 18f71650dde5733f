// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing setup shared across services.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Tripforge.
// Pass to components that need to record metrics.
type Metrics struct {
	SearchesTotal     *prometheus.CounterVec
	SearchDuration    *prometheus.HistogramVec
	FallbacksTotal    *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
	BookingsTotal     *prometheus.CounterVec
	PolicyEvaluations *prometheus.CounterVec
	AuditDropsTotal   prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		SearchesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tripforge",
				Name:      "searches_total",
				Help:      "Total flight searches by provider and outcome",
			},
			[]string{"provider", "outcome"}, // outcome=ok/error
		),
		SearchDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tripforge",
				Name:      "search_duration_seconds",
				Help:      "Provider search duration in seconds",
				Buckets:   prometheus.DefBuckets, // 5ms to 10s
			},
			[]string{"provider"},
		),
		FallbacksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tripforge",
				Name:      "fallbacks_total",
				Help:      "Total searches served by the fallback provider",
			},
			[]string{"from", "to"},
		),
		CacheLookupsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tripforge",
				Name:      "search_cache_lookups_total",
				Help:      "Search cache lookups by result",
			},
			[]string{"result"}, // result=hit/miss
		),
		BookingsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tripforge",
				Name:      "bookings_total",
				Help:      "Total booking attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		PolicyEvaluations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tripforge",
				Name:      "policy_evaluations_total",
				Help:      "Total compliance evaluations",
			},
			[]string{"result"}, // result=allow/deny/needs_approval
		),
		AuditDropsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "tripforge",
				Name:      "audit_drops_total",
				Help:      "Total audit records dropped due to backpressure",
			},
		),
	}
}
