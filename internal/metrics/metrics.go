package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for sitetracker.
// Recording methods are safe to call on a nil registry.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	FleetOperationsTotal *prometheus.CounterVec
	SiteCreditsTotal     *prometheus.CounterVec
	ActiveFleets         prometheus.Gauge
	ActiveMembers        prometheus.Gauge
	PendingClaims        prometheus.Gauge
}

// NewMetricsRegistry creates every metric and registers it with reg.
// Pass prometheus.DefaultRegisterer in the server and a fresh
// prometheus.NewRegistry() in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetracker_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitetracker_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sitetracker_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetracker_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetracker_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Business Metrics
		FleetOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetracker_fleet_operations_total",
				Help: "Fleet lifecycle operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		SiteCreditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetracker_site_credits_total",
				Help: "Site credit transitions by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ActiveFleets: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitetracker_active_fleets",
				Help: "Current number of fleets that have not ended",
			},
		),
		ActiveMembers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitetracker_active_members",
				Help: "Current number of open membership records",
			},
		),
		PendingClaims: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitetracker_pending_claims",
				Help: "Current number of claims awaiting boss approval",
			},
		),
	}
}

// RecordFleetOp counts one fleet lifecycle operation.
func (m *MetricsRegistry) RecordFleetOp(operation, outcome string) {
	if m == nil {
		return
	}
	m.FleetOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordSiteOp counts one site credit operation.
func (m *MetricsRegistry) RecordSiteOp(operation, outcome string) {
	if m == nil {
		return
	}
	m.SiteCreditsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordCache counts a cache lookup for a key pattern.
func (m *MetricsRegistry) RecordCache(pattern string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(pattern).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}

// SetFleetGauges publishes the current fleet population.
func (m *MetricsRegistry) SetFleetGauges(fleets, members, pending int64) {
	if m == nil {
		return
	}
	m.ActiveFleets.Set(float64(fleets))
	m.ActiveMembers.Set(float64(members))
	m.PendingClaims.Set(float64(pending))
}
