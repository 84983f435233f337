package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Forecast provider call rate. Watch for: error vs success ratio.
	ProviderCallsTotal *prometheus.CounterVec

	// Provider latency per request. Watch for: p95 > 2s (upstream degradation), p99 > 5s (timeout risk).
	ProviderCallDuration *prometheus.HistogramVec

	// Store query rate by operation. Watch for: error ratio per operation.
	StoreQueriesTotal *prometheus.CounterVec

	// Wall time of one full aggregation pass (all locations for one user).
	AggregationDuration prometheus.Histogram

	// Locations per aggregation pass. Bounded by the per-user cap.
	AggregationLocations prometheus.Histogram

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Circuit breaker transitions by component and edge.
	circuitBreakerTransitionsTotal *prometheus.CounterVec

	// Circuit breaker state gauge: 0 closed, 1 open, 2 half-open.
	circuitBreakerState *prometheus.GaugeVec

	// In-flight requests remaining when shutdown drain gave up.
	shutdownInFlight prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total number of forecast provider calls",
		},
		[]string{"status"},
	)
	ProviderCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "providerCallDurationSeconds",
			Help:    "Forecast provider latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	StoreQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeQueriesTotal",
			Help: "Total number of persistence queries",
		},
		[]string{"operation", "status"},
	)
	AggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastAggregationDurationSeconds",
			Help:    "Wall time of one aggregation pass across all of a user's locations",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
	)
	AggregationLocations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastAggregationLocations",
			Help:    "Number of locations per aggregation pass",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by the rate limiter",
		},
	)
	circuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open",
		},
		[]string{"component"},
	)
	shutdownInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutdownInFlightRequests",
			Help: "In-flight requests observed when graceful shutdown began",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		ProviderCallsTotal,
		ProviderCallDuration,
		StoreQueriesTotal,
		AggregationDuration,
		AggregationLocations,
		RateLimitDeniedTotal,
		circuitBreakerTransitionsTotal,
		circuitBreakerState,
		shutdownInFlight,
	)
}

// MetricsHandler returns the HTTP handler serving the /metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// RecordStoreQuery records one persistence query outcome.
func RecordStoreQuery(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreQueriesTotal.WithLabelValues(operation, status).Inc()
}

// RecordCircuitBreakerTransition records a state transition for a component.
func RecordCircuitBreakerTransition(component, from, to string) {
	circuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
}

// SetCircuitBreakerStateGauge sets the current breaker state for a component.
func SetCircuitBreakerStateGauge(component string, state float64) {
	circuitBreakerState.WithLabelValues(component).Set(state)
}

// CircuitBreakerStateValue converts a breaker state enum to its gauge value.
func CircuitBreakerStateValue(state int) float64 {
	return float64(state)
}

// RecordShutdownInFlight records the in-flight count at shutdown start.
func RecordShutdownInFlight(count int64) {
	shutdownInFlight.Set(float64(count))
}
