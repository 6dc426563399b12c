package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	sideEffects     *prometheus.CounterVec
	eventsDropped   prometheus.Counter
}

// NewMetrics builds collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP error responses by error kind.",
		}, []string{"method", "route", "kind"}),
		sideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "side_effects_total",
			Help: "Side-effect handler invocations by outcome.",
		}, []string{"handler", "outcome"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "side_effect_events_dropped_total",
			Help: "Events discarded because the outbox queue was full or closed.",
		}),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.sideEffects,
		m.eventsDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for the scrape handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest observes a completed request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, kind string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, route, kind).Inc()
}

// RecordSideEffect counts a handler outcome: ok, error or panic.
func (m *Metrics) RecordSideEffect(handler, outcome string) {
	if m == nil {
		return
	}
	m.sideEffects.WithLabelValues(handler, outcome).Inc()
}

// RecordDroppedEvent counts an event the outbox could not accept.
func (m *Metrics) RecordDroppedEvent() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

// ObservePool exports connection pool gauges read from stats at scrape time.
func (m *Metrics) ObservePool(stats func() (total, idle, acquired int32)) {
	if m == nil || stats == nil {
		return
	}
	gauge := func(name, help string, pick func(total, idle, acquired int32) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return float64(pick(stats()))
		})
	}
	m.registry.MustRegister(
		gauge("db_pool_connections_total", "Open connections in the Postgres pool.", func(t, _, _ int32) int32 { return t }),
		gauge("db_pool_connections_idle", "Idle connections in the Postgres pool.", func(_, i, _ int32) int32 { return i }),
		gauge("db_pool_connections_acquired", "Connections currently checked out.", func(_, _, a int32) int32 { return a }),
	)
}
