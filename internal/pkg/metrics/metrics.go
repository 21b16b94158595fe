// Package metrics exposes the dispatcher's Prometheus collectors on a private
// registry served at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fulfillment"

// Metrics holds every collector of the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	OrdersDispatched   *prometheus.CounterVec
	DispatchesRejected *prometheus.CounterVec
	StagesRecorded     *prometheus.CounterVec
	StagesDropped      *prometheus.CounterVec
	TransitionsArmed   prometheus.Gauge

	EventsPublished     *prometheus.CounterVec
	EventsUnpublished   *prometheus.CounterVec
	PublishDuration     prometheus.Histogram
	CircuitBreakerState *prometheus.GaugeVec

	DirectorySites     *prometheus.GaugeVec
	DirectoryRefreshes *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	m.OrdersDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_dispatched_total",
			Help:      "Orders dispatched, by assigned facility",
		},
		[]string{"facility"},
	)

	m.DispatchesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_rejected_total",
			Help:      "Dispatch requests rejected, by error kind",
		},
		[]string{"kind"},
	)

	m.StagesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_recorded_total",
			Help:      "Stage events appended to the status ledger",
		},
		[]string{"stage"},
	)

	m.StagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_dropped_total",
			Help:      "Fired transitions that could not be recorded",
		},
		[]string{"stage"},
	)

	m.TransitionsArmed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transitions_armed",
			Help:      "Stage transitions waiting in the scheduler",
		},
	)

	m.EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_events_published_total",
			Help:      "Stage events handed to the broker",
		},
		[]string{"stage", "status"},
	)

	m.EventsUnpublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_events_unpublished_total",
			Help:      "Recorded stage events that never reached the broker",
		},
		[]string{"stage"},
	)

	m.PublishDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_event_publish_duration_seconds",
			Help:      "Stage event publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	m.DirectorySites = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "directory_sites",
			Help:      "Sites in the current directory snapshot, by kind",
		},
		[]string{"kind"},
	)

	m.DirectoryRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_refreshes_total",
			Help:      "Directory reloads, by outcome",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.OrdersDispatched,
		m.DispatchesRejected,
		m.StagesRecorded,
		m.StagesDropped,
		m.TransitionsArmed,
		m.EventsPublished,
		m.EventsUnpublished,
		m.PublishDuration,
		m.CircuitBreakerState,
		m.DirectorySites,
		m.DirectoryRefreshes,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

func (m *Metrics) OrderDispatched(facility string) {
	m.OrdersDispatched.WithLabelValues(facility).Inc()
}

func (m *Metrics) DispatchRejected(kind string) {
	m.DispatchesRejected.WithLabelValues(kind).Inc()
}

func (m *Metrics) StageRecorded(stage string) {
	m.StagesRecorded.WithLabelValues(stage).Inc()
}

func (m *Metrics) StageDropped(stage string) {
	m.StagesDropped.WithLabelValues(stage).Inc()
}

func (m *Metrics) StagePublishFailed(stage string) {
	m.EventsUnpublished.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordPublish(stage string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.EventsPublished.WithLabelValues(stage, status).Inc()
	m.PublishDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetTransitionsArmed(n int) {
	m.TransitionsArmed.Set(float64(n))
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) SetDirectorySites(kind string, n int) {
	m.DirectorySites.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) RecordDirectoryRefresh(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.DirectoryRefreshes.WithLabelValues(status).Inc()
}
