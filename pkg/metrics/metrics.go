// Package metrics exposes Prometheus collectors for A2A dispatch, task
// execution and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "a2a"

// Dispatch outcomes, one per terminal state of the request handler.
const (
	OutcomeSuccess        = "success"
	OutcomeNotInitialized = "not_initialized"
	OutcomeNotFound       = "not_found"
	OutcomeInvalid        = "invalid_parameters"
	OutcomeFailed         = "failed"
)

// Recorder observes protocol traffic. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveDispatch(capabilityID, outcome string, elapsed time.Duration)
	ObserveTask(action string, success bool)
	ObserveHTTP(route, method string, status int, elapsed time.Duration)
	SetCapabilities(n int)
}

// NoopRecorder discards every observation (METRICS_ENABLED=false).
type NoopRecorder struct{}

func (NoopRecorder) ObserveDispatch(string, string, time.Duration) {}
func (NoopRecorder) ObserveTask(string, bool) {}
func (NoopRecorder) ObserveHTTP(string, string, int, time.Duration) {}
func (NoopRecorder) SetCapabilities(int) {}

// PrometheusRecorder records into its own registry, served by Handler.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	tasksTotal       *prometheus.CounterVec
	httpTotal        *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	capabilities     prometheus.Gauge
}

// NewPrometheusRecorder creates the collectors and registers them, together
// with the Go runtime and process collectors, on a fresh registry.
func NewPrometheusRecorder(agentID string) *PrometheusRecorder {
	constLabels := prometheus.Labels{"agent_id": agentID}
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "requests_total",
			Help:        "A2A requests handled, by capability and outcome.",
			ConstLabels: constLabels,
		}, []string{"capability_id", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "request_duration_seconds",
			Help:        "A2A request handling time, by capability.",
			ConstLabels: constLabels,
			Buckets:     []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"capability_id"}),
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tasks_total",
			Help:        "Agent-protocol tasks executed, by action and status.",
			ConstLabels: constLabels,
		}, []string{"action", "status"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "HTTP requests served, by route, method and status code.",
			ConstLabels: constLabels,
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency, by route.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route"}),
		capabilities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "capabilities_registered",
			Help:        "Capabilities currently registered.",
			ConstLabels: constLabels,
		}),
	}
	r.registry.MustRegister(
		r.dispatchTotal,
		r.dispatchDuration,
		r.tasksTotal,
		r.httpTotal,
		r.httpDuration,
		r.capabilities,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveDispatch counts one handled request and its latency.
func (r *PrometheusRecorder) ObserveDispatch(capabilityID, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.dispatchTotal.WithLabelValues(capabilityID, outcome).Inc()
	r.dispatchDuration.WithLabelValues(capabilityID).Observe(elapsed.Seconds())
}

// ObserveTask counts one executed task.
func (r *PrometheusRecorder) ObserveTask(action string, success bool) {
	if r == nil {
		return
	}
	status := "completed"
	if !success {
		status = "failed"
	}
	r.tasksTotal.WithLabelValues(action, status).Inc()
}

// ObserveHTTP counts one served HTTP request. route should be the router
// pattern, not the raw path, to keep label cardinality bounded.
func (r *PrometheusRecorder) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.httpTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetCapabilities records the current registry size.
func (r *PrometheusRecorder) SetCapabilities(n int) {
	if r == nil {
		return
	}
	r.capabilities.Set(float64(n))
}

// Registry returns the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
