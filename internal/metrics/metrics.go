// Package metrics holds the Prometheus collectors the server exports on /metrics.
//
// Collectors are created per Metrics value and registered on the registry the
// caller passes in, so each test server gets a fresh set.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medassoc"

type Metrics struct {
	Requests         *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	Logins           *prometheus.CounterVec
	Uploads          *prometheus.CounterVec
	ThrottleAllowed  *prometheus.CounterVec
	ThrottleRejected *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg. When reg is also a
// Gatherer (a *prometheus.Registry is), Handler exposes exactly what was
// registered here.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by method and route.", Buckets: prometheus.DefBuckets},
			[]string{"method", "route"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "logins_total", Help: "Login attempts by result."},
			[]string{"result"},
		),
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "uploads_total", Help: "Upload attempts by result."},
			[]string{"result"},
		),
		ThrottleAllowed: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "throttle_allowed_total", Help: "Requests let through by the login throttle, by limiter type."},
			[]string{"limiter"},
		),
		ThrottleRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "throttle_rejected_total", Help: "Requests rejected by the login throttle, by limiter type."},
			[]string{"limiter"},
		),
		gatherer: prometheus.DefaultGatherer,
	}

	reg.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.Logins,
		m.Uploads,
		m.ThrottleAllowed,
		m.ThrottleRejected,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// LoginResult is "success" or "failure".
func (m *Metrics) LoginResult(ok bool) {
	if ok {
		m.Logins.WithLabelValues("success").Inc()
		return
	}
	m.Logins.WithLabelValues("failure").Inc()
}

// UploadResult is "stored", "rejected" (client error) or "failed" (server error).
func (m *Metrics) UploadResult(result string) {
	m.Uploads.WithLabelValues(result).Inc()
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
