package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authAttempts        *prometheus.CounterVec
	authzDecisions      *prometheus.CounterVec
	ordersCreated       prometheus.Counter
	ordersRejected      *prometheus.CounterVec
	orderAmount         prometheus.Histogram
}

// New registers the collectors on reg under prefix. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(prefix string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		authAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Login and token checks by result",
			},
			[]string{"kind", "result"},
		),
		authzDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_authz_decisions_total",
				Help: "Permission checks by resource, action and outcome",
			},
			[]string{"resource", "action", "allowed"},
		),
		ordersCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_orders_created_total",
				Help: "Orders committed",
			},
		),
		ordersRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_orders_rejected_total",
				Help: "Order creations rolled back, by reason",
			},
			[]string{"reason"},
		),
		orderAmount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_order_total_amount",
				Help:    "Total amount of committed orders",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
	}
}

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

// AuthAttempt counts a login ("login") or bearer check ("token").
func (m *Metrics) AuthAttempt(kind string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.authAttempts.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) AuthzDecision(resource, action string, allowed bool) {
	if m == nil {
		return
	}
	m.authzDecisions.WithLabelValues(resource, action, strconv.FormatBool(allowed)).Inc()
}

func (m *Metrics) OrderCreated(total float64) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	m.orderAmount.Observe(total)
}

func (m *Metrics) OrderRejected(reason string) {
	if m == nil {
		return
	}
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
