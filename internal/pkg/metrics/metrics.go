package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors. A nil *Metrics is
// safe to use everywhere; the recording helpers just no-op, which keeps
// tests free of registry bookkeeping.
type Metrics struct {
	OrdersCreated     prometheus.Counter
	UpdateOutcomes    *prometheus.CounterVec
	OutboxDeliveries  *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPLatencyMillis *prometheus.HistogramVec
}

// New registers the collectors on the default registry. Call once at boot.
func New(service string) *Metrics {
	return NewWithRegistry(service, prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on the given registerer. Tests
// pass a fresh registry so they never collide with the default one.
func NewWithRegistry(service string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordersvc",
			Subsystem: service,
			Name:      "orders_created_total",
			Help:      "Total number of orders persisted.",
		}),
		UpdateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordersvc",
			Subsystem: service,
			Name:      "update_outcomes_total",
			Help:      "Update-message handling outcomes.",
		}, []string{"outcome"}),
		OutboxDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordersvc",
			Subsystem: service,
			Name:      "outbox_deliveries_total",
			Help:      "Outbox relay delivery attempts.",
		}, []string{"channel", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordersvc",
			Subsystem: service,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		HTTPLatencyMillis: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ordersvc",
			Subsystem: service,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
	}
	reg.MustRegister(m.OrdersCreated, m.UpdateOutcomes, m.OutboxDeliveries,
		m.HTTPRequests, m.HTTPLatencyMillis)
	return m
}

// OrderCreated records one persisted order.
func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

// UpdateOutcome records one handled update message by outcome label.
func (m *Metrics) UpdateOutcome(outcome string) {
	if m == nil {
		return
	}
	m.UpdateOutcomes.WithLabelValues(outcome).Inc()
}

// OutboxDelivery records one relay attempt for a channel.
func (m *Metrics) OutboxDelivery(channel string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.OutboxDeliveries.WithLabelValues(channel, result).Inc()
}

// HTTPRequest records one served request with its route, status and latency.
func (m *Metrics) HTTPRequest(handler string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
	m.HTTPLatencyMillis.WithLabelValues(handler).Observe(float64(elapsed.Milliseconds()))
}

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
