// Package metrics holds the Prometheus collectors the API exports on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "azbeauty"

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	graphqlFields     *prometheus.CounterVec
	ordersCreated     prometheus.Counter
	couponRedemptions prometheus.Counter
	inventoryAdjusts  *prometheus.CounterVec
	paymentEvents     *prometheus.CounterVec
	rateLimited       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		graphqlFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "graphql_fields_total",
			Help: "Resolved GraphQL root fields by outcome.",
		}, []string{"field", "outcome"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_created_total",
			Help: "Orders committed at checkout.",
		}),
		couponRedemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "coupon_redemptions_total",
			Help: "Coupons applied to committed orders.",
		}),
		inventoryAdjusts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "inventory_adjustments_total",
			Help: "Stock adjustments by direction.",
		}, []string{"direction"}),
		paymentEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payment_events_total",
			Help: "Payment lifecycle events by kind and status.",
		}, []string{"event", "status"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		}, []string{"scope"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.httpRequests, m.httpDuration, m.graphqlFields, m.ordersCreated,
			m.couponRedemptions, m.inventoryAdjusts, m.paymentEvents, m.rateLimited,
		)
	}
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) GraphQLField(field string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.graphqlFields.WithLabelValues(field, outcome).Inc()
}

func (m *Metrics) OrderCreated(couponApplied bool) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	if couponApplied {
		m.couponRedemptions.Inc()
	}
}

func (m *Metrics) InventoryAdjusted(delta int) {
	if m == nil {
		return
	}
	direction := "in"
	if delta < 0 {
		direction = "out"
	}
	m.inventoryAdjusts.WithLabelValues(direction).Inc()
}

// PaymentEvent counts invoice creations and webhook deliveries.
func (m *Metrics) PaymentEvent(event, status string) {
	if m == nil {
		return
	}
	m.paymentEvents.WithLabelValues(event, status).Inc()
}

func (m *Metrics) RateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(scope).Inc()
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
