package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveHTTP("POST", "/api/graphql", 200, 20*time.Millisecond)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)
	m.GraphQLField("createOrder", nil)
	m.GraphQLField("createOrder", errors.New("boom"))
	m.OrderCreated(true)
	m.OrderCreated(false)
	m.InventoryAdjusted(-3)
	m.InventoryAdjusted(10)
	m.PaymentEvent("webhook", "paid")
	m.RateLimited("events")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/graphql", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphqlFields.WithLabelValues("createOrder", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.couponRedemptions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inventoryAdjusts.WithLabelValues("out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentEvents.WithLabelValues("webhook", "paid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("events")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", 200, time.Second)
		m.GraphQLField("x", nil)
		m.OrderCreated(true)
		m.InventoryAdjusted(1)
		m.PaymentEvent("create", "ok")
		m.RateLimited("events")
	})
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), 2*time.Millisecond)
}
