package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics は注文・決済まわりのカウンタ。reg が nil なら何も記録しない
type Metrics struct {
	ordersCreated prometheus.Counter
	gatewayCalls  *prometheus.CounterVec
	gatewayTime   *prometheus.HistogramVec
	verifications *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "orders_created_total",
		Help:      "Orders written in pending state.",
	})
	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "gateway_calls_total",
		Help:      "Payment gateway transaction calls by outcome.",
	}, []string{"outcome"})
	gatewayTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Name:      "gateway_call_duration_seconds",
		Help:      "Latency of payment gateway transaction calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Name:      "payment_verifications_total",
		Help:      "Payment verification attempts by result.",
	}, []string{"result"})
	reg.MustRegister(ordersCreated, gatewayCalls, gatewayTime, verifications)
	return &Metrics{
		ordersCreated: ordersCreated,
		gatewayCalls:  gatewayCalls,
		gatewayTime:   gatewayTime,
		verifications: verifications,
	}
}

func (m *Metrics) IncOrdersCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) ObserveGatewayCall(outcome string, d time.Duration) {
	if m == nil || m.gatewayCalls == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.gatewayCalls.WithLabelValues(outcome).Inc()
	m.gatewayTime.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) IncVerification(result string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
