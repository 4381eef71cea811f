package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records order creation and risk outcomes.
type CheckoutMetrics struct {
	orders    *prometheus.CounterVec
	riskScore *prometheus.HistogramVec
	rules     *prometheus.CounterVec
	discounts *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Orders created at checkout by resulting status.",
	}, []string{"status"})
	riskScore := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_risk_score",
		Help:    "Suspicion score assigned to checked out carts.",
		Buckets: prometheus.LinearBuckets(0, 1, 14),
	}, []string{"status"})
	rules := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_risk_rule_triggered_total",
		Help: "Risk rules triggered at checkout.",
	}, []string{"rule"})
	discounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_discount_amount_total",
		Help: "Discount amount granted at checkout by source.",
	}, []string{"source"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Time spent placing an order.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(orders, riskScore, rules, discounts, duration)
	return &CheckoutMetrics{
		orders:    orders,
		riskScore: riskScore,
		rules:     rules,
		discounts: discounts,
		duration:  duration,
	}
}

// ObserveOrder records the status and risk verdict of a placed order.
func (c *CheckoutMetrics) ObserveOrder(status string, score int, triggered []string) {
	if c == nil || c.orders == nil {
		return
	}
	status = normalizeLabel(status)
	c.orders.WithLabelValues(status).Inc()
	c.riskScore.WithLabelValues(status).Observe(float64(score))
	for _, rule := range triggered {
		c.rules.WithLabelValues(normalizeLabel(rule)).Inc()
	}
}

// AddDiscount accumulates a granted discount. Non-positive amounts are ignored.
func (c *CheckoutMetrics) AddDiscount(source string, amount float64) {
	if c == nil || c.discounts == nil || amount <= 0 {
		return
	}
	c.discounts.WithLabelValues(normalizeLabel(source)).Add(amount)
}

// ObserveDuration records how long a checkout attempt took.
func (c *CheckoutMetrics) ObserveDuration(outcome string, d time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
