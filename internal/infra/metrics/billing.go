package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		billingOpsTotal,
		billingOpLatency,
	)
}

var (
	billingOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_ops_total",
			Help: "Billing bridge operations by endpoint and result.",
		},
		[]string{"op", "result"},
	)

	billingOpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billing_op_latency_ms",
			Help:    "Billing bridge operation latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"op"},
	)
)

func IncBillingOp(op, result string) {
	billingOpsTotal.WithLabelValues(op, result).Inc()
}

func ObserveBillingOpLatency(op string, ms float64) {
	billingOpLatency.WithLabelValues(op).Observe(ms)
}
