package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		claimsTotal,
		rescueOffersExpiredTotal,
	)
}

var (
	claimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circle_claims_total",
			Help: "Ownership claim attempts by result.",
		},
		[]string{"result"}, // 'ok', 'error'
	)

	rescueOffersExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rescue_offers_expired_total",
			Help: "Rescue offers expired by the sweep.",
		},
	)
)

func IncClaims(result string) {
	claimsTotal.WithLabelValues(result).Inc()
}

func IncRescueOffersExpired(count int) {
	rescueOffersExpiredTotal.Add(float64(count))
}
