package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		previewCacheTotal,
		previewFetchFailures,
	)
}

var (
	previewCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_preview_cache_total",
			Help: "Link preview cache lookups by outcome.",
		},
		[]string{"outcome"}, // 'hit', 'miss'
	)

	previewFetchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_preview_fetch_failures_total",
			Help: "Outbound preview fetches that timed out or errored.",
		},
	)
)

func IncPreviewCache(outcome string) {
	previewCacheTotal.WithLabelValues(outcome).Inc()
}

func IncPreviewFetchFailure() {
	previewFetchFailures.Inc()
}
