package chronik

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusRequests       *prometheus.CounterVec
	prometheusRequestSeconds *prometheus.HistogramVec

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xecwallet_chronik_requests_total",
			Help: "Number of requests sent to chronik endpoints",
		},
		[]string{
			"endpoint", // request kind, e.g. "utxos"
			"result",   // ok, error, unavailable
		},
	)
	prometheusRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xecwallet_chronik_request_seconds",
			Help:    "Duration of chronik requests",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"endpoint"},
	)
}
