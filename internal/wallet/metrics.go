package wallet

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBroadcasts      *prometheus.CounterVec
	prometheusBroadcastErrors *prometheus.CounterVec

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xecwallet_tx_broadcast_total",
			Help: "Number of transactions accepted by the indexer",
		},
		[]string{"op"},
	)
	prometheusBroadcastErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xecwallet_tx_broadcast_errors_total",
			Help: "Number of transactions that failed to broadcast",
		},
		[]string{"op"},
	)
}
