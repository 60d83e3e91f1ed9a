package transaction

import (
	"github.com/prometheus/client_golang/prometheus"

	"go.vocdoni.io/ballot/metrics"
)

// Transaction collectors
var (
	// TxSubmitted counts the transactions sent, by operation
	TxSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transaction",
		Name:      "submitted",
		Help:      "Transactions sent to the node",
	}, []string{"operation"})
	// TxConfirmed counts the transactions mined successfully, by operation
	TxConfirmed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transaction",
		Name:      "confirmed",
		Help:      "Transactions mined with success status",
	}, []string{"operation"})
	// TxFailed counts the failed submissions, by operation and error kind
	TxFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "transaction",
		Name:      "failed",
		Help:      "Submissions that ended with an error",
	}, []string{"operation", "kind"})
	// TxConfirmationTime measures the time between sending and mining
	TxConfirmationTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "transaction",
		Name:      "confirmation_seconds",
		Help:      "Time from submission to inclusion",
		Buckets:   []float64{1, 2, 5, 10, 15, 30, 60, 120, 300},
	}, []string{"operation"})
	// TxPending is the number of transactions waiting for inclusion
	TxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "transaction",
		Name:      "pending",
		Help:      "Transactions waiting for inclusion",
	})
)

// RegisterMetrics registers the transaction collectors.
func RegisterMetrics(ma *metrics.Agent) {
	ma.Register(TxSubmitted)
	ma.Register(TxConfirmed)
	ma.Register(TxFailed)
	ma.Register(TxConfirmationTime)
	ma.Register(TxPending)
}
