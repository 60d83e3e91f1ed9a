package ethevents

import (
	"github.com/prometheus/client_golang/prometheus"

	"go.vocdoni.io/ballot/metrics"
)

// EventsProcessed counts the contract events handled, by event name
var EventsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ethereum",
	Name:      "contract_events",
	Help:      "Voting contract events processed",
}, []string{"event"})

// RegisterMetrics registers the contract events collectors.
func RegisterMetrics(ma *metrics.Agent) {
	ma.Register(EventsProcessed)
}
