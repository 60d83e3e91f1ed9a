package chain

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.vocdoni.io/ballot/metrics"
)

// Ethereum collectors
var (
	EthereumSynced = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ethereum",
		Name:      "synced",
		Help:      "Boolean, 1 if chain is synced",
	})
	EthereumHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ethereum",
		Name:      "height",
		Help:      "Current height of the ethereum chain",
	})
	EthereumMaxHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ethereum",
		Name:      "max_height",
		Help:      "Height of the ethereum chain (last block)",
	})
	EthereumPeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ethereum",
		Name:      "peers",
		Help:      "Number of ethereum peers connected",
	})
	// ContractCallErrors counts failed contract interactions by error kind
	ContractCallErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ethereum",
		Name:      "contract_errors",
		Help:      "Failed contract interactions by error kind",
	}, []string{"kind"})
)

// RegisterMetrics registers the ethereum collectors on the agent
func RegisterMetrics(ma *metrics.Agent) {
	ma.Register(EthereumSynced)
	ma.Register(EthereumHeight)
	ma.Register(EthereumMaxHeight)
	ma.Register(EthereumPeers)
	ma.Register(ContractCallErrors)
}
