package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"go.vocdoni.io/ballot/metrics"
)

// Cache collectors
var (
	// CacheRefreshes counts the refreshes by collection and result
	CacheRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cache",
		Name:      "refreshes",
		Help:      "Read model refreshes by collection and result",
	}, []string{"collection", "result"})
	// CacheEntities is the size of the current snapshot of each collection
	CacheEntities = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cache",
		Name:      "entities",
		Help:      "Entities in the current snapshot",
	}, []string{"collection"})
	// CacheRefreshTime measures how long a refresh takes
	CacheRefreshTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cache",
		Name:      "refresh_seconds",
		Help:      "Read model refresh duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"collection"})
)

// RegisterMetrics registers the cache collectors on the agent
func RegisterMetrics(ma *metrics.Agent) {
	ma.Register(CacheRefreshes)
	ma.Register(CacheEntities)
	ma.Register(CacheRefreshTime)
}
