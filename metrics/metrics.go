package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.vocdoni.io/ballot/log"
)

// Agent struct with options
type Agent struct {
	Path            string
	RefreshInterval time.Duration
}

// NewAgent creates the metrics agent and mounts the prometheus handler on the router
func NewAgent(path string, interval time.Duration, router chi.Router) *Agent {
	ma := Agent{Path: path, RefreshInterval: interval}
	router.Method(http.MethodGet, path, promhttp.Handler())
	log.Infof("prometheus metrics ready at: %s", path)
	return &ma
}

// Register the provided prometheus collector, ignoring any error returned (simply logs a Warn)
func (*Agent) Register(c prometheus.Collector) {
	Register(c)
}

// Register the provided prometheus collector on the default registry, ignoring any
// error returned (simply logs a Warn)
func Register(c prometheus.Collector) {
	err := prometheus.Register(c)
	if err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return
		}
		log.Warnf("cannot register metrics: (%s) (%+v)", err, c)
	}
}
