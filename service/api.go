package service

import (
	"path/filepath"
	"time"

	"go.vocdoni.io/ballot/api"
	"go.vocdoni.io/ballot/httprouter"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/metrics"
)

// HTTP starts the router and, if enabled, the metrics agent.
func (bs *BallotService) HTTP() error {
	cfg := bs.Config.API
	bs.Router = &httprouter.HTTProuter{
		AllowedOrigins: cfg.AllowedOrigins,
		TLSdomain:      cfg.SSLDomain,
		TLSdirCert:     filepath.Join(bs.Config.DataDir, "tls"),
	}
	if err := bs.Router.Init(cfg.ListenHost, cfg.ListenPort); err != nil {
		return err
	}
	bs.onClose(func() {
		if err := bs.Router.Shutdown(); err != nil {
			log.Warnf("cannot close http router: %v", err)
		}
	})
	if bs.Config.Metrics.Enabled {
		bs.Router.EnablePrometheusMetrics("ballot_http")
		bs.MetricsAgent = metrics.NewAgent("/metrics",
			time.Duration(bs.Config.Metrics.RefreshInterval)*time.Second, bs.Router.Mux)
	}
	return nil
}

// Handlers attaches the API to the router.
func (bs *BallotService) Handlers() {
	bs.API = api.NewAPI(bs.Cache, bs.Orchestrator, bs.Session, bs.Config.VotingTitle)
	bs.API.Attach(bs.Router.Mux, bs.Config.API.Route)
	log.Infof("api available at %s", bs.Config.API.Route)
}
