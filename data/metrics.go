package data

import (
	"github.com/prometheus/client_golang/prometheus"

	"go.vocdoni.io/ballot/metrics"
)

// File collectors
var (
	// FilePeers ...
	FilePeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "file",
		Name:      "peers",
		Help:      "The number of connected peers",
	})
	// FilePins ...
	FilePins = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "file",
		Name:      "pins",
		Help:      "The number of pinned files",
	})
	// FileUploads counts the uploads by result (published, deduplicated, failed, rejected)
	FileUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "file",
		Name:      "uploads",
		Help:      "The number of content uploads",
	}, []string{"result"})
	// FileUploadBytes ...
	FileUploadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "file",
		Name:      "upload_bytes",
		Help:      "The number of bytes published",
	})
)

func registerMetrics(ma *metrics.Agent) {
	ma.Register(FilePeers)
	ma.Register(FilePins)
}

// RegisterMetrics registers the upload collectors.
func RegisterMetrics(ma *metrics.Agent) {
	ma.Register(FileUploads)
	ma.Register(FileUploadBytes)
}
