package service

import (
	"context"
	"os"
	"time"

	"go.vocdoni.io/ballot/data"
	"go.vocdoni.io/ballot/log"
)

// IPFS connects to the content storage and creates the uploader.
func (bs *BallotService) IPFS(ctx context.Context) error {
	log.Info("creating ipfs service")
	if err := os.Setenv("IPFS_FD_MAX", "1024"); err != nil {
		log.Warnw("could not set IPFS_FD_MAX", "err", err)
	}
	cfg := bs.Config.IPFS
	storage, err := data.NewIPFSHTTP(cfg.API, cfg.LogLevel, cfg.Timeout)
	if err != nil {
		return err
	}
	bs.Storage = storage
	bs.onClose(func() {
		if err := storage.Stop(); err != nil {
			log.Warnf("cannot stop ipfs storage: %v", err)
		}
	})
	if bs.MetricsAgent != nil {
		bs.goRun(func() {
			storage.CollectMetrics(ctx, bs.MetricsAgent, time.Duration(bs.Config.Metrics.RefreshInterval)*time.Second)
		})
	}
	bs.Uploader, err = data.NewUploader(storage, cfg.Gateway, cfg.UploadCacheSize)
	return err
}
