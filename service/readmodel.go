package service

import (
	"context"

	"go.vocdoni.io/ballot/cache"
	"go.vocdoni.io/ballot/chain/ethevents"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/transaction"
)

// ReadModel creates the cache and starts refreshing it.
func (bs *BallotService) ReadModel(ctx context.Context) {
	bs.Cache = cache.New(bs.Voting)
	if bs.Config.Cache.Concurrency > 0 {
		bs.Cache.Concurrency = bs.Config.Cache.Concurrency
	}
	if bs.MetricsAgent != nil {
		cache.RegisterMetrics(bs.MetricsAgent)
	}
	bs.onClose(bs.Cache.Close)
	bs.goRun(func() { bs.Cache.Run(ctx) })
}

// Events follows the contract logs and invalidates the read model.
func (bs *BallotService) Events(ctx context.Context) error {
	log.Info("creating ethereum events service")
	w, err := ethevents.NewWatcher(bs.Client, bs.Voting.Address(), bs.Cache)
	if err != nil {
		return err
	}
	if bs.Config.Ethereum.PollInterval > 0 {
		w.PollInterval = bs.Config.Ethereum.PollInterval
	}
	if bs.MetricsAgent != nil {
		ethevents.RegisterMetrics(bs.MetricsAgent)
	}
	var from *uint64
	if b := bs.Config.Ethereum.FromBlock; b > 0 {
		from = &b
	}
	if err := w.Start(ctx, from); err != nil {
		return err
	}
	bs.Watcher = w
	bs.onClose(w.Stop)
	return nil
}

// Transactions creates the orchestrator of the submissions.
func (bs *BallotService) Transactions() {
	bs.Orchestrator = transaction.NewOrchestrator(bs.Voting, bs.Session, bs.Resolver, bs.Uploader, bs.Cache)
	if t := bs.Config.Transaction.ConfirmTimeout; t > 0 {
		bs.Orchestrator.ConfirmTimeout = t
	}
	if bs.MetricsAgent != nil {
		transaction.RegisterMetrics(bs.MetricsAgent)
	}
}
