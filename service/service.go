// Package service wires the ballot components into a running node.
package service

import (
	"context"
	"sync"

	"go.vocdoni.io/ballot/api"
	"go.vocdoni.io/ballot/cache"
	"go.vocdoni.io/ballot/chain"
	"go.vocdoni.io/ballot/chain/ethevents"
	"go.vocdoni.io/ballot/config"
	"go.vocdoni.io/ballot/data"
	"go.vocdoni.io/ballot/httprouter"
	"go.vocdoni.io/ballot/identity"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/metrics"
	"go.vocdoni.io/ballot/session"
	"go.vocdoni.io/ballot/transaction"
)

// BallotService is the main struct that holds all the services of the ballot node.
type BallotService struct {
	Config       *config.Config
	Client       *chain.Client
	Voting       *chain.VotingHandle
	Watcher      *ethevents.Watcher
	Cache        *cache.Cache
	Storage      data.Storage
	Uploader     *data.Uploader
	Resolver     *identity.Resolver
	Session      *session.Manager
	Orchestrator *transaction.Orchestrator
	Router       *httprouter.HTTProuter
	API          *api.API
	MetricsAgent *metrics.Agent

	closers []func()
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New returns a service for cfg. Call Start to bring it up.
func New(cfg *config.Config) *BallotService {
	return &BallotService{Config: cfg}
}

// Start brings every component up: the router and metrics, the node connection,
// the storage, the wallet session, the read model and its event watcher, and
// finally the API handlers.
func (bs *BallotService) Start(ctx context.Context) error {
	ctx, bs.cancel = context.WithCancel(ctx)
	if err := bs.Validate(); err != nil {
		return err
	}
	if err := bs.HTTP(); err != nil {
		return err
	}
	if err := bs.Ethereum(ctx); err != nil {
		return err
	}
	if err := bs.IPFS(ctx); err != nil {
		return err
	}
	if err := bs.Identity(); err != nil {
		return err
	}
	if err := bs.Wallet(ctx); err != nil {
		return err
	}
	bs.ReadModel(ctx)
	if err := bs.Events(ctx); err != nil {
		return err
	}
	bs.Transactions()
	bs.Handlers()
	log.Info("ballot service started")
	return nil
}

// Validate checks the configuration.
func (bs *BallotService) Validate() error {
	return bs.Config.Validate()
}

func (bs *BallotService) onClose(f func()) {
	bs.closers = append(bs.closers, f)
}

func (bs *BallotService) goRun(f func()) {
	bs.wg.Add(1)
	go func() {
		defer bs.wg.Done()
		f()
	}()
}

// Stop tears every component down in reverse start order.
func (bs *BallotService) Stop() {
	if bs.cancel != nil {
		bs.cancel()
	}
	for i := len(bs.closers) - 1; i >= 0; i-- {
		bs.closers[i]()
	}
	bs.wg.Wait()
	log.Info("ballot service stopped")
}
