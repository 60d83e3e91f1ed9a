// Package ethevents follows the Voting contract logs and invalidates the read model
// collections each event affects.
package ethevents

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/enriquebris/goconcurrentqueue"
	eth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"

	"go.vocdoni.io/ballot/chain"
	"go.vocdoni.io/ballot/chain/contracts"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Invalidator is notified of every collection changed on chain.
type Invalidator interface {
	Invalidate(types.Collection)
}

// LogSource is the node surface used to follow the contract logs.
type LogSource interface {
	eth.LogFilterer
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
}

// eventOperations maps each contract event to the operation that emits it.
var eventOperations = map[string]types.Operation{
	"CandidateRegistered": types.RegisterCandidate,
	"VoterAuthorized":     types.RegisterVoter,
	"VoteCast":            types.CastVote,
}

// resyncMarker is queued when logs may have been missed and every collection
// must be reloaded.
type resyncMarker struct{ reason string }

// Watcher subscribes to the Voting contract logs, queues them and invalidates the
// affected collections. When the node cannot push notifications (plain HTTP
// endpoints) the logs are polled instead.
type Watcher struct {
	source       LogSource
	address      common.Address
	abi          abi.ABI
	filterer     *contracts.VotingFilterer
	target       Invalidator
	queue        *goconcurrentqueue.FixedFIFO
	PollInterval time.Duration

	mu      sync.Mutex
	next    uint64
	polling bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWatcher returns a watcher of the Voting contract deployed at address.
func NewWatcher(source LogSource, address common.Address, target Invalidator) (*Watcher, error) {
	parsed, err := abi.JSON(strings.NewReader(contracts.VotingABI))
	if err != nil {
		return nil, fmt.Errorf("cannot read voting contract abi: %w", err)
	}
	filterer, err := contracts.NewVotingFilterer(address, source)
	if err != nil {
		return nil, fmt.Errorf("cannot create voting filterer: %w", err)
	}
	return &Watcher{
		source:       source,
		address:      address,
		abi:          parsed,
		filterer:     filterer,
		target:       target,
		queue:        goconcurrentqueue.NewFixedFIFO(types.EventQueueSize),
		PollInterval: types.EventPollInterval,
	}, nil
}

// Polling reports whether the watcher fell back to polling.
func (w *Watcher) Polling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

// Start processes the logs emitted since fromBlock (if not nil) and then follows
// the new ones until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context, fromBlock *uint64) error {
	tctx, cancel := context.WithTimeout(ctx, types.EthereumReadTimeout)
	head, err := w.source.HeaderByNumber(tctx, nil)
	cancel()
	if err != nil {
		return chain.ClassifyError(fmt.Errorf("cannot get chain head: %w", err))
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.next = head.Number.Uint64() + 1

	if fromBlock != nil && *fromBlock <= head.Number.Uint64() {
		if err := w.processEventLogsFromTo(ctx, *fromBlock, head.Number.Uint64()); err != nil {
			log.Warnf("cannot read past contract logs: %v", err)
		}
	}

	logs := make(chan ethtypes.Log, 10)
	initial, err := w.source.SubscribeFilterLogs(ctx, w.query(head.Number, nil), logs)
	switch {
	case errors.Is(err, rpc.ErrNotificationsUnsupported):
		log.Infof("node does not support subscriptions, polling contract logs every %s", w.PollInterval)
		w.mu.Lock()
		w.polling = true
		w.mu.Unlock()
		w.wg.Add(1)
		go w.poll(ctx)
	case err != nil:
		w.cancel()
		return chain.ClassifyError(fmt.Errorf("cannot subscribe to contract logs: %w", err))
	default:
		log.Infof("subscribed to contract %s logs from block %d", w.address, head.Number.Uint64())
		sub := event.Resubscribe(types.EthereumDialRetryWait, func(ctx context.Context) (event.Subscription, error) {
			if initial != nil {
				s := initial
				initial = nil
				return s, nil
			}
			s, err := w.source.SubscribeFilterLogs(ctx, w.query(nil, nil), logs)
			if err != nil {
				log.Warnf("cannot resubscribe to contract logs: %v", err)
				return nil, err
			}
			w.enqueue(resyncMarker{reason: "resubscribed"})
			return s, nil
		})
		w.wg.Add(1)
		go w.subscribe(ctx, sub, logs)
	}

	w.wg.Add(1)
	go w.runEventProcessor(ctx)
	return nil
}

// Stop ends the subscription and waits for the queued logs processor to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) query(from, to *big.Int) eth.FilterQuery {
	return eth.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{w.address},
	}
}

func (w *Watcher) subscribe(ctx context.Context, sub event.Subscription, logs <-chan ethtypes.Log) {
	defer w.wg.Done()
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				log.Warnf("contract logs subscription ended: %v", err)
			}
			return
		case l := <-logs:
			w.enqueue(l)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.pollOnce(ctx); err != nil {
				log.Warnf("cannot poll contract logs: %v", err)
			}
		}
	}
}

// pollOnce queues the logs of the blocks mined since the last poll.
func (w *Watcher) pollOnce(ctx context.Context) error {
	tctx, cancel := context.WithTimeout(ctx, types.EthereumReadTimeout)
	defer cancel()
	head, err := w.source.HeaderByNumber(tctx, nil)
	if err != nil {
		return err
	}
	w.mu.Lock()
	from := w.next
	w.mu.Unlock()
	to := head.Number.Uint64()
	if to < from {
		return nil
	}
	logs, err := w.source.FilterLogs(tctx, w.query(new(big.Int).SetUint64(from), new(big.Int).SetUint64(to)))
	if err != nil {
		return err
	}
	for _, l := range logs {
		w.enqueue(l)
	}
	w.mu.Lock()
	w.next = to + 1
	w.mu.Unlock()
	return nil
}

// processEventLogsFromTo queues the contract logs of the blocks between from and to.
func (w *Watcher) processEventLogsFromTo(ctx context.Context, from, to uint64) error {
	log.Infof("reading contract events from block %d to %d", from, to)
	tctx, cancel := context.WithTimeout(ctx, types.EthereumReadTimeout)
	defer cancel()
	logs, err := w.source.FilterLogs(tctx, w.query(new(big.Int).SetUint64(from), new(big.Int).SetUint64(to)))
	if err != nil {
		return err
	}
	for _, l := range logs {
		w.enqueue(l)
	}
	return nil
}

func (w *Watcher) enqueue(item interface{}) {
	if err := w.queue.Enqueue(item); err != nil {
		// the queue is full: drop the log, a full reload covers it
		log.Warnf("contract events queue is full (%d), forcing a full reload", w.queue.GetLen())
		w.invalidateAll()
	}
}

func (w *Watcher) runEventProcessor(ctx context.Context) {
	defer w.wg.Done()
	for {
		item, err := w.queue.DequeueOrWaitForNextElementContext(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warnf("cannot dequeue contract event: %v", err)
			}
			return
		}
		switch e := item.(type) {
		case ethtypes.Log:
			w.handle(&e)
		case resyncMarker:
			log.Infof("reloading every collection: %s", e.reason)
			w.invalidateAll()
		}
	}
}

// handle invalidates the collections affected by the event. Removed logs (chain
// reorganizations) invalidate the same collections the original log did.
func (w *Watcher) handle(l *ethtypes.Log) {
	if len(l.Topics) == 0 {
		return
	}
	ev, err := w.abi.EventByID(l.Topics[0])
	if err != nil {
		log.Debugf("ignoring unknown contract event %s", l.Topics[0].Hex())
		return
	}
	op, ok := eventOperations[ev.Name]
	if !ok {
		return
	}
	if l.Removed {
		log.Warnf("reverted %s log (tx:%s block:%d)", ev.Name, l.TxHash.Hex(), l.BlockNumber)
	} else {
		log.Debugw("contract event", "event", ev.Name, "detail", w.describe(ev.Name, l), "block", l.BlockNumber)
	}
	EventsProcessed.WithLabelValues(ev.Name).Inc()
	for _, c := range op.Affects() {
		w.target.Invalidate(c)
	}
}

func (w *Watcher) describe(name string, l *ethtypes.Log) string {
	switch name {
	case "CandidateRegistered":
		if e, err := w.filterer.ParseCandidateRegistered(*l); err == nil {
			return fmt.Sprintf("candidate %d %s (%s)", e.CandidateId, e.CandidateAddress.Hex(), e.Name)
		}
	case "VoterAuthorized":
		if e, err := w.filterer.ParseVoterAuthorized(*l); err == nil {
			return fmt.Sprintf("voter %d %s (%s)", e.VoterId, e.VoterAddress.Hex(), e.Name)
		}
	case "VoteCast":
		if e, err := w.filterer.ParseVoteCast(*l); err == nil {
			return fmt.Sprintf("%s voted candidate %d %s", e.Voter.Hex(), e.CandidateId, e.Candidate.Hex())
		}
	}
	return "undecodable"
}

func (w *Watcher) invalidateAll() {
	w.target.Invalidate(types.Candidates)
	w.target.Invalidate(types.Voters)
}
