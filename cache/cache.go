// Package cache keeps an in-memory read model of the candidates and voters
// registered in the Voting contract.
package cache

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Reader is the contract read surface the cache is built from.
type Reader interface {
	CandidateAddresses(ctx context.Context) ([]common.Address, error)
	CandidateCount(ctx context.Context) (*big.Int, error)
	Candidate(ctx context.Context, addr common.Address) (*types.Candidate, error)
	VoterAddresses(ctx context.Context) ([]common.Address, error)
	VoterCount(ctx context.Context) (*big.Int, error)
	Voter(ctx context.Context, addr common.Address) (*types.Voter, error)
	VotedVoterAddresses(ctx context.Context) ([]common.Address, error)
}

// ErrStaleSnapshot is returned when a fetched snapshot is older than the one kept.
var ErrStaleSnapshot = errors.New("stale snapshot")

type candidates struct {
	list  []types.Candidate
	count uint64
}

type voters struct {
	list  []types.Voter
	voted map[common.Address]bool
	count uint64
}

// Cache is the read model. Every refresh fetches a full snapshot of a collection
// and swaps it wholesale; readers never observe a partially refreshed collection.
type Cache struct {
	reader Reader
	group  singleflight.Group

	// Concurrency is the number of detail fetches run at once
	Concurrency int

	mu         sync.RWMutex
	candidates candidates
	voters     voters
	loading    map[types.Collection]bool
	errs       map[types.Collection]error

	// refreshes run on base so a caller leaving does not abort the shared load
	base context.Context
	stop context.CancelFunc

	// one pending signal per collection
	signals map[types.Collection]chan struct{}
}

// New returns an empty Cache reading from reader.
func New(reader Reader) *Cache {
	base, stop := context.WithCancel(context.Background())
	return &Cache{
		reader:      reader,
		Concurrency: types.CacheDetailConcurrency,
		loading:     make(map[types.Collection]bool),
		errs:        make(map[types.Collection]error),
		voters:      voters{voted: make(map[common.Address]bool)},
		base:        base,
		stop:        stop,
		signals: map[types.Collection]chan struct{}{
			types.Candidates: make(chan struct{}, 1),
			types.Voters:     make(chan struct{}, 1),
		},
	}
}

// Close aborts the refreshes in flight. Snapshots already fetched are kept.
func (c *Cache) Close() {
	c.stop()
}

// Candidates returns the current candidates snapshot.
func (c *Cache) Candidates() []types.Candidate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.Candidate(nil), c.candidates.list...)
}

// Voters returns the current voters snapshot.
func (c *Cache) Voters() []types.Voter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.Voter(nil), c.voters.list...)
}

// VotedVoters returns the voters of the snapshot that already voted.
func (c *Cache) VotedVoters() []types.Voter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := []types.Voter{}
	for _, v := range c.voters.list {
		if c.voters.voted[v.Address] {
			list = append(list, v)
		}
	}
	return list
}

// CandidateCount returns the number of candidates reported by the contract.
func (c *Cache) CandidateCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.candidates.count
}

// VoterCount returns the number of voters reported by the contract.
func (c *Cache) VoterCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.voters.count
}

// Stats returns the participation figures of the current snapshots.
func (c *Cache) Stats() types.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := types.Stats{
		CandidateCount: c.candidates.count,
		VoterCount:     c.voters.count,
	}
	for _, v := range c.voters.list {
		if c.voters.voted[v.Address] {
			s.Voted++
		}
	}
	if s.Voted < s.VoterCount {
		s.NotVoted = s.VoterCount - s.Voted
	}
	if s.VoterCount > 0 {
		s.Progress = float64(s.Voted) * 100 / float64(s.VoterCount)
	}
	return s
}

// IsLoading reports whether a refresh of collection is in flight.
func (c *Cache) IsLoading(collection types.Collection) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading[collection]
}

// Err returns the error of the last refresh of collection, nil if it succeeded.
func (c *Cache) Err(collection types.Collection) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errs[collection]
}

// Refresh reloads collection.
func (c *Cache) Refresh(ctx context.Context, collection types.Collection) error {
	switch collection {
	case types.Candidates:
		return c.RefreshCandidates(ctx)
	case types.Voters:
		return c.RefreshVoters(ctx)
	}
	return fmt.Errorf("unknown collection %d", int(collection))
}

// RefreshCandidates reloads the candidates. Concurrent callers share the refresh
// in flight and its result. A caller whose ctx is done gets ctx.Err() back while
// the shared refresh goes on for the others.
func (c *Cache) RefreshCandidates(ctx context.Context) error {
	return c.do(ctx, types.Candidates, c.loadCandidates)
}

// RefreshVoters reloads the voters. Concurrent callers share the refresh in
// flight and its result.
func (c *Cache) RefreshVoters(ctx context.Context) error {
	return c.do(ctx, types.Voters, c.loadVoters)
}

func (c *Cache) do(ctx context.Context, collection types.Collection,
	load func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch := c.group.DoChan(collection.String(), func() (interface{}, error) {
		c.setLoading(collection, true)
		defer c.setLoading(collection, false)
		lctx, cancel := context.WithTimeout(c.base, types.CacheRefreshTimeout)
		defer cancel()
		start := time.Now()
		err := load(lctx)
		CacheRefreshTime.WithLabelValues(collection.String()).Observe(time.Since(start).Seconds())
		switch {
		case errors.Is(err, ErrStaleSnapshot):
			CacheRefreshes.WithLabelValues(collection.String(), "stale").Inc()
			log.Warnw("ignoring snapshot older than the cached one", "collection", collection.String(), "error", err)
			return nil, nil
		case err != nil:
			CacheRefreshes.WithLabelValues(collection.String(), "error").Inc()
			c.setErr(collection, err)
			log.Warnw("cannot refresh collection", "collection", collection.String(), "error", err)
			return nil, err
		}
		CacheRefreshes.WithLabelValues(collection.String(), "ok").Inc()
		c.setErr(collection, nil)
		return nil, nil
	})
	select {
	case <-ctx.Done():
		log.Debugw("left refresh in flight", "collection", collection.String(), "error", ctx.Err())
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			log.Debugw("joined refresh in flight", "collection", collection.String())
		}
		return res.Err
	}
}

func (c *Cache) setLoading(collection types.Collection, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading[collection] = loading
}

func (c *Cache) setErr(collection types.Collection, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[collection] = err
}

func (c *Cache) limit() int {
	if c.Concurrency <= 0 {
		return 1
	}
	return c.Concurrency
}

// count returns n, or fallback when the count call failed.
func count(collection types.Collection, n *big.Int, err error, fallback int) uint64 {
	if err != nil || n == nil || !n.IsUint64() {
		log.Debugw("using snapshot length as count", "collection", collection.String(), "error", err)
		return uint64(fallback)
	}
	return n.Uint64()
}

func (c *Cache) loadCandidates(ctx context.Context) error {
	addrs, err := c.reader.CandidateAddresses(ctx)
	if err != nil {
		return err
	}
	details := make([]*types.Candidate, len(addrs))
	g := new(errgroup.Group)
	g.SetLimit(c.limit())
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			d, err := c.reader.Candidate(ctx, addr)
			if err != nil {
				log.Warnw("dropping candidate", "address", addr.Hex(), "error", err)
				return nil
			}
			details[i] = d
			return nil
		})
	}
	_ = g.Wait()
	list := make([]types.Candidate, 0, len(details))
	for _, d := range details {
		if d != nil {
			list = append(list, *d)
		}
	}
	n, cerr := c.reader.CandidateCount(ctx)
	// details dropped because the load was aborted would shrink the snapshot
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("candidates refresh aborted: %w", err)
	}
	fresh := candidates{list: list, count: count(types.Candidates, n, cerr, len(list))}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := candidatesRegressed(c.candidates.list, fresh.list); err != nil {
		return err
	}
	c.candidates = fresh
	CacheEntities.WithLabelValues(types.Candidates.String()).Set(float64(len(list)))
	return nil
}

func (c *Cache) loadVoters(ctx context.Context) error {
	addrs, err := c.reader.VoterAddresses(ctx)
	if err != nil {
		return err
	}
	details := make([]*types.Voter, len(addrs))
	g := new(errgroup.Group)
	g.SetLimit(c.limit())
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			d, err := c.reader.Voter(ctx, addr)
			if err != nil {
				log.Warnw("dropping voter", "address", addr.Hex(), "error", err)
				return nil
			}
			details[i] = d
			return nil
		})
	}
	_ = g.Wait()
	list := make([]types.Voter, 0, len(details))
	for _, d := range details {
		if d != nil {
			list = append(list, *d)
		}
	}

	voted := make(map[common.Address]bool)
	if votedAddrs, err := c.reader.VotedVoterAddresses(ctx); err == nil {
		for _, addr := range votedAddrs {
			voted[addr] = true
		}
	} else {
		log.Debugw("using voter flags as voted list", "error", err)
	}
	for i := range list {
		if list[i].HasVoted {
			voted[list[i].Address] = true
		}
		list[i].HasVoted = voted[list[i].Address]
	}
	n, cerr := c.reader.VoterCount(ctx)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("voters refresh aborted: %w", err)
	}
	fresh := voters{list: list, voted: voted, count: count(types.Voters, n, cerr, len(list))}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := votersRegressed(c.voters.list, fresh.list); err != nil {
		return err
	}
	c.voters = fresh
	CacheEntities.WithLabelValues(types.Voters.String()).Set(float64(len(list)))
	return nil
}

// candidatesRegressed returns ErrStaleSnapshot if a candidate of prev shows fewer
// votes in fresh. Vote counts never decrease on chain.
func candidatesRegressed(prev, fresh []types.Candidate) error {
	votes := make(map[common.Address]*types.BigInt, len(fresh))
	for i := range fresh {
		votes[fresh[i].Address] = fresh[i].VoteCount
	}
	for _, p := range prev {
		n, ok := votes[p.Address]
		if !ok || n == nil || p.VoteCount == nil {
			continue
		}
		if n.Cmp(p.VoteCount) < 0 {
			return fmt.Errorf("%w: candidate %s votes went from %s to %s", ErrStaleSnapshot,
				p.Address.Hex(), p.VoteCount, n)
		}
	}
	return nil
}

// votersRegressed returns ErrStaleSnapshot if a voter of prev that voted shows
// as not voted in fresh.
func votersRegressed(prev, fresh []types.Voter) error {
	voted := make(map[common.Address]bool, len(fresh))
	for _, v := range fresh {
		voted[v.Address] = v.HasVoted
	}
	for _, p := range prev {
		hasVoted, ok := voted[p.Address]
		if ok && p.HasVoted && !hasVoted {
			return fmt.Errorf("%w: voter %s no longer voted", ErrStaleSnapshot, p.Address.Hex())
		}
	}
	return nil
}

// Invalidate signals that collection changed on chain. It never blocks; a
// signal already pending for collection covers this one.
func (c *Cache) Invalidate(collection types.Collection) {
	ch, ok := c.signals[collection]
	if !ok {
		log.Warnw("invalidating unknown collection", "collection", int(collection))
		return
	}
	select {
	case ch <- struct{}{}:
	default:
		log.Debugw("refresh already pending", "collection", collection.String())
	}
}

// Run refreshes both collections and then every invalidated one until ctx is done.
func (c *Cache) Run(ctx context.Context) {
	for _, collection := range []types.Collection{types.Candidates, types.Voters} {
		_ = c.Refresh(ctx, collection)
	}
	for {
		var collection types.Collection
		select {
		case <-ctx.Done():
			return
		case <-c.base.Done():
			return
		case <-c.signals[types.Candidates]:
			collection = types.Candidates
		case <-c.signals[types.Voters]:
			collection = types.Voters
		}
		if err := c.Refresh(ctx, collection); err != nil {
			log.Debugw("invalidated refresh failed", "collection", collection.String(), "error", err)
		}
	}
}
