package apiclient

import (
	"context"
	"math/big"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	qt "github.com/frankban/quicktest"

	"go.vocdoni.io/ballot/api"
	"go.vocdoni.io/ballot/cache"
	"go.vocdoni.io/ballot/chain"
	"go.vocdoni.io/ballot/chain/chaintest"
	"go.vocdoni.io/ballot/transaction"
	"go.vocdoni.io/ballot/types"
)

var alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")

type submitter struct {
	mu   sync.Mutex
	err  error
	last transaction.Params
}

func (s *submitter) Submit(ctx context.Context, op types.Operation, p transaction.Params) (*ethtypes.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = p
	if s.err != nil {
		return nil, s.err
	}
	return &ethtypes.Receipt{TxHash: common.HexToHash("0xab"), BlockNumber: big.NewInt(3), GasUsed: 50000}, nil
}

func (s *submitter) Pending() []types.PendingTransaction {
	return []types.PendingTransaction{{ID: "1", Kind: types.CastVote, TxHash: common.HexToHash("0xcd")}}
}

func (s *submitter) params() transaction.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *submitter) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type session struct {
	mu    sync.Mutex
	state types.Session
}

func (s *session) State() types.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) Connect(ctx context.Context) (common.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := alice
	s.state = types.Session{State: types.Connected, Address: &addr}
	return addr, nil
}

func newClient(t *testing.T) (*HTTPclient, *submitter) {
	fake := chaintest.NewVoting(t)
	vh, err := chain.NewVotingHandle(fake, fake.Address, fake.ChainID)
	qt.Assert(t, err, qt.IsNil)
	fake.AddCandidate(chaintest.Candidate{Address: alice, Name: "Alice", Age: big.NewInt(30)})
	fake.AddVoter(chaintest.Voter{Address: alice, Name: "Alice", Allowed: true, Voted: true})
	sub := &submitter{}
	srv := httptest.NewServer(api.NewAPI(cache.New(vh), sub, &session{}, "Student council").Handler())
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	qt.Assert(t, err, qt.IsNil)
	c, err := NewHTTPclient(u)
	qt.Assert(t, err, qt.IsNil)
	return c, sub
}

func TestClientReads(t *testing.T) {
	c := qt.New(t)
	cli, _ := newClient(t)
	c.Assert(cli.VotingTitle(), qt.Equals, "Student council")

	c.Assert(cli.Refresh(types.Candidates), qt.IsNil)
	c.Assert(cli.Refresh(types.Voters), qt.IsNil)

	candidates, err := cli.Candidates()
	c.Assert(err, qt.IsNil)
	c.Assert(candidates.Candidates, qt.HasLen, 1)
	c.Assert(candidates.Candidates[0].Address, qt.Equals, alice)

	voted, err := cli.Voters(true)
	c.Assert(err, qt.IsNil)
	c.Assert(voted.Voters, qt.HasLen, 1)

	stats, err := cli.Stats()
	c.Assert(err, qt.IsNil)
	c.Assert(stats.Progress, qt.Equals, float64(100))

	pending, err := cli.Pending()
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.HasLen, 1)
	c.Assert(pending[0].Kind, qt.Equals, types.CastVote)
}

func TestClientSubmissions(t *testing.T) {
	c := qt.New(t)
	cli, sub := newClient(t)

	s, err := cli.Connect()
	c.Assert(err, qt.IsNil)
	c.Assert(s.State, qt.Equals, types.Connected)

	receipt, err := cli.RegisterCandidate("Bob", alice.Hex(), 40, []byte{0x89, 0x50})
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.BlockNumber, qt.Equals, uint64(3))
	c.Assert(sub.params().Image, qt.DeepEquals, []byte{0x89, 0x50})

	_, err = cli.Vote(alice.Hex(), big.NewInt(1))
	c.Assert(err, qt.IsNil)
	c.Assert(sub.params().CandidateID.Int64(), qt.Equals, int64(1))

	sub.fail(types.ErrInsufficientFunds)
	_, err = cli.RegisterVoter("Carol", alice.Hex(), []byte{1})
	var apiErr *Error
	c.Assert(err, qt.ErrorAs, &apiErr)
	c.Assert(apiErr.Status, qt.Equals, 402)
	c.Assert(apiErr.Body.Kind, qt.Equals, types.KindInsufficientFunds)

	c.Assert(cli.Refresh(types.Collection(9)), qt.Not(qt.IsNil))
}
