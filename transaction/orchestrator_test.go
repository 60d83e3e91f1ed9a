package transaction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	qt "github.com/frankban/quicktest"

	"go.vocdoni.io/ballot/chain"
	"go.vocdoni.io/ballot/chain/chaintest"
	"go.vocdoni.io/ballot/data"
	"go.vocdoni.io/ballot/identity"
	"go.vocdoni.io/ballot/session"
	"go.vocdoni.io/ballot/types"
	"go.vocdoni.io/ballot/wallet"
)

var candidateAddr = common.HexToAddress("0xABCdef000000000000000000000000000000000A")

type recorder struct {
	mu   sync.Mutex
	seen []types.Collection
}

func (r *recorder) Invalidate(c types.Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, c)
}

func (r *recorder) collections() []types.Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Collection(nil), r.seen...)
}

// rejectingWallet wraps a key wallet and declines every signature when reject is set.
type rejectingWallet struct {
	*wallet.Key
	reject bool
}

func (w *rejectingWallet) SignTx(ctx context.Context, account common.Address, tx *ethtypes.Transaction,
	chainID *big.Int) (*ethtypes.Transaction, error) {
	if w.reject {
		return nil, fmt.Errorf("%w: declined", types.ErrUserRejected)
	}
	return w.Key.SignTx(ctx, account, tx, chainID)
}

type env struct {
	fake     *chaintest.Voting
	storage  *data.DataMockTest
	wallet   *rejectingWallet
	session  *session.Manager
	recorder *recorder
	orch     *Orchestrator
}

func newEnv(t *testing.T) *env {
	fake := chaintest.NewVoting(t)
	vh, err := chain.NewVotingHandle(fake, fake.Address, fake.ChainID)
	qt.Assert(t, err, qt.IsNil)
	w := &rejectingWallet{Key: wallet.NewKeyFromECDSA(fake.Key)}
	sm := session.NewManager(w)
	t.Cleanup(sm.Close)
	qt.Assert(t, sm.Init(context.Background()), qt.IsNil)
	resolver, err := identity.NewResolver(nil, identity.Options{})
	qt.Assert(t, err, qt.IsNil)
	storage := data.NewDataMockTest()
	uploader, err := data.NewUploader(storage, "", data.DefaultUploadCacheSize)
	qt.Assert(t, err, qt.IsNil)
	rec := &recorder{}
	orch := NewOrchestrator(vh, sm, resolver, uploader, rec)
	orch.ConfirmTimeout = 5 * time.Second
	return &env{fake: fake, storage: storage, wallet: w, session: sm, recorder: rec, orch: orch}
}

func candidateParams() Params {
	return Params{
		Name:    "Alice",
		Address: candidateAddr.Hex(),
		Age:     30,
		Image:   []byte("alice.png"),
	}
}

func TestGasLimit(t *testing.T) {
	qt.Assert(t, GasLimit(100000), qt.Equals, uint64(120000))
	qt.Assert(t, GasLimit(5), qt.Equals, uint64(6))
	qt.Assert(t, GasLimit(1), qt.Equals, uint64(1))
	qt.Assert(t, GasLimit(0), qt.Equals, uint64(0))
	for _, raw := range []uint64{2, 4, 21000, 123457, 999999, 1 << 40} {
		// floor(raw * 6 / 5) for integer raw
		qt.Assert(t, GasLimit(raw), qt.Equals, raw+raw/5, qt.Commentf("raw %d", raw))
	}
	qt.Assert(t, GasLimit(math.MaxUint64), qt.Equals, uint64(math.MaxUint64))
}

func TestValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tests := []struct {
		name  string
		op    types.Operation
		p     Params
		field string
	}{
		{"underage", types.RegisterCandidate, Params{Name: "Bob", Address: "bob", Age: 17}, "age"},
		{"no name", types.RegisterCandidate, Params{Name: "  ", Address: "bob", Age: 30}, "name"},
		{"no address", types.RegisterCandidate, Params{Name: "Bob", Address: " ", Age: 30}, "address"},
		{"no age", types.RegisterCandidate, Params{Name: "Bob", Address: "bob"}, "age"},
		{"no image", types.RegisterCandidate, Params{Name: "Bob", Address: "bob", Age: 18}, "image"},
		{"name first", types.RegisterCandidate, Params{Age: 17}, "name"},
		{"voter no image", types.RegisterVoter, Params{Name: "Bob", Address: "bob"}, "image"},
		{"voter age ignored", types.RegisterVoter, Params{Name: "Bob", Address: "bob", Age: 3}, "image"},
		{"vote no candidate", types.CastVote, Params{CandidateID: big.NewInt(0)}, "candidateAddress"},
		{"vote no id", types.CastVote, Params{CandidateAddress: candidateAddr.Hex()}, "candidateId"},
		{"big image", types.RegisterVoter, Params{Name: "Bob", Address: "bob",
			Image: make([]byte, types.MaxUploadSize+1)}, "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.orch.Submit(ctx, tt.op, tt.p)
			var verr *types.ValidationError
			qt.Assert(t, err, qt.ErrorAs, &verr)
			qt.Assert(t, verr.Field, qt.Equals, tt.field)
		})
	}
	// validation failures never reach the network nor the storage
	qt.Assert(t, e.fake.TotalCalls(), qt.Equals, 0)
	qt.Assert(t, e.storage.Published, qt.Equals, 0)
}

func TestRegisterCandidate(t *testing.T) {
	e := newEnv(t)
	receipt, err := e.orch.Submit(context.Background(), types.RegisterCandidate, candidateParams())
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, receipt.Status, qt.Equals, ethtypes.ReceiptStatusSuccessful)
	qt.Assert(t, e.recorder.collections(), qt.DeepEquals, []types.Collection{types.Candidates})
	qt.Assert(t, e.orch.Pending(), qt.HasLen, 0)

	sent := e.fake.Sent()
	qt.Assert(t, sent, qt.HasLen, 1)
	qt.Assert(t, sent[0].Gas(), qt.Equals, GasLimit(chaintest.DefaultGasEstimation))
	// image and metadata document
	qt.Assert(t, e.storage.Published, qt.Equals, 2)

	vh, err := chain.NewVotingHandle(e.fake, e.fake.Address, e.fake.ChainID)
	qt.Assert(t, err, qt.IsNil)
	c, err := vh.Candidate(context.Background(), candidateAddr)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, c.Name, qt.Equals, "Alice")
	qt.Assert(t, c.Age.MathBigInt().Int64(), qt.Equals, int64(30))
	qt.Assert(t, c.ImageURL, qt.Matches, `https://ipfs\.io/ipfs/b.*`)
	qt.Assert(t, c.MetadataURL, qt.Matches, `https://ipfs\.io/ipfs/b.*`)
	qt.Assert(t, c.ImageURL, qt.Not(qt.Equals), c.MetadataURL)
}

func TestRegisterVoterAndVote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fake.AddCandidate(chaintest.Candidate{Address: candidateAddr, Name: "Alice", Age: big.NewInt(30)})

	_, err := e.orch.Submit(ctx, types.RegisterVoter, Params{
		Name:    "Me",
		Address: "  " + e.fake.From.Hex() + " ",
		Image:   []byte("me.png"),
	})
	qt.Assert(t, err, qt.IsNil)

	_, err = e.orch.Submit(ctx, types.CastVote, Params{
		CandidateAddress: candidateAddr.Hex(),
		CandidateID:      big.NewInt(0),
	})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, e.recorder.collections(), qt.DeepEquals,
		[]types.Collection{types.Voters, types.Candidates, types.Voters})

	// voting twice is rejected by the contract at execution
	_, err = e.orch.Submit(ctx, types.CastVote, Params{
		CandidateAddress: candidateAddr.Hex(),
		CandidateID:      big.NewInt(0),
	})
	var rejected *types.ContractRejectedError
	qt.Assert(t, err, qt.ErrorAs, &rejected)
	qt.Assert(t, rejected.Reason, qt.Equals, "transaction reverted")
}

func TestSubmitPreconditions(t *testing.T) {
	ctx := context.Background()

	e := newEnv(t)
	e.session.Disconnect()
	_, err := e.orch.Submit(ctx, types.RegisterCandidate, candidateParams())
	qt.Assert(t, err, qt.ErrorIs, types.ErrNotConnected)
	qt.Assert(t, e.fake.TotalCalls(), qt.Equals, 0)

	e = newEnv(t)
	e.fake.SetDeployed(false)
	_, err = e.orch.Submit(ctx, types.RegisterCandidate, candidateParams())
	qt.Assert(t, err, qt.ErrorIs, types.ErrContractNotFound)
	qt.Assert(t, e.storage.Published, qt.Equals, 0)

	e = newEnv(t)
	p := candidateParams()
	p.Address = "bob"
	_, err = e.orch.Submit(ctx, types.RegisterCandidate, p)
	qt.Assert(t, err, qt.ErrorIs, types.ErrInvalidIdentityFormat)
	qt.Assert(t, e.storage.Published, qt.Equals, 0)

	e = newEnv(t)
	p.Address = "alice.eth"
	_, err = e.orch.Submit(ctx, types.RegisterCandidate, p)
	qt.Assert(t, err, qt.ErrorIs, types.ErrIdentityUnresolved)

	e = newEnv(t)
	e.storage.FailWith = errors.New("storage down")
	_, err = e.orch.Submit(ctx, types.RegisterCandidate, candidateParams())
	qt.Assert(t, types.Kind(err), qt.Equals, types.KindUploadFailed)
	qt.Assert(t, e.fake.Calls("estimateGas"), qt.Equals, 0)
}

func TestEstimationFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"revert", errors.New("execution reverted: candidate already registered"), types.KindContractRejected},
		{"funds", fmt.Errorf("estimating: %w", core.ErrInsufficientFunds), types.KindInsufficientFunds},
		{"other", errors.New("connection refused"), types.KindGasEstimationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.fake.SetEstimateError(tt.err)
			_, err := e.orch.Submit(context.Background(), types.RegisterCandidate, candidateParams())
			qt.Assert(t, types.Kind(err), qt.Equals, tt.kind, qt.Commentf("got %v", err))
			qt.Assert(t, e.fake.Sent(), qt.HasLen, 0)
			qt.Assert(t, e.recorder.collections(), qt.HasLen, 0)
		})
	}
}

func TestSubmissionFailures(t *testing.T) {
	ctx := context.Background()

	e := newEnv(t)
	e.wallet.reject = true
	_, err := e.orch.Submit(ctx, types.RegisterCandidate, candidateParams())
	qt.Assert(t, err, qt.ErrorIs, types.ErrUserRejected)
	qt.Assert(t, e.fake.Sent(), qt.HasLen, 0)

	e = newEnv(t)
	e.fake.SetSendError(errors.New("insufficient funds for gas * price + value"))
	_, err = e.orch.Submit(ctx, types.RegisterCandidate, candidateParams())
	qt.Assert(t, err, qt.ErrorIs, types.ErrInsufficientFunds)

	e = newEnv(t)
	e.fake.SetSendError(errors.New("503 service unavailable"))
	_, err = e.orch.Submit(ctx, types.RegisterCandidate, candidateParams())
	qt.Assert(t, err, qt.ErrorIs, types.ErrTransientNetwork)
	qt.Assert(t, e.recorder.collections(), qt.HasLen, 0)
}

func TestConfirmationTimeout(t *testing.T) {
	e := newEnv(t)
	e.fake.WithholdReceipts(true)
	e.orch.ConfirmTimeout = 300 * time.Millisecond

	errc := make(chan error, 1)
	go func() {
		_, err := e.orch.Submit(context.Background(), types.RegisterCandidate, candidateParams())
		errc <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	var pending []types.PendingTransaction
	for len(pending) == 0 && time.Now().Before(deadline) {
		pending = e.orch.Pending()
		time.Sleep(5 * time.Millisecond)
	}
	qt.Assert(t, pending, qt.HasLen, 1)
	qt.Assert(t, pending[0].Kind, qt.Equals, types.RegisterCandidate)
	qt.Assert(t, pending[0].ID, qt.Not(qt.Equals), "")
	qt.Assert(t, pending[0].TxHash, qt.Equals, e.fake.Sent()[0].Hash())

	err := <-errc
	qt.Assert(t, err, qt.ErrorIs, types.ErrConfirmationTimeout)
	qt.Assert(t, e.orch.Pending(), qt.HasLen, 0)
	// the outcome is unknown, readers must re-query
	qt.Assert(t, e.recorder.collections(), qt.DeepEquals, []types.Collection{types.Candidates})
}
