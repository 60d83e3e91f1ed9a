package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	qt "github.com/frankban/quicktest"

	"go.vocdoni.io/ballot/cache"
	"go.vocdoni.io/ballot/chain"
	"go.vocdoni.io/ballot/chain/chaintest"
	"go.vocdoni.io/ballot/transaction"
	"go.vocdoni.io/ballot/types"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	carol = common.HexToAddress("0x00000000000000000000000000000000000000c0")
)

type submission struct {
	op     types.Operation
	params transaction.Params
}

type fakeSubmitter struct {
	mu   sync.Mutex
	err  error
	got  []submission
	pend []types.PendingTransaction
}

func (f *fakeSubmitter) Submit(ctx context.Context, op types.Operation, p transaction.Params) (*ethtypes.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, submission{op: op, params: p})
	if f.err != nil {
		return nil, f.err
	}
	return &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0x01"),
		BlockNumber: big.NewInt(7),
		GasUsed:     21000,
	}, nil
}

func (f *fakeSubmitter) Pending() []types.PendingTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pend
}

func (f *fakeSubmitter) set(err error, pending []types.PendingTransaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err, f.pend = err, pending
}

func (f *fakeSubmitter) submissions() []submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]submission(nil), f.got...)
}

type fakeSession struct {
	mu    sync.Mutex
	state types.Session
	err   error
}

func (f *fakeSession) State() types.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSession) Connect(ctx context.Context) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return common.Address{}, f.err
	}
	addr := alice
	f.state = types.Session{State: types.Connected, Address: &addr}
	return addr, nil
}

type testAPI struct {
	server    *httptest.Server
	fake      *chaintest.Voting
	cache     *cache.Cache
	submitter *fakeSubmitter
	session   *fakeSession
}

func newTestAPI(t *testing.T) *testAPI {
	fake := chaintest.NewVoting(t)
	vh, err := chain.NewVotingHandle(fake, fake.Address, fake.ChainID)
	qt.Assert(t, err, qt.IsNil)
	fake.AddCandidate(chaintest.Candidate{Address: alice, Name: "Alice", Age: big.NewInt(30)})
	fake.AddVoter(chaintest.Voter{Address: carol, Name: "Carol", Allowed: true, Voted: true})
	fake.AddVoter(chaintest.Voter{Address: alice, Name: "Alice", Allowed: true})
	c := cache.New(vh)
	ta := &testAPI{
		fake:      fake,
		cache:     c,
		submitter: &fakeSubmitter{},
		session:   &fakeSession{state: types.Session{State: types.Disconnected}},
	}
	ta.server = httptest.NewServer(NewAPI(c, ta.submitter, ta.session, "Student council").Handler())
	t.Cleanup(ta.server.Close)
	return ta
}

func (ta *testAPI) request(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		qt.Assert(t, err, qt.IsNil)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ta.server.URL+path, reader)
	qt.Assert(t, err, qt.IsNil)
	resp, err := http.DefaultClient.Do(req)
	qt.Assert(t, err, qt.IsNil)
	defer resp.Body.Close()
	if out != nil {
		qt.Assert(t, json.NewDecoder(resp.Body).Decode(out), qt.IsNil)
	}
	return resp.StatusCode
}

func TestReadEndpoints(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)

	var candidates Candidates
	c.Assert(ta.request(t, http.MethodGet, "/candidates", nil, &candidates), qt.Equals, http.StatusOK)
	c.Assert(candidates.Candidates, qt.HasLen, 0)

	c.Assert(ta.request(t, http.MethodPost, "/refresh/candidates", nil, nil), qt.Equals, http.StatusNoContent)
	c.Assert(ta.request(t, http.MethodPost, "/refresh/voters", nil, nil), qt.Equals, http.StatusNoContent)

	c.Assert(ta.request(t, http.MethodGet, "/candidates", nil, &candidates), qt.Equals, http.StatusOK)
	c.Assert(candidates.Candidates, qt.HasLen, 1)
	c.Assert(candidates.Candidates[0].Name, qt.Equals, "Alice")
	c.Assert(candidates.Count, qt.Equals, uint64(1))
	c.Assert(candidates.Error, qt.IsNil)

	var voters Voters
	c.Assert(ta.request(t, http.MethodGet, "/voters", nil, &voters), qt.Equals, http.StatusOK)
	c.Assert(voters.Voters, qt.HasLen, 2)
	c.Assert(ta.request(t, http.MethodGet, "/voters/voted", nil, &voters), qt.Equals, http.StatusOK)
	c.Assert(voters.Voters, qt.HasLen, 1)
	c.Assert(voters.Voters[0].Address, qt.Equals, carol)

	var stats types.Stats
	c.Assert(ta.request(t, http.MethodGet, "/stats", nil, &stats), qt.Equals, http.StatusOK)
	c.Assert(stats, qt.DeepEquals, types.Stats{CandidateCount: 1, VoterCount: 2, Voted: 1, NotVoted: 1, Progress: 50})
}

func TestRefreshErrors(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)

	var apiErr Error
	c.Assert(ta.request(t, http.MethodPost, "/refresh/elections", nil, &apiErr), qt.Equals, http.StatusBadRequest)
	c.Assert(apiErr.Kind, qt.Equals, types.KindValidationError)

	ta.fake.SetCallError("getVoterAddresses", errors.New("connection refused"))
	c.Assert(ta.request(t, http.MethodPost, "/refresh/voters", nil, &apiErr), qt.Equals, http.StatusServiceUnavailable)
	c.Assert(apiErr.Kind, qt.Equals, types.KindTransientNetworkError)

	var voters Voters
	c.Assert(ta.request(t, http.MethodGet, "/voters", nil, &voters), qt.Equals, http.StatusOK)
	c.Assert(voters.Error, qt.Not(qt.IsNil))
	c.Assert(voters.Error.Kind, qt.Equals, types.KindTransientNetworkError)
}

func TestSession(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)

	var s map[string]interface{}
	c.Assert(ta.request(t, http.MethodGet, "/session", nil, &s), qt.Equals, http.StatusOK)
	c.Assert(s["state"], qt.Equals, "disconnected")
	c.Assert(s["votingTitle"], qt.Equals, "Student council")

	c.Assert(ta.request(t, http.MethodPost, "/session/connect", nil, &s), qt.Equals, http.StatusOK)
	c.Assert(s["state"], qt.Equals, "connected")
	c.Assert(s["address"], qt.Equals, strings.ToLower(alice.Hex()))

	ta.session.fail(fmt.Errorf("%w: dismissed", types.ErrUserRejected))
	var apiErr Error
	c.Assert(ta.request(t, http.MethodPost, "/session/connect", nil, &apiErr), qt.Equals, http.StatusForbidden)
	c.Assert(apiErr.Kind, qt.Equals, types.KindUserRejected)
}

func TestSubmit(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(t)

	var receipt Receipt
	status := ta.request(t, http.MethodPost, "/candidates", map[string]interface{}{
		"name":    "Bob",
		"address": "bob.eth",
		"age":     40,
		"image":   []byte("bob.png"),
	}, &receipt)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(receipt.BlockNumber, qt.Equals, uint64(7))
	got := ta.submitter.submissions()
	c.Assert(got, qt.HasLen, 1)
	c.Assert(got[0].op, qt.Equals, types.RegisterCandidate)
	c.Assert(got[0].params.Image, qt.DeepEquals, []byte("bob.png"))
	c.Assert(got[0].params.Age, qt.Equals, 40)

	status = ta.request(t, http.MethodPost, "/votes", `{"candidateAddress":"bob.eth","candidateId":3}`, &receipt)
	c.Assert(status, qt.Equals, http.StatusOK)
	got = ta.submitter.submissions()
	c.Assert(got[1].op, qt.Equals, types.CastVote)
	c.Assert(got[1].params.CandidateID.Int64(), qt.Equals, int64(3))

	var apiErr Error
	c.Assert(ta.request(t, http.MethodPost, "/voters", `{"name":`, &apiErr), qt.Equals, http.StatusBadRequest)
	c.Assert(apiErr.Kind, qt.Equals, types.KindValidationError)
	c.Assert(ta.submitter.submissions(), qt.HasLen, 2)
}

func TestSubmitErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{types.NewValidationError("age", "must be at least 18"), http.StatusBadRequest, types.KindValidationError},
		{fmt.Errorf("%w: bob", types.ErrIdentityUnresolved), http.StatusUnprocessableEntity, types.KindIdentityUnresolved},
		{types.ErrNotConnected, http.StatusUnauthorized, types.KindNotConnected},
		{&types.ContractRejectedError{Reason: "already voted"}, http.StatusConflict, types.KindContractRejected},
		{fmt.Errorf("%w: tx", types.ErrConfirmationTimeout), http.StatusGatewayTimeout, types.KindConfirmationTimeout},
		{&types.UploadFailedError{Err: errors.New("down")}, http.StatusBadGateway, types.KindUploadFailed},
		{errors.New("unexpected"), http.StatusInternalServerError, types.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			ta := newTestAPI(t)
			ta.submitter.set(tt.err, nil)
			var apiErr Error
			status := ta.request(t, http.MethodPost, "/voters", `{"name":"Bob"}`, &apiErr)
			qt.Assert(t, status, qt.Equals, tt.status)
			qt.Assert(t, apiErr.Kind, qt.Equals, tt.kind)
			qt.Assert(t, apiErr.Message, qt.Equals, tt.err.Error())
		})
	}
}

func TestValidationErrorField(t *testing.T) {
	ta := newTestAPI(t)
	ta.submitter.set(types.NewValidationError("image", "required"), nil)
	var apiErr Error
	qt.Assert(t, ta.request(t, http.MethodPost, "/candidates", `{}`, &apiErr), qt.Equals, http.StatusBadRequest)
	qt.Assert(t, apiErr.Field, qt.Equals, "image")
}

func TestOversizedBody(t *testing.T) {
	ta := newTestAPI(t)
	var apiErr Error
	status := ta.request(t, http.MethodPost, "/voters", strings.Repeat("a", MaxRequestBodySize+1), &apiErr)
	qt.Assert(t, status, qt.Equals, http.StatusBadRequest)
	qt.Assert(t, apiErr.Field, qt.Equals, "body")
	qt.Assert(t, ta.submitter.submissions(), qt.HasLen, 0)
}

func TestPending(t *testing.T) {
	ta := newTestAPI(t)
	ta.submitter.set(nil, []types.PendingTransaction{{ID: "a", Kind: types.CastVote}})
	var resp struct {
		Pending []map[string]interface{} `json:"pending"`
	}
	qt.Assert(t, ta.request(t, http.MethodGet, "/pending", nil, &resp), qt.Equals, http.StatusOK)
	qt.Assert(t, resp.Pending, qt.HasLen, 1)
	qt.Assert(t, resp.Pending[0]["kind"], qt.Equals, "castVote")
}
