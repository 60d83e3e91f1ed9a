// Package chaintest provides an in-memory Ethereum environment for tests: a simulated
// backend with a funded account and a Voting contract served at the RPC level.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind/backends"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"go.vocdoni.io/ballot/chain/contracts"
)

// DefaultGasEstimation is the raw estimation returned for Voting calls unless changed.
const DefaultGasEstimation = 100_000

// Simulated is a simulated chain with one funded account.
type Simulated struct {
	*backends.SimulatedBackend
	Key     *ecdsa.PrivateKey
	From    common.Address
	ChainID *big.Int
}

// NewSimulated returns a simulated chain whose account holds 100 ether.
func NewSimulated(tb testing.TB) *Simulated {
	key, err := crypto.GenerateKey()
	if err != nil {
		tb.Fatal(err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	balance := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))
	sim := backends.NewSimulatedBackend(core.GenesisAlloc{from: {Balance: balance}}, 30_000_000)
	tb.Cleanup(func() { sim.Close() })
	return &Simulated{
		SimulatedBackend: sim,
		Key:              key,
		From:             from,
		ChainID:          sim.Blockchain().Config().ChainID,
	}
}

// Deploy deploys a contract whose runtime code is runtime and returns its address.
func (s *Simulated) Deploy(tb testing.TB, runtime []byte) common.Address {
	ctx := context.Background()
	nonce, err := s.PendingNonceAt(ctx, s.From)
	if err != nil {
		tb.Fatal(err)
	}
	head, err := s.HeaderByNumber(ctx, nil)
	if err != nil {
		tb.Fatal(err)
	}
	tx := ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		ChainID:   s.ChainID,
		Nonce:     nonce,
		GasTipCap: big.NewInt(1),
		GasFeeCap: new(big.Int).Add(big.NewInt(1), new(big.Int).Mul(head.BaseFee, big.NewInt(2))),
		Gas:       1_000_000,
		Data:      InitCode(runtime),
	})
	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(s.ChainID), s.Key)
	if err != nil {
		tb.Fatal(err)
	}
	if err := s.SendTransaction(ctx, signed); err != nil {
		tb.Fatal(err)
	}
	s.Commit()
	receipt, err := s.TransactionReceipt(ctx, signed.Hash())
	if err != nil {
		tb.Fatal(err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		tb.Fatalf("deployment failed: %+v", receipt)
	}
	return receipt.ContractAddress
}

// InitCode returns the creation code that deploys runtime as is.
func InitCode(runtime []byte) []byte {
	n := byte(len(runtime))
	// PUSH1 n PUSH1 12 PUSH1 0 CODECOPY PUSH1 n PUSH1 0 RETURN
	init := []byte{0x60, n, 0x60, 0x0c, 0x60, 0x00, 0x39, 0x60, n, 0x60, 0x00, 0xf3}
	return append(init, runtime...)
}

// RevertRuntime returns runtime code that reverts every call with Error(reason).
// An empty reason reverts without data.
func RevertRuntime(reason string) []byte {
	if reason == "" {
		// PUSH1 0 PUSH1 0 REVERT
		return []byte{0x60, 0x00, 0x60, 0x00, 0xfd}
	}
	payload := RevertData(reason)
	n := byte(len(payload))
	// PUSH1 n PUSH1 12 PUSH1 0 CODECOPY PUSH1 n PUSH1 0 REVERT
	code := []byte{0x60, n, 0x60, 0x0c, 0x60, 0x00, 0x39, 0x60, n, 0x60, 0x00, 0xfd}
	return append(code, payload...)
}

// RevertData returns the ABI encoding of Error(reason).
func RevertData(reason string) []byte {
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	return append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)
}

// Candidate is the state of a candidate in the fake contract.
type Candidate struct {
	ID        *big.Int
	Address   common.Address
	Age       *big.Int
	Name      string
	Image     string
	Ipfs      string
	VoteCount *big.Int
}

// Voter is the state of a voter in the fake contract.
type Voter struct {
	ID      *big.Int
	Address common.Address
	Name    string
	Image   string
	Ipfs    string
	Allowed bool
	Voted   bool
}

// Voting serves a Voting contract from memory on top of a simulated chain.
// Reads, gas estimations, submissions and receipts addressed to the contract are
// answered by the fake, everything else goes to the simulated backend.
type Voting struct {
	*Simulated
	Address common.Address

	abi abi.ABI

	mu            sync.Mutex
	deployed      bool
	candidates    []*Candidate
	voters        []*Voter
	receipts      map[common.Hash]*ethtypes.Receipt
	calls         map[string]int
	sent          []*ethtypes.Transaction
	gasEstimation uint64
	estimateErr   error
	sendErr       error
	callErr       map[string]error
	detailErr     map[common.Address]error
	noReceipt     bool

	// CallGate, if set, is received from before answering the named read method.
	CallGate map[string]chan struct{}
}

// NewVoting returns a deployed, empty fake Voting contract.
func NewVoting(tb testing.TB) *Voting {
	parsed, err := abi.JSON(strings.NewReader(contracts.VotingABI))
	if err != nil {
		tb.Fatal(err)
	}
	return &Voting{
		Simulated:     NewSimulated(tb),
		Address:       common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		abi:           parsed,
		deployed:      true,
		receipts:      make(map[common.Hash]*ethtypes.Receipt),
		calls:         make(map[string]int),
		gasEstimation: DefaultGasEstimation,
		callErr:       make(map[string]error),
		detailErr:     make(map[common.Address]error),
		CallGate:      make(map[string]chan struct{}),
	}
}

// SetDeployed sets whether the contract has code.
func (v *Voting) SetDeployed(deployed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deployed = deployed
}

// SetGasEstimation sets the raw gas estimation returned for contract calls.
func (v *Voting) SetGasEstimation(gas uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gasEstimation = gas
}

// SetEstimateError makes every gas estimation fail with err.
func (v *Voting) SetEstimateError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.estimateErr = err
}

// SetSendError makes every submission fail with err.
func (v *Voting) SetSendError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sendErr = err
}

// SetCallError makes the read method fail with err. A nil err clears it.
func (v *Voting) SetCallError(method string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err == nil {
		delete(v.callErr, method)
		return
	}
	v.callErr[method] = err
}

// SetDetailError makes the detail read of addr fail with err.
func (v *Voting) SetDetailError(addr common.Address, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.detailErr[addr] = err
}

// WithholdReceipts keeps sent transactions unmined.
func (v *Voting) WithholdReceipts(withhold bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.noReceipt = withhold
}

// SetCallGate makes the named read method wait on gate before answering.
func (v *Voting) SetCallGate(method string, gate chan struct{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.CallGate[method] = gate
}

// Calls returns how many times method was called.
func (v *Voting) Calls(method string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls[method]
}

// TotalCalls returns how many requests addressed to the contract were answered.
func (v *Voting) TotalCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, c := range v.calls {
		n += c
	}
	return n
}

// Sent returns the transactions sent to the contract.
func (v *Voting) Sent() []*ethtypes.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*ethtypes.Transaction(nil), v.sent...)
}

// AddCandidate registers a candidate directly in the contract state.
func (v *Voting) AddCandidate(c Candidate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.addCandidate(c)
}

func (v *Voting) addCandidate(c Candidate) {
	if c.ID == nil {
		c.ID = big.NewInt(int64(len(v.candidates)))
	}
	if c.Age == nil {
		c.Age = big.NewInt(0)
	}
	if c.VoteCount == nil {
		c.VoteCount = big.NewInt(0)
	}
	v.candidates = append(v.candidates, &c)
}

// AddVoter authorizes a voter directly in the contract state.
func (v *Voting) AddVoter(vt Voter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.addVoter(vt)
}

func (v *Voting) addVoter(vt Voter) {
	if vt.ID == nil {
		vt.ID = big.NewInt(int64(len(v.voters)))
	}
	v.voters = append(v.voters, &vt)
}

// SetVoteCount overrides the vote count of a candidate.
func (v *Voting) SetVoteCount(addr common.Address, n int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if c := v.candidate(addr); c != nil {
		c.VoteCount = big.NewInt(n)
	}
}

func (v *Voting) candidate(addr common.Address) *Candidate {
	for _, c := range v.candidates {
		if c.Address == addr {
			return c
		}
	}
	return nil
}

func (v *Voting) voter(addr common.Address) *Voter {
	for _, vt := range v.voters {
		if vt.Address == addr {
			return vt
		}
	}
	return nil
}

// CodeAt returns fake code for the contract address.
func (v *Voting) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if contract != v.Address {
		return v.Simulated.CodeAt(ctx, contract, blockNumber)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls["getCode"]++
	if !v.deployed {
		return nil, nil
	}
	return []byte{0x60, 0x00}, nil
}

// PendingCodeAt returns fake code for the contract address.
func (v *Voting) PendingCodeAt(ctx context.Context, contract common.Address) ([]byte, error) {
	return v.CodeAt(ctx, contract, nil)
}

// CallContract answers the read methods of the contract.
func (v *Voting) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if call.To == nil || *call.To != v.Address {
		return v.Simulated.CallContract(ctx, call, blockNumber)
	}
	method, args, err := v.decode(call.Data)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.calls[method.Name]++
	gate := v.CallGate[method.Name]
	v.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.callErr[method.Name]; err != nil {
		return nil, err
	}
	var out []interface{}
	switch method.Name {
	case "getCandidateAddresses":
		addrs := []common.Address{}
		for _, c := range v.candidates {
			addrs = append(addrs, c.Address)
		}
		out = []interface{}{addrs}
	case "getCandidateCount":
		out = []interface{}{big.NewInt(int64(len(v.candidates)))}
	case "getCandidateDetail":
		addr := args[0].(common.Address)
		if err := v.detailErr[addr]; err != nil {
			return nil, err
		}
		c := v.candidate(addr)
		if c == nil {
			c = &Candidate{Age: big.NewInt(0), ID: big.NewInt(0), VoteCount: big.NewInt(0)}
		}
		out = []interface{}{c.Age, c.Name, c.ID, c.Image, c.VoteCount, c.Ipfs, c.Address}
	case "getVoterAddresses":
		addrs := []common.Address{}
		for _, vt := range v.voters {
			addrs = append(addrs, vt.Address)
		}
		out = []interface{}{addrs}
	case "getVoterCount":
		out = []interface{}{big.NewInt(int64(len(v.voters)))}
	case "getVoterDetail":
		addr := args[0].(common.Address)
		if err := v.detailErr[addr]; err != nil {
			return nil, err
		}
		vt := v.voter(addr)
		if vt == nil {
			vt = &Voter{ID: big.NewInt(0)}
		}
		allowed := big.NewInt(0)
		if vt.Allowed {
			allowed = big.NewInt(1)
		}
		out = []interface{}{vt.ID, vt.Name, vt.Image, vt.Address, vt.Ipfs, allowed, vt.Voted}
	case "getVotedVoterAddresses":
		addrs := []common.Address{}
		for _, vt := range v.voters {
			if vt.Voted {
				addrs = append(addrs, vt.Address)
			}
		}
		out = []interface{}{addrs}
	default:
		return nil, fmt.Errorf("method %s is not a read method", method.Name)
	}
	return method.Outputs.Pack(out...)
}

// EstimateGas returns the configured estimation for contract calls.
func (v *Voting) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if call.To == nil || *call.To != v.Address {
		return v.Simulated.EstimateGas(ctx, call)
	}
	if _, _, err := v.decode(call.Data); err != nil {
		return 0, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls["estimateGas"]++
	if v.estimateErr != nil {
		return 0, v.estimateErr
	}
	return v.gasEstimation, nil
}

// SendTransaction applies the transactions addressed to the contract and records a receipt.
func (v *Voting) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	if tx.To() == nil || *tx.To() != v.Address {
		return v.Simulated.SendTransaction(ctx, tx)
	}
	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(v.ChainID), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	method, args, err := v.decode(tx.Data())
	if err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls["sendTransaction"]++
	if v.sendErr != nil {
		return v.sendErr
	}
	v.sent = append(v.sent, tx)
	status := ethtypes.ReceiptStatusSuccessful
	if !v.apply(sender, method.Name, args) {
		status = ethtypes.ReceiptStatusFailed
	}
	if v.noReceipt {
		return nil
	}
	v.receipts[tx.Hash()] = &ethtypes.Receipt{
		Type:              tx.Type(),
		Status:            status,
		CumulativeGasUsed: tx.Gas() / 2,
		GasUsed:           tx.Gas() / 2,
		TxHash:            tx.Hash(),
		BlockNumber:       big.NewInt(int64(len(v.sent))),
	}
	return nil
}

// TransactionReceipt returns the receipts of the contract transactions.
func (v *Voting) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	v.mu.Lock()
	receipt, ok := v.receipts[txHash]
	v.mu.Unlock()
	if ok {
		return receipt, nil
	}
	if v.isSent(txHash) {
		return nil, ethereum.NotFound
	}
	return v.Simulated.TransactionReceipt(ctx, txHash)
}

func (v *Voting) isSent(hash common.Hash) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, tx := range v.sent {
		if tx.Hash() == hash {
			return true
		}
	}
	return false
}

// apply executes a write method; it returns false when the contract would revert.
func (v *Voting) apply(sender common.Address, method string, args []interface{}) bool {
	switch method {
	case "registerCandidate":
		addr := args[0].(common.Address)
		if v.candidate(addr) != nil {
			return false
		}
		v.addCandidate(Candidate{
			Address: addr,
			Age:     args[1].(*big.Int),
			Name:    args[2].(string),
			Image:   args[3].(string),
			Ipfs:    args[4].(string),
		})
	case "authorizeVoter":
		addr := args[0].(common.Address)
		if v.voter(addr) != nil {
			return false
		}
		v.addVoter(Voter{
			Address: addr,
			Name:    args[1].(string),
			Image:   args[2].(string),
			Ipfs:    args[3].(string),
			Allowed: true,
		})
	case "castVote":
		vt := v.voter(sender)
		c := v.candidate(args[0].(common.Address))
		if vt == nil || !vt.Allowed || vt.Voted || c == nil || c.ID.Cmp(args[1].(*big.Int)) != 0 {
			return false
		}
		vt.Voted = true
		c.VoteCount = new(big.Int).Add(c.VoteCount, big.NewInt(1))
	default:
		return false
	}
	return true
}

func (v *Voting) decode(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("calldata too short")
	}
	method, err := v.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	return method, args, nil
}
