package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"go.vocdoni.io/ballot/chain/contracts"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Call is a state changing contract method with its final arguments.
type Call struct {
	Method string
	Args   []interface{}
}

// RegisterCandidateCall builds the registerCandidate call.
func RegisterCandidateCall(addr common.Address, age *big.Int, name, imageURL, metadataURL string) Call {
	return Call{Method: "registerCandidate", Args: []interface{}{addr, age, name, imageURL, metadataURL}}
}

// AuthorizeVoterCall builds the authorizeVoter call.
func AuthorizeVoterCall(addr common.Address, name, imageURL, metadataURL string) Call {
	return Call{Method: "authorizeVoter", Args: []interface{}{addr, name, imageURL, metadataURL}}
}

// CastVoteCall builds the castVote call.
func CastVoteCall(candidate common.Address, candidateID *big.Int) Call {
	return Call{Method: "castVote", Args: []interface{}{candidate, candidateID}}
}

// VotingHandle is the exportable abstraction over the Voting contract binding.
// Read methods wrap the typed binding, writes go through the generic bound contract
// so that they can be packed, estimated and sent with the same arguments.
type VotingHandle struct {
	backend Backend
	address common.Address
	chainID *big.Int
	abi     abi.ABI
	caller  *contracts.VotingCaller
	bound   *bind.BoundContract
}

// NewVotingHandle binds the Voting contract deployed at address.
func NewVotingHandle(backend Backend, address common.Address, chainID *big.Int) (*VotingHandle, error) {
	parsed, err := abi.JSON(strings.NewReader(contracts.VotingABI))
	if err != nil {
		return nil, fmt.Errorf("cannot read voting contract abi: %w", err)
	}
	caller, err := contracts.NewVotingCaller(address, backend)
	if err != nil {
		log.Errorf("error constructing contracts handle: %s", err)
		return nil, fmt.Errorf("cannot create voting contract instance: %w", err)
	}
	return &VotingHandle{
		backend: backend,
		address: address,
		chainID: chainID,
		abi:     parsed,
		caller:  caller,
		bound:   bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the contract address.
func (vh *VotingHandle) Address() common.Address { return vh.address }

// ChainID returns the chain id transactions are signed for.
func (vh *VotingHandle) ChainID() *big.Int { return vh.chainID }

// ABI returns the parsed contract ABI.
func (vh *VotingHandle) ABI() abi.ABI { return vh.abi }

// Backend returns the node backend the handle is bound to.
func (vh *VotingHandle) Backend() Backend { return vh.backend }

func (vh *VotingHandle) callOpts(ctx context.Context) (*bind.CallOpts, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(ctx, types.EthereumReadTimeout)
	return &bind.CallOpts{Context: tctx}, cancel
}

// failed classifies err and accounts it on the contract error counter.
func failed(err error) error {
	err = ClassifyError(err)
	ContractCallErrors.WithLabelValues(types.Kind(err)).Inc()
	return err
}

// Deployed reports whether there is code at the contract address.
func (vh *VotingHandle) Deployed(ctx context.Context) (bool, error) {
	tctx, cancel := context.WithTimeout(ctx, types.EthereumReadTimeout)
	defer cancel()
	code, err := vh.backend.CodeAt(tctx, vh.address, nil)
	if err != nil {
		return false, failed(err)
	}
	return len(code) > 0, nil
}

// CandidateAddresses returns the addresses of every registered candidate.
func (vh *VotingHandle) CandidateAddresses(ctx context.Context) ([]common.Address, error) {
	opts, cancel := vh.callOpts(ctx)
	defer cancel()
	addrs, err := vh.caller.GetCandidateAddresses(opts)
	if err != nil {
		return nil, failed(fmt.Errorf("cannot get candidate addresses: %w", err))
	}
	return addrs, nil
}

// CandidateCount returns the number of registered candidates.
func (vh *VotingHandle) CandidateCount(ctx context.Context) (*big.Int, error) {
	opts, cancel := vh.callOpts(ctx)
	defer cancel()
	n, err := vh.caller.GetCandidateCount(opts)
	if err != nil {
		return nil, failed(fmt.Errorf("cannot get candidate count: %w", err))
	}
	return n, nil
}

// Candidate returns the detail of the candidate registered with addr.
func (vh *VotingHandle) Candidate(ctx context.Context, addr common.Address) (*types.Candidate, error) {
	opts, cancel := vh.callOpts(ctx)
	defer cancel()
	d, err := vh.caller.GetCandidateDetail(opts, addr)
	if err != nil {
		return nil, failed(fmt.Errorf("cannot get candidate %s: %w", addr, err))
	}
	if d.CandidateAddress == (common.Address{}) {
		return nil, fmt.Errorf("candidate %s not found", addr)
	}
	return &types.Candidate{
		ID:          types.NewBigInt(d.CandidateId),
		Address:     d.CandidateAddress,
		Name:        d.Name,
		Age:         types.NewBigInt(d.Age),
		ImageURL:    d.Image,
		VoteCount:   types.NewBigInt(d.VoteCount),
		MetadataURL: d.Ipfs,
	}, nil
}

// VoterAddresses returns the addresses of every authorized voter.
func (vh *VotingHandle) VoterAddresses(ctx context.Context) ([]common.Address, error) {
	opts, cancel := vh.callOpts(ctx)
	defer cancel()
	addrs, err := vh.caller.GetVoterAddresses(opts)
	if err != nil {
		return nil, failed(fmt.Errorf("cannot get voter addresses: %w", err))
	}
	return addrs, nil
}

// VoterCount returns the number of authorized voters.
func (vh *VotingHandle) VoterCount(ctx context.Context) (*big.Int, error) {
	opts, cancel := vh.callOpts(ctx)
	defer cancel()
	n, err := vh.caller.GetVoterCount(opts)
	if err != nil {
		return nil, failed(fmt.Errorf("cannot get voter count: %w", err))
	}
	return n, nil
}

// Voter returns the detail of the voter authorized with addr.
func (vh *VotingHandle) Voter(ctx context.Context, addr common.Address) (*types.Voter, error) {
	opts, cancel := vh.callOpts(ctx)
	defer cancel()
	d, err := vh.caller.GetVoterDetail(opts, addr)
	if err != nil {
		return nil, failed(fmt.Errorf("cannot get voter %s: %w", addr, err))
	}
	if d.VoterAddress == (common.Address{}) {
		return nil, fmt.Errorf("voter %s not found", addr)
	}
	return &types.Voter{
		ID:          types.NewBigInt(d.VoterId),
		Name:        d.Name,
		Address:     d.VoterAddress,
		ImageURL:    d.Image,
		MetadataURL: d.Ipfs,
		Allowed:     d.Allowed != nil && d.Allowed.Sign() > 0,
		HasVoted:    d.Voted,
	}, nil
}

// VotedVoterAddresses returns the addresses of the voters that already voted.
func (vh *VotingHandle) VotedVoterAddresses(ctx context.Context) ([]common.Address, error) {
	opts, cancel := vh.callOpts(ctx)
	defer cancel()
	addrs, err := vh.caller.GetVotedVoterAddresses(opts)
	if err != nil {
		return nil, failed(fmt.Errorf("cannot get voted voter addresses: %w", err))
	}
	return addrs, nil
}

// Pack returns the calldata of call.
func (vh *VotingHandle) Pack(call Call) ([]byte, error) {
	data, err := vh.abi.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("cannot pack %s: %w", call.Method, err)
	}
	return data, nil
}

// EstimateGas returns the raw gas estimation of call sent from from. The error is
// classified, a revert during simulation is a ContractRejectedError.
func (vh *VotingHandle) EstimateGas(ctx context.Context, from common.Address, call Call) (uint64, error) {
	data, err := vh.Pack(call)
	if err != nil {
		return 0, err
	}
	tctx, cancel := context.WithTimeout(ctx, types.EthereumReadTimeout)
	defer cancel()
	to := vh.address
	gas, err := vh.backend.EstimateGas(tctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return 0, failed(err)
	}
	return gas, nil
}

// Transact signs and sends call with opts. opts.GasLimit should be set, otherwise
// the bound contract estimates it again.
func (vh *VotingHandle) Transact(opts *bind.TransactOpts, call Call) (*ethtypes.Transaction, error) {
	tx, err := vh.bound.Transact(opts, call.Method, call.Args...)
	if err != nil {
		return nil, failed(fmt.Errorf("cannot send %s: %w", call.Method, err))
	}
	return tx, nil
}

// WaitMined blocks until tx is included in a block or ctx is done.
func (vh *VotingHandle) WaitMined(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
	return bind.WaitMined(ctx, vh.backend, tx)
}
