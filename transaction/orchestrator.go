// Package transaction turns registration and vote intents into validated, gas
// estimated and confirmed contract transactions.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"go.vocdoni.io/ballot/chain"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Contract is the contract surface used to send transactions.
type Contract interface {
	Address() common.Address
	ChainID() *big.Int
	Deployed(ctx context.Context) (bool, error)
	EstimateGas(ctx context.Context, from common.Address, call chain.Call) (uint64, error)
	Transact(opts *bind.TransactOpts, call chain.Call) (*ethtypes.Transaction, error)
	WaitMined(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error)
}

// Session provides the connected account and its signer.
type Session interface {
	EnsureConnected() (common.Address, error)
	TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// Resolver turns identity inputs into addresses.
type Resolver interface {
	Sanitize(input string) string
	Resolve(ctx context.Context, input string) (common.Address, error)
}

// Uploader publishes off-chain content.
type Uploader interface {
	Upload(ctx context.Context, payload []byte) (types.UploadResult, error)
	UploadJSON(ctx context.Context, v interface{}) (types.UploadResult, error)
	ToHTTPURL(locator string) string
}

// Invalidator is told which collections a confirmed transaction changed.
type Invalidator interface {
	Invalidate(types.Collection)
}

// Params are the user inputs of an operation. Registrations use Name, Address, Age
// and Image; votes use CandidateAddress and CandidateID.
type Params struct {
	Name             string   `json:"name,omitempty"`
	Address          string   `json:"address,omitempty"`
	Age              int      `json:"age,omitempty"`
	Image            []byte   `json:"image,omitempty"`
	CandidateAddress string   `json:"candidateAddress,omitempty"`
	CandidateID      *big.Int `json:"candidateId,omitempty"`
}

// GasLimit applies the safety margin to a raw estimation: floor(raw * 1.2).
func GasLimit(raw uint64) uint64 {
	limit := new(big.Int).SetUint64(raw)
	limit.Mul(limit, big.NewInt(100+types.GasMarginPercent))
	limit.Div(limit, big.NewInt(100))
	if !limit.IsUint64() {
		return math.MaxUint64
	}
	return limit.Uint64()
}

// Orchestrator sequences the steps of a submission. Independent submissions may
// run concurrently, each one is sequential.
type Orchestrator struct {
	contract    Contract
	session     Session
	resolver    Resolver
	uploader    Uploader
	invalidator Invalidator

	// ConfirmTimeout bounds the wait for inclusion
	ConfirmTimeout time.Duration

	mu      sync.Mutex
	pending map[string]types.PendingTransaction
	timeNow func() time.Time
}

// NewOrchestrator returns an Orchestrator. invalidator may be nil.
func NewOrchestrator(contract Contract, session Session, resolver Resolver, uploader Uploader,
	invalidator Invalidator) *Orchestrator {
	return &Orchestrator{
		contract:       contract,
		session:        session,
		resolver:       resolver,
		uploader:       uploader,
		invalidator:    invalidator,
		ConfirmTimeout: types.EthereumConfirmTimeout,
		pending:        make(map[string]types.PendingTransaction),
		timeNow:        time.Now,
	}
}

// Pending returns the transactions sent and not yet confirmed or failed, oldest first.
func (o *Orchestrator) Pending() []types.PendingTransaction {
	o.mu.Lock()
	defer o.mu.Unlock()
	list := make([]types.PendingTransaction, 0, len(o.pending))
	for _, p := range o.pending {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].SubmittedAt.Before(list[j].SubmittedAt) })
	return list
}

// Submit validates p, builds the op call, sends it signed by the session wallet
// and waits for its inclusion. On success the affected collections are invalidated
// and the receipt is returned. Nothing is applied locally before confirmation.
func (o *Orchestrator) Submit(ctx context.Context, op types.Operation, p Params) (*ethtypes.Receipt, error) {
	receipt, err := o.submit(ctx, op, p)
	if err != nil {
		TxFailed.WithLabelValues(op.String(), types.Kind(err)).Inc()
		log.Warnw("submission failed", "operation", op.String(), "kind", types.Kind(err), "error", err)
		return nil, err
	}
	return receipt, nil
}

func (o *Orchestrator) submit(ctx context.Context, op types.Operation, p Params) (*ethtypes.Receipt, error) {
	if err := o.validate(op, &p); err != nil {
		return nil, err
	}
	from, err := o.session.EnsureConnected()
	if err != nil {
		return nil, err
	}
	deployed, err := o.contract.Deployed(ctx)
	if err != nil {
		return nil, err
	}
	if !deployed {
		return nil, fmt.Errorf("%w: no code at %s", types.ErrContractNotFound, o.contract.Address().Hex())
	}
	call, err := o.buildCall(ctx, op, p)
	if err != nil {
		return nil, err
	}

	raw, err := o.contract.EstimateGas(ctx, from, call)
	if err != nil {
		var rejected *types.ContractRejectedError
		switch {
		case errors.As(err, &rejected), errors.Is(err, types.ErrInsufficientFunds):
			return nil, err
		default:
			return nil, &types.GasEstimationFailedError{Err: err}
		}
	}
	opts, err := o.session.TransactOpts(ctx, o.contract.ChainID())
	if err != nil {
		return nil, err
	}
	opts.GasLimit = GasLimit(raw)

	tx, err := o.contract.Transact(opts, call)
	if err != nil {
		return nil, err
	}
	TxSubmitted.WithLabelValues(op.String()).Inc()
	id := o.track(op, tx)
	defer o.untrack(id)
	log.Infow("transaction sent", "operation", op.String(), "hash", tx.Hash().Hex(),
		"gasLimit", opts.GasLimit, "rawGas", raw)

	start := o.timeNow()
	wctx, cancel := context.WithTimeout(ctx, o.ConfirmTimeout)
	defer cancel()
	receipt, err := o.contract.WaitMined(wctx, tx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			// the fate of the transaction is unknown, let readers re-query
			o.invalidate(op)
			return nil, fmt.Errorf("%w: %s not mined after %s", types.ErrConfirmationTimeout,
				tx.Hash().Hex(), o.ConfirmTimeout)
		}
		return nil, chain.ClassifyError(fmt.Errorf("cannot wait for %s: %w", tx.Hash().Hex(), err))
	}
	TxConfirmationTime.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, &types.ContractRejectedError{Reason: "transaction reverted"}
	}
	TxConfirmed.WithLabelValues(op.String()).Inc()
	log.Infow("transaction mined", "operation", op.String(), "hash", tx.Hash().Hex(),
		"block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)
	o.invalidate(op)
	return receipt, nil
}

// validate checks the required fields in the order name, address, age, image.
func (o *Orchestrator) validate(op types.Operation, p *Params) error {
	switch op {
	case types.RegisterCandidate, types.RegisterVoter:
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return types.NewValidationError("name", "required")
		}
		p.Address = o.resolver.Sanitize(p.Address)
		if p.Address == "" {
			return types.NewValidationError("address", "required")
		}
		if op == types.RegisterCandidate {
			if p.Age <= 0 {
				return types.NewValidationError("age", "required")
			}
			if p.Age < types.MinCandidateAge {
				return types.NewValidationError("age", fmt.Sprintf("must be at least %d", types.MinCandidateAge))
			}
		}
		if len(p.Image) == 0 {
			return types.NewValidationError("image", "required")
		}
		if len(p.Image) > types.MaxUploadSize {
			return types.NewValidationError("image", "larger than 5MB")
		}
	case types.CastVote:
		p.CandidateAddress = o.resolver.Sanitize(p.CandidateAddress)
		if p.CandidateAddress == "" {
			return types.NewValidationError("candidateAddress", "required")
		}
		if p.CandidateID == nil || p.CandidateID.Sign() < 0 {
			return types.NewValidationError("candidateId", "required")
		}
	default:
		return types.NewValidationError("operation", fmt.Sprintf("unknown operation %d", int(op)))
	}
	return nil
}

// buildCall resolves the identities and uploads the content of a validated request.
func (o *Orchestrator) buildCall(ctx context.Context, op types.Operation, p Params) (chain.Call, error) {
	if op == types.CastVote {
		candidate, err := o.resolver.Resolve(ctx, p.CandidateAddress)
		if err != nil {
			return chain.Call{}, err
		}
		return chain.CastVoteCall(candidate, p.CandidateID), nil
	}

	addr, err := o.resolver.Resolve(ctx, p.Address)
	if err != nil {
		return chain.Call{}, err
	}
	image, err := o.uploader.Upload(ctx, p.Image)
	if err != nil {
		return chain.Call{}, err
	}
	imageURL := o.uploader.ToHTTPURL(image.Locator)
	meta := types.EntityMetadata{
		Kind:      "candidate",
		Name:      p.Name,
		Address:   addr,
		Age:       p.Age,
		Image:     imageURL,
		CreatedAt: o.timeNow().UTC(),
	}
	if op == types.RegisterVoter {
		meta.Kind, meta.Age = "voter", 0
	}
	metadata, err := o.uploader.UploadJSON(ctx, meta)
	if err != nil {
		return chain.Call{}, err
	}
	metadataURL := o.uploader.ToHTTPURL(metadata.Locator)

	if op == types.RegisterCandidate {
		return chain.RegisterCandidateCall(addr, big.NewInt(int64(p.Age)), p.Name, imageURL, metadataURL), nil
	}
	return chain.AuthorizeVoterCall(addr, p.Name, imageURL, metadataURL), nil
}

func (o *Orchestrator) track(op types.Operation, tx *ethtypes.Transaction) string {
	id := uuid.New().String()
	o.mu.Lock()
	o.pending[id] = types.PendingTransaction{
		ID:          id,
		Kind:        op,
		SubmittedAt: o.timeNow(),
		TxHash:      tx.Hash(),
	}
	TxPending.Set(float64(len(o.pending)))
	o.mu.Unlock()
	return id
}

func (o *Orchestrator) untrack(id string) {
	o.mu.Lock()
	delete(o.pending, id)
	TxPending.Set(float64(len(o.pending)))
	o.mu.Unlock()
}

func (o *Orchestrator) invalidate(op types.Operation) {
	if o.invalidator == nil {
		return
	}
	for _, c := range op.Affects() {
		o.invalidator.Invalidate(c)
	}
}
