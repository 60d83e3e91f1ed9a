// Package session keeps track of the wallet account the client acts on behalf of.
package session

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"go.vocdoni.io/ballot/chain"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Wallet is the account provider a session authorizes against.
type Wallet interface {
	// Accounts returns the already authorized accounts without prompting
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts asks the owner to authorize an account
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	SignTx(ctx context.Context, account common.Address, tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
	SubscribeAccountChanges(ch chan<- []common.Address) event.Subscription
}

// Manager owns the session state. It is created Disconnected and only becomes
// Connected after the wallet reports an authorized account.
type Manager struct {
	wallet Wallet

	mu      sync.RWMutex
	state   types.ConnectionState
	account common.Address

	subOnce sync.Once
	sub     event.Subscription
	wg      sync.WaitGroup
}

// NewManager returns a disconnected session over wallet. A nil wallet means no
// wallet is available.
func NewManager(wallet Wallet) *Manager {
	return &Manager{wallet: wallet, state: types.Disconnected}
}

// Init silently checks for an already authorized account and starts following the
// wallet account changes. It never prompts.
func (m *Manager) Init(ctx context.Context) error {
	if m.wallet == nil {
		log.Infof("no wallet available, session stays disconnected")
		return nil
	}
	m.watch()
	accounts, err := m.wallet.Accounts(ctx)
	if err != nil {
		return chain.ClassifyError(fmt.Errorf("cannot query wallet accounts: %w", err))
	}
	if len(accounts) > 0 {
		m.set(types.Connected, accounts[0])
	}
	return nil
}

// Connect asks the wallet to authorize an account. A dismissed request returns
// ErrUserRejected and leaves the session as it was.
func (m *Manager) Connect(ctx context.Context) (common.Address, error) {
	if m.wallet == nil {
		return common.Address{}, types.ErrWalletUnavailable
	}
	m.watch()
	m.mu.Lock()
	prevState, prevAccount := m.state, m.account
	m.state = types.Connecting
	m.mu.Unlock()

	accounts, err := m.wallet.RequestAccounts(ctx)
	if err == nil && len(accounts) == 0 {
		err = fmt.Errorf("%w: no account authorized", types.ErrUserRejected)
	}
	if err != nil {
		m.mu.Lock()
		if m.state == types.Connecting {
			m.state, m.account = prevState, prevAccount
		}
		m.mu.Unlock()
		return common.Address{}, chain.ClassifyError(err)
	}
	m.set(types.Connected, accounts[0])
	return accounts[0], nil
}

// CurrentAccount returns the connected account.
func (m *Manager) CurrentAccount() (common.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.account, m.state == types.Connected
}

// State returns a copy of the session.
func (m *Manager) State() types.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := types.Session{State: m.state}
	if m.state == types.Connected {
		addr := m.account
		s.Address = &addr
	}
	return s
}

// Disconnect forgets the connected account.
func (m *Manager) Disconnect() {
	m.set(types.Disconnected, common.Address{})
}

// EnsureConnected returns the connected account, ErrWalletUnavailable without a
// wallet or ErrNotConnected when no account is authorized.
func (m *Manager) EnsureConnected() (common.Address, error) {
	if m.wallet == nil {
		return common.Address{}, types.ErrWalletUnavailable
	}
	account, ok := m.CurrentAccount()
	if !ok {
		return common.Address{}, types.ErrNotConnected
	}
	return account, nil
}

// TransactOpts returns the options to send a transaction signed by the wallet on
// behalf of the connected account.
func (m *Manager) TransactOpts(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	account, err := m.EnsureConnected()
	if err != nil {
		return nil, err
	}
	return &bind.TransactOpts{
		From:    account,
		Context: ctx,
		Signer: func(addr common.Address, tx *ethtypes.Transaction) (*ethtypes.Transaction, error) {
			if addr != account {
				return nil, bind.ErrNotAuthorized
			}
			return m.wallet.SignTx(ctx, addr, tx, chainID)
		},
	}, nil
}

// Close stops following the wallet account changes.
func (m *Manager) Close() {
	m.mu.Lock()
	sub := m.sub
	m.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
	m.wg.Wait()
}

func (m *Manager) set(state types.ConnectionState, account common.Address) {
	m.mu.Lock()
	changed := m.state != state || m.account != account
	m.state, m.account = state, account
	m.mu.Unlock()
	if changed {
		log.Infow("session changed", "state", state.String(), "address", account.Hex())
	}
}

// watch subscribes once to the wallet account changes.
func (m *Manager) watch() {
	m.subOnce.Do(func() {
		changes := make(chan []common.Address, 4)
		sub := m.wallet.SubscribeAccountChanges(changes)
		m.mu.Lock()
		m.sub = sub
		m.mu.Unlock()
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			for {
				select {
				case <-sub.Err():
					return
				case accounts := <-changes:
					if len(accounts) == 0 {
						m.set(types.Disconnected, common.Address{})
						continue
					}
					m.set(types.Connected, accounts[0])
				}
			}
		}()
	})
}
