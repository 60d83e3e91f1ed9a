package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Prompter asks the wallet owner to authorize requests.
type Prompter interface {
	// SelectAccount returns the index of the chosen account
	SelectAccount(accounts []common.Address) (int, error)
	Passphrase(account common.Address) (string, error)
	// ConfirmTx reports whether the owner accepts to sign tx
	ConfirmTx(account common.Address, tx *ethtypes.Transaction, chainID *big.Int) (bool, error)
}

// Keystore is a wallet backed by a go-ethereum keystore directory. Accounts are only
// exposed after the owner selected and unlocked one through the Prompter, and every
// transaction needs the owner confirmation.
type Keystore struct {
	ks       *keystore.KeyStore
	prompter Prompter

	mu         sync.Mutex
	authorized *accounts.Account
	feed       event.Feed
	walletSub  event.Subscription
	quit       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// NewKeystore opens the keystore at dir. scryptN and scryptP are only used for
// new accounts, use keystore.StandardScryptN and keystore.StandardScryptP.
func NewKeystore(dir string, scryptN, scryptP int, prompter Prompter) *Keystore {
	k := &Keystore{
		ks:       keystore.NewKeyStore(dir, scryptN, scryptP),
		prompter: prompter,
		quit:     make(chan struct{}),
	}
	events := make(chan accounts.WalletEvent, 8)
	k.walletSub = k.ks.Subscribe(events)
	k.wg.Add(1)
	go k.watch(events)
	return k
}

// KeyStore returns the underlying keystore.
func (k *Keystore) KeyStore() *keystore.KeyStore { return k.ks }

// Accounts returns the authorized account, if any, without prompting.
func (k *Keystore) Accounts(ctx context.Context) ([]common.Address, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.authorized == nil {
		return nil, nil
	}
	return []common.Address{k.authorized.Address}, nil
}

// RequestAccounts asks the owner to select and unlock an account.
func (k *Keystore) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	all := k.ks.Accounts()
	if len(all) == 0 || k.prompter == nil {
		return nil, fmt.Errorf("%w: no accounts in keystore", types.ErrWalletUnavailable)
	}
	addrs := make([]common.Address, len(all))
	for i, a := range all {
		addrs[i] = a.Address
	}
	idx, err := k.prompter.SelectAccount(addrs)
	if err != nil {
		return nil, promptError(err)
	}
	if idx < 0 || idx >= len(all) {
		return nil, fmt.Errorf("invalid account index %d", idx)
	}
	account := all[idx]
	passphrase, err := k.prompter.Passphrase(account.Address)
	if err != nil {
		return nil, promptError(err)
	}
	if err := k.ks.Unlock(account, passphrase); err != nil {
		return nil, fmt.Errorf("%w: cannot unlock %s: %v", types.ErrUserRejected, account.Address, err)
	}
	log.Infow("keystore account unlocked", "address", account.Address.Hex())
	k.setAuthorized(&account)
	return []common.Address{account.Address}, nil
}

// SignTx asks the owner to confirm tx and signs it with the authorized account.
func (k *Keystore) SignTx(ctx context.Context, account common.Address, tx *ethtypes.Transaction,
	chainID *big.Int) (*ethtypes.Transaction, error) {
	k.mu.Lock()
	authorized := k.authorized
	k.mu.Unlock()
	if authorized == nil || authorized.Address != account {
		return nil, fmt.Errorf("%w: account %s is not authorized", types.ErrNotConnected, account)
	}
	if k.prompter != nil {
		ok, err := k.prompter.ConfirmTx(account, tx, chainID)
		if err != nil {
			return nil, promptError(err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: transaction declined", types.ErrUserRejected)
		}
	}
	signed, err := k.ks.SignTx(*authorized, tx, chainID)
	if err != nil {
		if errors.Is(err, keystore.ErrLocked) {
			return nil, fmt.Errorf("%w: %v", types.ErrNotConnected, err)
		}
		return nil, err
	}
	return signed, nil
}

// Lock locks the authorized account and notifies an empty account list.
func (k *Keystore) Lock() error {
	k.mu.Lock()
	authorized := k.authorized
	k.mu.Unlock()
	if authorized == nil {
		return nil
	}
	if err := k.ks.Lock(authorized.Address); err != nil {
		return err
	}
	k.setAuthorized(nil)
	return nil
}

// SubscribeAccountChanges delivers the authorized accounts every time they change.
func (k *Keystore) SubscribeAccountChanges(ch chan<- []common.Address) event.Subscription {
	return k.feed.Subscribe(ch)
}

// Close stops watching the keystore directory.
func (k *Keystore) Close() {
	k.closeOnce.Do(func() {
		k.walletSub.Unsubscribe()
		close(k.quit)
		k.wg.Wait()
	})
}

func (k *Keystore) setAuthorized(account *accounts.Account) {
	k.mu.Lock()
	prev := k.authorized
	k.authorized = account
	k.mu.Unlock()
	switch {
	case account == nil && prev == nil:
		return
	case account != nil && prev != nil && account.Address == prev.Address:
		return
	}
	var addrs []common.Address
	if account != nil {
		addrs = []common.Address{account.Address}
	}
	k.feed.Send(addrs)
}

// watch drops the authorization when the authorized key file disappears.
func (k *Keystore) watch(events <-chan accounts.WalletEvent) {
	defer k.wg.Done()
	for {
		select {
		case <-k.quit:
			return
		case ev := <-events:
			if ev.Kind != accounts.WalletDropped {
				continue
			}
			k.mu.Lock()
			authorized := k.authorized
			k.mu.Unlock()
			if authorized != nil && ev.Wallet.Contains(*authorized) {
				log.Warnw("authorized keystore account removed", "address", authorized.Address.Hex())
				k.setAuthorized(nil)
			}
		}
	}
}

func promptError(err error) error {
	if errors.Is(err, ErrAborted) {
		return fmt.Errorf("%w: %v", types.ErrUserRejected, err)
	}
	return err
}
