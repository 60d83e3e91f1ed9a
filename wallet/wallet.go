// Package wallet implements the wallet providers a session can authorize against:
// an encrypted keystore unlocked through a prompt, and a raw private key.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"

	"go.vocdoni.io/ballot/types"
	"go.vocdoni.io/ballot/util"
)

// ErrAborted is returned by a Prompter when the user dismisses the prompt.
var ErrAborted = errors.New("prompt aborted")

// Key is a wallet holding a single private key. Its account is always authorized.
type Key struct {
	key  *ecdsa.PrivateKey
	addr common.Address
	feed event.Feed
}

// NewKey returns a Key wallet from a hex encoded private key.
func NewKey(hexKey string) (*Key, error) {
	key, err := crypto.HexToECDSA(util.TrimHex(hexKey))
	if err != nil {
		return nil, fmt.Errorf("cannot decode private key: %w", err)
	}
	return NewKeyFromECDSA(key), nil
}

// NewKeyFromECDSA returns a Key wallet holding key.
func NewKeyFromECDSA(key *ecdsa.PrivateKey) *Key {
	return &Key{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// Address returns the account of the key.
func (k *Key) Address() common.Address { return k.addr }

// Accounts returns the key account.
func (k *Key) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{k.addr}, nil
}

// RequestAccounts returns the key account.
func (k *Key) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{k.addr}, nil
}

// SignTx signs tx for chainID with the key.
func (k *Key) SignTx(ctx context.Context, account common.Address, tx *ethtypes.Transaction,
	chainID *big.Int) (*ethtypes.Transaction, error) {
	if account != k.addr {
		return nil, fmt.Errorf("%w: account %s is not managed by this wallet", types.ErrNotConnected, account)
	}
	return ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), k.key)
}

// SubscribeAccountChanges never delivers, the key account does not change.
func (k *Key) SubscribeAccountChanges(ch chan<- []common.Address) event.Subscription {
	return k.feed.Subscribe(ch)
}
