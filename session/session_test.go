package session

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	qt "github.com/frankban/quicktest"

	"go.vocdoni.io/ballot/types"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fakeWallet struct {
	accounts    []common.Address
	accountsErr error
	request     []common.Address
	requestErr  error
	requests    int
	signed      int
	feed        event.Feed
}

func (f *fakeWallet) Accounts(context.Context) ([]common.Address, error) {
	return f.accounts, f.accountsErr
}

func (f *fakeWallet) RequestAccounts(context.Context) ([]common.Address, error) {
	f.requests++
	return f.request, f.requestErr
}

func (f *fakeWallet) SignTx(ctx context.Context, account common.Address, tx *ethtypes.Transaction,
	chainID *big.Int) (*ethtypes.Transaction, error) {
	f.signed++
	return tx, nil
}

func (f *fakeWallet) SubscribeAccountChanges(ch chan<- []common.Address) event.Subscription {
	return f.feed.Subscribe(ch)
}

func waitState(t *testing.T, m *Manager, state types.ConnectionState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.State().State != state {
		if time.Now().After(deadline) {
			t.Fatalf("session state %s, expected %s", m.State().State, state)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestInitSilent(t *testing.T) {
	w := &fakeWallet{accounts: []common.Address{alice, bob}}
	m := NewManager(w)
	defer m.Close()
	qt.Assert(t, m.State().State, qt.Equals, types.Disconnected)

	qt.Assert(t, m.Init(context.Background()), qt.IsNil)
	qt.Assert(t, w.requests, qt.Equals, 0)
	account, ok := m.CurrentAccount()
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, account, qt.Equals, alice)
	qt.Assert(t, *m.State().Address, qt.Equals, alice)
}

func TestInitWithoutAccounts(t *testing.T) {
	m := NewManager(&fakeWallet{})
	defer m.Close()
	qt.Assert(t, m.Init(context.Background()), qt.IsNil)
	qt.Assert(t, m.State().State, qt.Equals, types.Disconnected)
	qt.Assert(t, m.State().Address, qt.IsNil)
	_, err := m.EnsureConnected()
	qt.Assert(t, err, qt.ErrorIs, types.ErrNotConnected)
}

func TestNoWallet(t *testing.T) {
	m := NewManager(nil)
	defer m.Close()
	qt.Assert(t, m.Init(context.Background()), qt.IsNil)
	_, err := m.Connect(context.Background())
	qt.Assert(t, err, qt.ErrorIs, types.ErrWalletUnavailable)
	_, err = m.EnsureConnected()
	qt.Assert(t, err, qt.ErrorIs, types.ErrWalletUnavailable)
	_, err = m.TransactOpts(context.Background(), big.NewInt(1))
	qt.Assert(t, err, qt.ErrorIs, types.ErrWalletUnavailable)
}

func TestConnect(t *testing.T) {
	w := &fakeWallet{request: []common.Address{bob}}
	m := NewManager(w)
	defer m.Close()
	account, err := m.Connect(context.Background())
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, account, qt.Equals, bob)
	qt.Assert(t, m.State().State, qt.Equals, types.Connected)

	opts, err := m.TransactOpts(context.Background(), big.NewInt(1337))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, opts.From, qt.Equals, bob)
	_, err = opts.Signer(bob, ethtypes.NewTx(&ethtypes.LegacyTx{}))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, w.signed, qt.Equals, 1)
	_, err = opts.Signer(alice, ethtypes.NewTx(&ethtypes.LegacyTx{}))
	qt.Assert(t, err, qt.ErrorIs, bind.ErrNotAuthorized)

	m.Disconnect()
	qt.Assert(t, m.State().State, qt.Equals, types.Disconnected)
}

func TestConnectRejected(t *testing.T) {
	w := &fakeWallet{requestErr: errors.New("User rejected the request.")}
	m := NewManager(w)
	defer m.Close()
	_, err := m.Connect(context.Background())
	qt.Assert(t, err, qt.ErrorIs, types.ErrUserRejected)
	qt.Assert(t, m.State().State, qt.Equals, types.Disconnected)

	// an already connected session survives a dismissed request
	w.accounts = []common.Address{alice}
	qt.Assert(t, m.Init(context.Background()), qt.IsNil)
	_, err = m.Connect(context.Background())
	qt.Assert(t, err, qt.ErrorIs, types.ErrUserRejected)
	account, ok := m.CurrentAccount()
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, account, qt.Equals, alice)

	w.requestErr = nil
	_, err = m.Connect(context.Background())
	qt.Assert(t, err, qt.ErrorIs, types.ErrUserRejected)
}

func TestAccountChanges(t *testing.T) {
	w := &fakeWallet{accounts: []common.Address{alice}}
	m := NewManager(w)
	qt.Assert(t, m.Init(context.Background()), qt.IsNil)

	w.feed.Send([]common.Address{bob})
	waitState(t, m, types.Connected)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if a, _ := m.CurrentAccount(); a == bob {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("account change not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.feed.Send([]common.Address{})
	waitState(t, m, types.Disconnected)

	m.Close()
	// no listener left after close
	qt.Assert(t, w.feed.Send([]common.Address{alice}), qt.Equals, 0)
}
