package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"go.vocdoni.io/ballot/types"
)

type fakeNames struct {
	records map[string]common.Address
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeNames) Lookup(ctx context.Context, name string) (common.Address, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return common.Address{}, ctx.Err()
		}
	}
	if f.err != nil {
		return common.Address{}, f.err
	}
	return f.records[name], nil
}

var bobAddr = common.HexToAddress("0x00000000000000000000000000000000000b0b00")

func newResolver(t *testing.T, ns NameService, opts Options) *Resolver {
	r, err := NewResolver(ns, opts)
	qt.Assert(t, err, qt.IsNil)
	return r
}

func TestResolveAddress(t *testing.T) {
	r := newResolver(t, nil, Options{})
	ctx := context.Background()

	addr, err := r.Resolve(ctx, "0xabcdef000000000000000000000000000000000a")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, addr.Hex(), qt.Equals, common.HexToAddress("0xABCDEF000000000000000000000000000000000A").Hex())

	// resolving the checksummed form returns it unchanged
	again, err := r.Resolve(ctx, addr.Hex())
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, again, qt.Equals, addr)

	trimmed, err := r.Resolve(ctx, "  "+addr.Hex()+"\n")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, trimmed, qt.Equals, addr)
}

func TestResolveInvalidFormat(t *testing.T) {
	r := newResolver(t, &fakeNames{}, Options{})
	for _, in := range []string{
		"",
		"   ",
		"bob",
		"0x1234",
		"0xZZCdef000000000000000000000000000000000A",
		"0xABCdef0000000000000000000000000000000A",
		"alice.com",
		".eth",
	} {
		_, err := r.Resolve(context.Background(), in)
		qt.Assert(t, err, qt.ErrorIs, types.ErrInvalidIdentityFormat, qt.Commentf("input %q", in))
	}
}

func TestResolveChecksum(t *testing.T) {
	r := newResolver(t, nil, Options{})
	ctx := context.Background()
	good := common.HexToAddress("0xabcdef000000000000000000000000000000000a").Hex()

	_, err := r.Resolve(ctx, good)
	qt.Assert(t, err, qt.IsNil)
	// single case inputs carry no checksum
	_, err = r.Resolve(ctx, "0xabcdef000000000000000000000000000000000a")
	qt.Assert(t, err, qt.IsNil)
	_, err = r.Resolve(ctx, "0xABCDEF000000000000000000000000000000000A")
	qt.Assert(t, err, qt.IsNil)

	_, err = r.Resolve(ctx, "0xABCdef000000000000000000000000000000000A")
	qt.Assert(t, err, qt.ErrorIs, types.ErrInvalidIdentityFormat)
}

func TestResolveDefaultRejectsBadChecksum(t *testing.T) {
	c := qt.New(t)
	r, err := NewResolver(nil, Options{})
	c.Assert(err, qt.IsNil)
	ctx := context.Background()

	// one letter of the checksummed form flipped to lower case
	_, err = r.Resolve(ctx, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	c.Assert(err, qt.ErrorIs, types.ErrInvalidIdentityFormat)

	addr, err := r.Resolve(ctx, "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	c.Assert(err, qt.IsNil)
	c.Assert(addr.Hex(), qt.Equals, "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	addr, err = r.Resolve(ctx, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	c.Assert(err, qt.IsNil)
	c.Assert(addr.Hex(), qt.Equals, "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
}

func TestResolveLenientChecksum(t *testing.T) {
	r := newResolver(t, nil, Options{LenientChecksum: true})
	addr, err := r.Resolve(context.Background(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, addr.Hex(), qt.Equals, "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
}

func TestResolveName(t *testing.T) {
	ns := &fakeNames{records: map[string]common.Address{"bob.eth": bobAddr}}
	r := newResolver(t, ns, Options{})

	addr, err := r.Resolve(context.Background(), " Bob.ETH ")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, addr, qt.Equals, bobAddr)

	_, err = r.Resolve(context.Background(), "alice.eth")
	qt.Assert(t, err, qt.ErrorIs, types.ErrIdentityUnresolved)
	qt.Assert(t, types.Kind(err), qt.Equals, types.KindIdentityUnresolved)
}

func TestResolveNameErrors(t *testing.T) {
	r := newResolver(t, &fakeNames{err: errors.New("node unreachable")}, Options{})
	_, err := r.Resolve(context.Background(), "bob.eth")
	qt.Assert(t, err, qt.ErrorIs, types.ErrIdentityUnresolved)

	r = newResolver(t, &fakeNames{delay: time.Second}, Options{Timeout: 10 * time.Millisecond})
	_, err = r.Resolve(context.Background(), "bob.eth")
	qt.Assert(t, err, qt.ErrorIs, types.ErrIdentityUnresolved)

	r = newResolver(t, nil, Options{})
	_, err = r.Resolve(context.Background(), "bob.eth")
	qt.Assert(t, err, qt.ErrorIs, types.ErrIdentityUnresolved)
}

func TestResolveNameCache(t *testing.T) {
	ns := &fakeNames{records: map[string]common.Address{"bob.eth": bobAddr}}
	r := newResolver(t, ns, Options{CacheSize: 8, CacheTTL: time.Minute})
	now := time.Now()
	r.timeNow = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		addr, err := r.Resolve(context.Background(), "bob.eth")
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, addr, qt.Equals, bobAddr)
	}
	qt.Assert(t, ns.calls, qt.Equals, 1)

	now = now.Add(2 * time.Minute)
	_, err := r.Resolve(context.Background(), "bob.eth")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ns.calls, qt.Equals, 2)

	// failures are not cached
	_, err = r.Resolve(context.Background(), "alice.eth")
	qt.Assert(t, err, qt.ErrorIs, types.ErrIdentityUnresolved)
	_, err = r.Resolve(context.Background(), "alice.eth")
	qt.Assert(t, err, qt.ErrorIs, types.ErrIdentityUnresolved)
	qt.Assert(t, ns.calls, qt.Equals, 4)
}

func TestSanitize(t *testing.T) {
	r := newResolver(t, nil, Options{})
	qt.Assert(t, r.Sanitize(" 0xab cd\tef "), qt.Equals, "0xabcdef")
	qt.Assert(t, r.Sanitize("  bob.eth "), qt.Equals, "bob.eth")
	qt.Assert(t, r.IsName("bob.eth"), qt.IsTrue)
	qt.Assert(t, r.IsName("bob.ETH"), qt.IsTrue)
	qt.Assert(t, r.IsName("bob"), qt.IsFalse)

	custom := newResolver(t, nil, Options{Suffixes: []string{".vote"}})
	qt.Assert(t, custom.IsName("bob.vote"), qt.IsTrue)
	qt.Assert(t, custom.IsName("bob.eth"), qt.IsFalse)
}
