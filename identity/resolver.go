// Package identity turns user supplied account identifiers, hex addresses or
// name-service names, into checksummed addresses.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"

	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
	"go.vocdoni.io/ballot/util"
)

// NameService returns the address record of a name, or the zero address when the
// name has none.
type NameService interface {
	Lookup(ctx context.Context, name string) (common.Address, error)
}

// Options tune a Resolver.
type Options struct {
	// Suffixes are the name-service suffixes, .eth if empty
	Suffixes []string
	// LenientChecksum accepts mixed-case addresses with a wrong EIP-55 checksum
	LenientChecksum bool
	// Timeout bounds a single name lookup
	Timeout time.Duration
	// CacheSize is the number of resolved names kept, 0 disables the cache
	CacheSize int
	// CacheTTL is how long a resolved name is trusted
	CacheTTL time.Duration
}

type cachedName struct {
	addr    common.Address
	expires time.Time
}

// Resolver resolves identity inputs.
type Resolver struct {
	ns      NameService
	opts    Options
	names   *lru.Cache
	timeNow func() time.Time
}

// NewResolver returns a Resolver using ns for names. ns may be nil, then every
// name fails to resolve.
func NewResolver(ns NameService, opts Options) (*Resolver, error) {
	if len(opts.Suffixes) == 0 {
		opts.Suffixes = []string{types.DefaultNameSuffix}
	}
	if opts.Timeout == 0 {
		opts.Timeout = types.EthereumReadTimeout
	}
	r := &Resolver{ns: ns, opts: opts, timeNow: time.Now}
	if opts.CacheSize > 0 {
		cache, err := lru.New(opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("cannot create name cache: %w", err)
		}
		r.names = cache
	}
	return r, nil
}

// IsName reports whether input ends in one of the name-service suffixes.
func (r *Resolver) IsName(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	for _, suffix := range r.opts.Suffixes {
		if len(s) > len(suffix) && strings.HasSuffix(s, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// Sanitize cleans an address field: names are trimmed, anything else has every
// whitespace removed.
func (r *Resolver) Sanitize(input string) string {
	if r.IsName(input) {
		return strings.TrimSpace(input)
	}
	return util.StripSpaces(input)
}

// Resolve returns the checksummed address input stands for. Hex addresses are
// validated locally, names are looked up in the name service.
func (r *Resolver) Resolve(ctx context.Context, input string) (common.Address, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return common.Address{}, fmt.Errorf("%w: empty input", types.ErrInvalidIdentityFormat)
	}
	if util.HasHexPrefix(s) && util.IsHexEncodedStringWithLength(s, types.EthereumAddressSize) {
		addr := common.HexToAddress(s)
		if !r.opts.LenientChecksum && isMixedCase(s[2:]) && addr.Hex()[2:] != s[2:] {
			return common.Address{}, fmt.Errorf("%w: bad checksum for %s", types.ErrInvalidIdentityFormat, s)
		}
		return addr, nil
	}
	if r.IsName(s) {
		return r.resolveName(ctx, strings.ToLower(s))
	}
	return common.Address{}, fmt.Errorf("%w: %q is neither an address nor a name", types.ErrInvalidIdentityFormat, s)
}

func (r *Resolver) resolveName(ctx context.Context, name string) (common.Address, error) {
	if r.names != nil {
		if v, ok := r.names.Get(name); ok {
			c := v.(cachedName)
			if r.timeNow().Before(c.expires) {
				return c.addr, nil
			}
			r.names.Remove(name)
		}
	}
	if r.ns == nil {
		return common.Address{}, fmt.Errorf("%w: no name service for %s", types.ErrIdentityUnresolved, name)
	}
	tctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	addr, err := r.ns.Lookup(tctx, name)
	if err != nil {
		log.Debugw("name lookup failed", "name", name, "error", err)
		return common.Address{}, fmt.Errorf("%w: %s: %v", types.ErrIdentityUnresolved, name, err)
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s has no address record", types.ErrIdentityUnresolved, name)
	}
	if r.names != nil {
		r.names.Add(name, cachedName{addr: addr, expires: r.timeNow().Add(r.opts.CacheTTL)})
	}
	log.Debugw("name resolved", "name", name, "address", addr.Hex())
	return addr, nil
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
