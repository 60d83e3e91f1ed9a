package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
	"golang.org/x/net/idna"

	"go.vocdoni.io/ballot/chain/contracts"
)

// ENS resolves names through the ENS registry and the public resolver the
// registry points to.
type ENS struct {
	caller   bind.ContractCaller
	registry *contracts.EnsRegistryCaller
}

// NewENS returns an ENS lookup backed by the registry deployed at registryAddr.
func NewENS(caller bind.ContractCaller, registryAddr common.Address) (*ENS, error) {
	registry, err := contracts.NewEnsRegistryCaller(registryAddr, caller)
	if err != nil {
		return nil, fmt.Errorf("cannot create ens registry instance: %w", err)
	}
	return &ENS{caller: caller, registry: registry}, nil
}

// Lookup returns the address record of name. A name without resolver or without
// address record returns the zero address.
func (e *ENS) Lookup(ctx context.Context, name string) (common.Address, error) {
	nh, err := NameHash(name)
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot get ENS address of the given domain: %w", err)
	}
	opts := &bind.CallOpts{Context: ctx}
	resolverAddr, err := e.registry.Resolver(opts, nh)
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot get resolver of %s: %w", name, err)
	}
	if resolverAddr == (common.Address{}) {
		return common.Address{}, nil
	}
	resolver, err := contracts.NewPublicResolverCaller(resolverAddr, e.caller)
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot create resolver instance: %w", err)
	}
	addr, err := resolver.Addr(opts, nh)
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot get address record of %s: %w", name, err)
	}
	return addr, nil
}

// Normalize normalizes a name according to the ENS standard
func Normalize(input string) (output string, err error) {
	p := idna.New(idna.MapForLookup(), idna.StrictDomainName(false), idna.Transitional(false))
	output, err = p.ToUnicode(input)
	if err != nil {
		err = fmt.Errorf("cannot convert input to Unicode: %w", err)
	}
	// ToUnicode drops a leading period
	if strings.HasPrefix(input, ".") && !strings.HasPrefix(output, ".") {
		output = "." + output
	}
	return
}

// NameHashPart returns the namehash of label under the parent node currentHash.
func NameHashPart(currentHash [32]byte, label string) (hash [32]byte, err error) {
	sha := sha3.NewLegacyKeccak256()
	if _, err = sha.Write(currentHash[:]); err != nil {
		err = fmt.Errorf("nameHashPart: cannot generate sha3 of the given hash: %w", err)
		return
	}
	labelSha := sha3.NewLegacyKeccak256()
	if _, err = labelSha.Write([]byte(label)); err != nil {
		err = fmt.Errorf("nameHashPart: cannot generate sha3 of the given label: %w", err)
		return
	}
	if _, err = sha.Write(labelSha.Sum(nil)); err != nil {
		err = fmt.Errorf("nameHashPart: cannot generate sha3 of the computed namehash: %w", err)
		return
	}
	sha.Sum(hash[:0])
	return
}

// NameHash generates the node used to look up name in ENS
func NameHash(name string) (hash [32]byte, err error) {
	if name == "" {
		err = fmt.Errorf("nameHash: cannot create namehash of an empty name")
		return
	}
	normalizedName, err := Normalize(name)
	if err != nil {
		err = fmt.Errorf("nameHash: cannot normalize the given name: %w", err)
		return
	}
	parts := strings.Split(normalizedName, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		if hash, err = NameHashPart(hash, parts[i]); err != nil {
			err = fmt.Errorf("nameHash: cannot generate name hash part: %w", err)
			return
		}
	}
	return
}
