package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// EnsRegistryABI is the subset of the ENS registry ABI used to find the resolver of a node.
const EnsRegistryABI = "[{\"inputs\":[{\"internalType\":\"bytes32\",\"name\":\"node\",\"type\":\"bytes32\"}],\"name\":\"resolver\",\"outputs\":[{\"internalType\":\"address\",\"name\":\"\",\"type\":\"address\"}],\"stateMutability\":\"view\",\"type\":\"function\"}]"

// PublicResolverABI is the subset of the ENS public resolver ABI used to read address records.
const PublicResolverABI = "[{\"inputs\":[{\"internalType\":\"bytes32\",\"name\":\"node\",\"type\":\"bytes32\"}],\"name\":\"addr\",\"outputs\":[{\"internalType\":\"address\",\"name\":\"\",\"type\":\"address\"}],\"stateMutability\":\"view\",\"type\":\"function\"}]"

// EnsRegistryCaller is a read-only Go binding around the ENS registry.
type EnsRegistryCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// NewEnsRegistryCaller creates a new read-only instance of the ENS registry, bound to a specific deployed contract.
func NewEnsRegistryCaller(address common.Address, caller bind.ContractCaller) (*EnsRegistryCaller, error) {
	parsed, err := abi.JSON(strings.NewReader(EnsRegistryABI))
	if err != nil {
		return nil, err
	}
	return &EnsRegistryCaller{contract: bind.NewBoundContract(address, parsed, caller, nil, nil)}, nil
}

// Resolver is a free data retrieval call binding the contract method 0x0178b8bf.
//
// Solidity: function resolver(bytes32 node) view returns(address)
func (_EnsRegistry *EnsRegistryCaller) Resolver(opts *bind.CallOpts, node [32]byte) (common.Address, error) {
	var out []interface{}
	err := _EnsRegistry.contract.Call(opts, &out, "resolver", node)
	if err != nil {
		return *new(common.Address), err
	}

	out0 := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)

	return out0, err
}

// PublicResolverCaller is a read-only Go binding around an ENS resolver.
type PublicResolverCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// NewPublicResolverCaller creates a new read-only instance of an ENS resolver, bound to a specific deployed contract.
func NewPublicResolverCaller(address common.Address, caller bind.ContractCaller) (*PublicResolverCaller, error) {
	parsed, err := abi.JSON(strings.NewReader(PublicResolverABI))
	if err != nil {
		return nil, err
	}
	return &PublicResolverCaller{contract: bind.NewBoundContract(address, parsed, caller, nil, nil)}, nil
}

// Addr is a free data retrieval call binding the contract method 0x3b3b57de.
//
// Solidity: function addr(bytes32 node) view returns(address)
func (_PublicResolver *PublicResolverCaller) Addr(opts *bind.CallOpts, node [32]byte) (common.Address, error) {
	var out []interface{}
	err := _PublicResolver.contract.Call(opts, &out, "addr", node)
	if err != nil {
		return *new(common.Address), err
	}

	out0 := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)

	return out0, err
}
