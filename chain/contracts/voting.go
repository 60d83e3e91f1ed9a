// Package contracts holds the go-ethereum bindings of the contracts used by the ballot
// client: the Voting contract and the ENS registry and resolver.
package contracts

import (
	"errors"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Reference imports to suppress errors if they are not otherwise used.
var (
	_ = errors.New
	_ = big.NewInt
	_ = strings.NewReader
	_ = ethereum.NotFound
	_ = bind.Bind
	_ = common.Big1
	_ = types.BloomLookup
	_ = event.NewSubscription
)

// VotingMetaData contains all meta data concerning the Voting contract.
var VotingMetaData = &bind.MetaData{
	ABI: VotingABI,
}

// VotingABI is the input ABI used to generate the binding from.
const VotingABI = "[{\"anonymous\":false,\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"candidateId\",\"type\":\"uint256\",\"indexed\":true},{\"internalType\":\"address\",\"name\":\"candidateAddress\",\"type\":\"address\",\"indexed\":true},{\"internalType\":\"string\",\"name\":\"name\",\"type\":\"string\",\"indexed\":false}],\"name\":\"CandidateRegistered\",\"type\":\"event\"},{\"anonymous\":false,\"inputs\":[{\"internalType\":\"address\",\"name\":\"voter\",\"type\":\"address\",\"indexed\":true},{\"internalType\":\"address\",\"name\":\"candidate\",\"type\":\"address\",\"indexed\":true},{\"internalType\":\"uint256\",\"name\":\"candidateId\",\"type\":\"uint256\",\"indexed\":false}],\"name\":\"VoteCast\",\"type\":\"event\"},{\"anonymous\":false,\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"voterId\",\"type\":\"uint256\",\"indexed\":true},{\"internalType\":\"address\",\"name\":\"voterAddress\",\"type\":\"address\",\"indexed\":true},{\"internalType\":\"string\",\"name\":\"name\",\"type\":\"string\",\"indexed\":false}],\"name\":\"VoterAuthorized\",\"type\":\"event\"},{\"inputs\":[{\"internalType\":\"address\",\"name\":\"_address\",\"type\":\"address\"},{\"internalType\":\"string\",\"name\":\"_name\",\"type\":\"string\"},{\"internalType\":\"string\",\"name\":\"_image\",\"type\":\"string\"},{\"internalType\":\"string\",\"name\":\"_ipfs\",\"type\":\"string\"}],\"name\":\"authorizeVoter\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"address\",\"name\":\"_candidateAddress\",\"type\":\"address\"},{\"internalType\":\"uint256\",\"name\":\"_candidateVoteId\",\"type\":\"uint256\"}],\"name\":\"castVote\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"getCandidateAddresses\",\"outputs\":[{\"internalType\":\"address[]\",\"name\":\"\",\"type\":\"address[]\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"getCandidateCount\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"\",\"type\":\"uint256\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"address\",\"name\":\"_address\",\"type\":\"address\"}],\"name\":\"getCandidateDetail\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"age\",\"type\":\"uint256\"},{\"internalType\":\"string\",\"name\":\"name\",\"type\":\"string\"},{\"internalType\":\"uint256\",\"name\":\"candidateId\",\"type\":\"uint256\"},{\"internalType\":\"string\",\"name\":\"image\",\"type\":\"string\"},{\"internalType\":\"uint256\",\"name\":\"voteCount\",\"type\":\"uint256\"},{\"internalType\":\"string\",\"name\":\"ipfs\",\"type\":\"string\"},{\"internalType\":\"address\",\"name\":\"candidateAddress\",\"type\":\"address\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"getVotedVoterAddresses\",\"outputs\":[{\"internalType\":\"address[]\",\"name\":\"\",\"type\":\"address[]\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"getVoterAddresses\",\"outputs\":[{\"internalType\":\"address[]\",\"name\":\"\",\"type\":\"address[]\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"getVoterCount\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"\",\"type\":\"uint256\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"address\",\"name\":\"_address\",\"type\":\"address\"}],\"name\":\"getVoterDetail\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"voterId\",\"type\":\"uint256\"},{\"internalType\":\"string\",\"name\":\"name\",\"type\":\"string\"},{\"internalType\":\"string\",\"name\":\"image\",\"type\":\"string\"},{\"internalType\":\"address\",\"name\":\"voterAddress\",\"type\":\"address\"},{\"internalType\":\"string\",\"name\":\"ipfs\",\"type\":\"string\"},{\"internalType\":\"uint256\",\"name\":\"allowed\",\"type\":\"uint256\"},{\"internalType\":\"bool\",\"name\":\"voted\",\"type\":\"bool\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"address\",\"name\":\"_address\",\"type\":\"address\"},{\"internalType\":\"uint256\",\"name\":\"_age\",\"type\":\"uint256\"},{\"internalType\":\"string\",\"name\":\"_name\",\"type\":\"string\"},{\"internalType\":\"string\",\"name\":\"_image\",\"type\":\"string\"},{\"internalType\":\"string\",\"name\":\"_ipfs\",\"type\":\"string\"}],\"name\":\"registerCandidate\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"}]"

// Voting is an auto generated Go binding around an Ethereum contract.
type Voting struct {
	VotingCaller     // Read-only binding to the contract
	VotingTransactor // Write-only binding to the contract
	VotingFilterer   // Log filterer for contract events
}

// VotingCaller is an auto generated read-only Go binding around an Ethereum contract.
type VotingCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// VotingTransactor is an auto generated write-only Go binding around an Ethereum contract.
type VotingTransactor struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// VotingFilterer is an auto generated log filtering Go binding around an Ethereum contract events.
type VotingFilterer struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// NewVoting creates a new instance of Voting, bound to a specific deployed contract.
func NewVoting(address common.Address, backend bind.ContractBackend) (*Voting, error) {
	contract, err := bindVoting(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &Voting{
		VotingCaller:     VotingCaller{contract: contract},
		VotingTransactor: VotingTransactor{contract: contract},
		VotingFilterer:   VotingFilterer{contract: contract},
	}, nil
}

// NewVotingCaller creates a new read-only instance of Voting, bound to a specific deployed contract.
func NewVotingCaller(address common.Address, caller bind.ContractCaller) (*VotingCaller, error) {
	contract, err := bindVoting(address, caller, nil, nil)
	if err != nil {
		return nil, err
	}
	return &VotingCaller{contract: contract}, nil
}

// NewVotingFilterer creates a new log filterer instance of Voting, bound to a specific deployed contract.
func NewVotingFilterer(address common.Address, filterer bind.ContractFilterer) (*VotingFilterer, error) {
	contract, err := bindVoting(address, nil, nil, filterer)
	if err != nil {
		return nil, err
	}
	return &VotingFilterer{contract: contract}, nil
}

// bindVoting binds a generic wrapper to an already deployed contract.
func bindVoting(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := abi.JSON(strings.NewReader(VotingABI))
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, parsed, caller, transactor, filterer), nil
}

// GetCandidateAddresses is a free data retrieval call binding the contract method getCandidateAddresses.
//
// Solidity: function getCandidateAddresses() view returns(address[])
func (_Voting *VotingCaller) GetCandidateAddresses(opts *bind.CallOpts) ([]common.Address, error) {
	var out []interface{}
	err := _Voting.contract.Call(opts, &out, "getCandidateAddresses")
	if err != nil {
		return *new([]common.Address), err
	}

	out0 := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)

	return out0, err
}

// GetCandidateCount is a free data retrieval call binding the contract method getCandidateCount.
//
// Solidity: function getCandidateCount() view returns(uint256)
func (_Voting *VotingCaller) GetCandidateCount(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _Voting.contract.Call(opts, &out, "getCandidateCount")
	if err != nil {
		return *new(*big.Int), err
	}

	out0 := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)

	return out0, err
}

// VotingCandidateDetail is the output of getCandidateDetail.
type VotingCandidateDetail struct {
	Age              *big.Int
	Name             string
	CandidateId      *big.Int
	Image            string
	VoteCount        *big.Int
	Ipfs             string
	CandidateAddress common.Address
}

// GetCandidateDetail is a free data retrieval call binding the contract method getCandidateDetail.
//
// Solidity: function getCandidateDetail(address _address) view returns(uint256 age, string name, uint256 candidateId, string image, uint256 voteCount, string ipfs, address candidateAddress)
func (_Voting *VotingCaller) GetCandidateDetail(opts *bind.CallOpts, _address common.Address) (VotingCandidateDetail, error) {
	var out []interface{}
	err := _Voting.contract.Call(opts, &out, "getCandidateDetail", _address)

	outstruct := new(VotingCandidateDetail)
	if err != nil {
		return *outstruct, err
	}

	outstruct.Age = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	outstruct.Name = *abi.ConvertType(out[1], new(string)).(*string)
	outstruct.CandidateId = *abi.ConvertType(out[2], new(*big.Int)).(**big.Int)
	outstruct.Image = *abi.ConvertType(out[3], new(string)).(*string)
	outstruct.VoteCount = *abi.ConvertType(out[4], new(*big.Int)).(**big.Int)
	outstruct.Ipfs = *abi.ConvertType(out[5], new(string)).(*string)
	outstruct.CandidateAddress = *abi.ConvertType(out[6], new(common.Address)).(*common.Address)

	return *outstruct, err
}

// GetVoterAddresses is a free data retrieval call binding the contract method getVoterAddresses.
//
// Solidity: function getVoterAddresses() view returns(address[])
func (_Voting *VotingCaller) GetVoterAddresses(opts *bind.CallOpts) ([]common.Address, error) {
	var out []interface{}
	err := _Voting.contract.Call(opts, &out, "getVoterAddresses")
	if err != nil {
		return *new([]common.Address), err
	}

	out0 := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)

	return out0, err
}

// GetVoterCount is a free data retrieval call binding the contract method getVoterCount.
//
// Solidity: function getVoterCount() view returns(uint256)
func (_Voting *VotingCaller) GetVoterCount(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	err := _Voting.contract.Call(opts, &out, "getVoterCount")
	if err != nil {
		return *new(*big.Int), err
	}

	out0 := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)

	return out0, err
}

// VotingVoterDetail is the output of getVoterDetail.
type VotingVoterDetail struct {
	VoterId      *big.Int
	Name         string
	Image        string
	VoterAddress common.Address
	Ipfs         string
	Allowed      *big.Int
	Voted        bool
}

// GetVoterDetail is a free data retrieval call binding the contract method getVoterDetail.
//
// Solidity: function getVoterDetail(address _address) view returns(uint256 voterId, string name, string image, address voterAddress, string ipfs, uint256 allowed, bool voted)
func (_Voting *VotingCaller) GetVoterDetail(opts *bind.CallOpts, _address common.Address) (VotingVoterDetail, error) {
	var out []interface{}
	err := _Voting.contract.Call(opts, &out, "getVoterDetail", _address)

	outstruct := new(VotingVoterDetail)
	if err != nil {
		return *outstruct, err
	}

	outstruct.VoterId = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	outstruct.Name = *abi.ConvertType(out[1], new(string)).(*string)
	outstruct.Image = *abi.ConvertType(out[2], new(string)).(*string)
	outstruct.VoterAddress = *abi.ConvertType(out[3], new(common.Address)).(*common.Address)
	outstruct.Ipfs = *abi.ConvertType(out[4], new(string)).(*string)
	outstruct.Allowed = *abi.ConvertType(out[5], new(*big.Int)).(**big.Int)
	outstruct.Voted = *abi.ConvertType(out[6], new(bool)).(*bool)

	return *outstruct, err
}

// GetVotedVoterAddresses is a free data retrieval call binding the contract method getVotedVoterAddresses.
//
// Solidity: function getVotedVoterAddresses() view returns(address[])
func (_Voting *VotingCaller) GetVotedVoterAddresses(opts *bind.CallOpts) ([]common.Address, error) {
	var out []interface{}
	err := _Voting.contract.Call(opts, &out, "getVotedVoterAddresses")
	if err != nil {
		return *new([]common.Address), err
	}

	out0 := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)

	return out0, err
}

// RegisterCandidate is a paid mutator transaction binding the contract method registerCandidate.
//
// Solidity: function registerCandidate(address _address, uint256 _age, string _name, string _image, string _ipfs) returns()
func (_Voting *VotingTransactor) RegisterCandidate(opts *bind.TransactOpts, _address common.Address, _age *big.Int, _name string, _image string, _ipfs string) (*types.Transaction, error) {
	return _Voting.contract.Transact(opts, "registerCandidate", _address, _age, _name, _image, _ipfs)
}

// AuthorizeVoter is a paid mutator transaction binding the contract method authorizeVoter.
//
// Solidity: function authorizeVoter(address _address, string _name, string _image, string _ipfs) returns()
func (_Voting *VotingTransactor) AuthorizeVoter(opts *bind.TransactOpts, _address common.Address, _name string, _image string, _ipfs string) (*types.Transaction, error) {
	return _Voting.contract.Transact(opts, "authorizeVoter", _address, _name, _image, _ipfs)
}

// CastVote is a paid mutator transaction binding the contract method castVote.
//
// Solidity: function castVote(address _candidateAddress, uint256 _candidateVoteId) returns()
func (_Voting *VotingTransactor) CastVote(opts *bind.TransactOpts, _candidateAddress common.Address, _candidateVoteId *big.Int) (*types.Transaction, error) {
	return _Voting.contract.Transact(opts, "castVote", _candidateAddress, _candidateVoteId)
}

// VotingCandidateRegistered represents a CandidateRegistered event raised by the Voting contract.
type VotingCandidateRegistered struct {
	CandidateId      *big.Int
	CandidateAddress common.Address
	Name             string
	Raw              types.Log // Blockchain specific contextual infos
}

// ParseCandidateRegistered is a log parse operation binding the contract event.
//
// Solidity: event CandidateRegistered(uint256 indexed candidateId, address indexed candidateAddress, string name)
func (_Voting *VotingFilterer) ParseCandidateRegistered(log types.Log) (*VotingCandidateRegistered, error) {
	event := new(VotingCandidateRegistered)
	if err := _Voting.contract.UnpackLog(event, "CandidateRegistered", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// VotingVoterAuthorized represents a VoterAuthorized event raised by the Voting contract.
type VotingVoterAuthorized struct {
	VoterId      *big.Int
	VoterAddress common.Address
	Name         string
	Raw          types.Log // Blockchain specific contextual infos
}

// ParseVoterAuthorized is a log parse operation binding the contract event.
//
// Solidity: event VoterAuthorized(uint256 indexed voterId, address indexed voterAddress, string name)
func (_Voting *VotingFilterer) ParseVoterAuthorized(log types.Log) (*VotingVoterAuthorized, error) {
	event := new(VotingVoterAuthorized)
	if err := _Voting.contract.UnpackLog(event, "VoterAuthorized", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}

// VotingVoteCast represents a VoteCast event raised by the Voting contract.
type VotingVoteCast struct {
	Voter       common.Address
	Candidate   common.Address
	CandidateId *big.Int
	Raw         types.Log // Blockchain specific contextual infos
}

// ParseVoteCast is a log parse operation binding the contract event.
//
// Solidity: event VoteCast(address indexed voter, address indexed candidate, uint256 candidateId)
func (_Voting *VotingFilterer) ParseVoteCast(log types.Log) (*VotingVoteCast, error) {
	event := new(VotingVoteCast)
	if err := _Voting.contract.UnpackLog(event, "VoteCast", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}
