package types

import "time"

const (
	// EthereumAddressSize is the size in bytes of an account identifier
	EthereumAddressSize = 20
	// EthereumReadTimeout is the maximum time a single read call against the node may take
	EthereumReadTimeout = 1 * time.Minute
	// EthereumWriteTimeout is the maximum time a submission call against the node may take
	EthereumWriteTimeout = 1 * time.Minute
	// EthereumDialMaxRetry is the number of dial attempts per endpoint
	EthereumDialMaxRetry = 10
	// EthereumDialRetryWait is the time waited between dial attempts
	EthereumDialRetryWait = 3 * time.Second
	// EthereumConfirmTimeout is the default bound for waiting a transaction to be mined
	EthereumConfirmTimeout = 5 * time.Minute

	// MinCandidateAge is the minimum age a candidate must have to be registered
	MinCandidateAge = 18
	// GasMarginPercent is the margin applied over a raw gas estimation
	GasMarginPercent = 20

	// MaxUploadSize is the maximum accepted size of an uploaded payload (5MB)
	MaxUploadSize = 5000000
	// DefaultIPFSGateway is the HTTP gateway used to rewrite ipfs locators
	DefaultIPFSGateway = "https://ipfs.io/ipfs/"
	// IPFSProtocolPrefix is the scheme returned by the storage for uploaded content
	IPFSProtocolPrefix = "ipfs://"

	// ENSRegistryAddress is the ENS registry, deployed at the same address on mainnet and testnets
	ENSRegistryAddress = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"
	// DefaultNameSuffix is the human readable name-service suffix resolved through ENS
	DefaultNameSuffix = ".eth"

	// CacheDetailConcurrency is the number of per-entity detail fetches run at once
	CacheDetailConcurrency = 8
	// CacheRefreshTimeout bounds a full refresh of one collection
	CacheRefreshTimeout = 5 * time.Minute
	// EventPollInterval is the log polling period when the node cannot push notifications
	EventPollInterval = 10 * time.Second
	// EventQueueSize is the maximum number of chain logs waiting to be processed
	EventQueueSize = 256
)
