package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config stores the global configuration of a ballot node
type Config struct {
	// DataDir is the path where the config file and the keystore live
	DataDir string
	// Network selects the defaults of a known network (see Networks)
	Network string
	// VotingTitle is the election title shown to the voters
	VotingTitle string
	// LogLevel logging level (debug, info, warn, error, fatal)
	LogLevel string
	// LogOutput logging output (stdout, stderr or a file path)
	LogOutput string
	// LogErrorFile mirrors warnings and errors to a file
	LogErrorFile string
	// SaveConfig overwrites the config file with the CLI flags
	SaveConfig bool

	Ethereum    EthereumCfg
	IPFS        IPFSCfg
	Wallet      WalletCfg
	API         APICfg
	Metrics     MetricsCfg
	Identity    IdentityCfg
	Cache       CacheCfg
	Transaction TransactionCfg
}

// EthereumCfg stores the node and contract settings
type EthereumCfg struct {
	// Endpoints are the web3 endpoints, tried in order
	Endpoints []string
	// Contract is the address of the Voting contract
	Contract string
	// ChainID overrides the chain id reported by the node when not zero
	ChainID uint64
	// DialRetries is the number of dial attempts per endpoint
	DialRetries int
	// FromBlock replays the contract events since this block, 0 disables it
	FromBlock uint64
	// PollInterval is the log polling period for endpoints without subscriptions
	PollInterval time.Duration
}

// IPFSCfg stores the content storage settings
type IPFSCfg struct {
	// API is the URL of the IPFS HTTP API
	API string
	// Gateway is the HTTP gateway locators are rewritten to
	Gateway string
	// Timeout bounds a storage request
	Timeout time.Duration
	// LogLevel of the IPFS subsystems
	LogLevel string
	// UploadCacheSize is the number of uploads remembered for dedupe
	UploadCacheSize int
}

// WalletCfg selects the account provider
type WalletCfg struct {
	// Keystore is the keystore directory, relative paths are joined to the DataDir
	Keystore string
	// SigningKey, if set, is a hex private key used instead of the keystore
	SigningKey string
	// LightKDF uses the light scrypt parameters for new keys
	LightKDF bool
	// AutoConfirm signs transactions without asking
	AutoConfirm bool
}

// APICfg stores the HTTP API settings
type APICfg struct {
	// ListenHost is the address the API listens on
	ListenHost string
	// ListenPort is the port the API listens on
	ListenPort int
	// Route is the base path of the API
	Route string
	// AllowedOrigins for CORS requests
	AllowedOrigins []string
	// SSLDomain enables HTTPS with a letsencrypt certificate (ListenPort 443 is required)
	SSLDomain string
}

// MetricsCfg stores the prometheus settings
type MetricsCfg struct {
	// Enabled exposes the metrics on the API router
	Enabled bool
	// RefreshInterval is the period of the collectors that poll (seconds)
	RefreshInterval int
}

// IdentityCfg stores the name resolution settings
type IdentityCfg struct {
	// Registry is the ENS registry address
	Registry string
	// LenientChecksum accepts mixed-case addresses with a wrong checksum
	LenientChecksum bool
	// CacheSize is the number of resolved names kept, 0 disables the cache
	CacheSize int
	// CacheTTL is how long a resolved name is trusted
	CacheTTL time.Duration
}

// CacheCfg stores the read model settings
type CacheCfg struct {
	// Concurrency is the number of detail fetches run at once
	Concurrency int
}

// TransactionCfg stores the submission settings
type TransactionCfg struct {
	// ConfirmTimeout bounds the wait for a transaction to be mined
	ConfirmTimeout time.Duration
}

// Error helps to handle better config errors on startup
type Error struct {
	// Critical indicates if the error encountered is critical and the app must be stopped
	Critical bool
	// Message error message
	Message string
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if len(c.Ethereum.Endpoints) == 0 {
		return fmt.Errorf("no ethereum endpoints")
	}
	if !common.IsHexAddress(c.Ethereum.Contract) {
		return fmt.Errorf("invalid contract address %q", c.Ethereum.Contract)
	}
	if c.Identity.Registry != "" && !common.IsHexAddress(c.Identity.Registry) {
		return fmt.Errorf("invalid ENS registry address %q", c.Identity.Registry)
	}
	if c.API.ListenPort < 0 || c.API.ListenPort > 65535 {
		return fmt.Errorf("invalid listen port %d", c.API.ListenPort)
	}
	return nil
}
