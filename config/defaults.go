package config

import (
	"time"

	"go.vocdoni.io/ballot/types"
)

// NetworkCfg holds the defaults of a known network
type NetworkCfg struct {
	Endpoints []string
	Contract  string
	Registry  string
}

// Networks is a map of the known networks indexed by name
var Networks = map[string]*NetworkCfg{
	// local development chain with the contract deployed by the first account
	"localhost": {
		Endpoints: []string{"ws://127.0.0.1:8545", "http://127.0.0.1:8545"},
		Contract:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
	},
	"sepolia": {
		Endpoints: []string{"https://rpc.sepolia.org"},
		Registry:  types.ENSRegistryAddress,
	},
	"mainnet": {
		Endpoints: []string{"https://cloudflare-eth.com"},
		Registry:  types.ENSRegistryAddress,
	},
}

// NetworkByName returns the defaults of the network, or an empty NetworkCfg if unknown
func NetworkByName(name string) *NetworkCfg {
	if cfg, found := Networks[name]; found {
		return cfg
	}
	return &NetworkCfg{}
}

// NewConfig returns a Config with the defaults of the localhost network
func NewConfig() *Config {
	network := NetworkByName("localhost")
	return &Config{
		Network:     "localhost",
		VotingTitle: "Election",
		LogLevel:    "info",
		LogOutput:   "stdout",
		Ethereum: EthereumCfg{
			Endpoints:    network.Endpoints,
			Contract:     network.Contract,
			DialRetries:  types.EthereumDialMaxRetry,
			PollInterval: types.EventPollInterval,
		},
		IPFS: IPFSCfg{
			API:             "http://127.0.0.1:5001",
			Gateway:         types.DefaultIPFSGateway,
			Timeout:         time.Minute,
			LogLevel:        "ERROR",
			UploadCacheSize: 128,
		},
		Wallet: WalletCfg{
			Keystore: "keystore",
		},
		API: APICfg{
			ListenHost:     "0.0.0.0",
			ListenPort:     9090,
			Route:          "/",
			AllowedOrigins: []string{"*"},
		},
		Metrics: MetricsCfg{
			RefreshInterval: 10,
		},
		Identity: IdentityCfg{
			Registry:  types.ENSRegistryAddress,
			CacheSize: 256,
			CacheTTL:  10 * time.Minute,
		},
		Cache: CacheCfg{
			Concurrency: types.CacheDetailConcurrency,
		},
		Transaction: TransactionCfg{
			ConfirmTimeout: types.EthereumConfirmTimeout,
		},
	}
}
