package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go.vocdoni.io/ballot/config"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/service"
	"go.vocdoni.io/ballot/types"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

func newConfig() (*config.Config, config.Error) {
	var cfgError config.Error
	// create base config
	globalCfg := config.NewConfig()
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, config.Error{
			Critical: true,
			Message:  fmt.Sprintf("cannot get user home directory with error: %s", err),
		}
	}

	// CLI flags have preference over the config file
	// Booleans should be passed to the CLI as: var=True/false

	// global
	flag.StringVarP(&globalCfg.DataDir, "dataDir", "d", home+"/.ballot",
		"directory where data is stored")
	flag.StringVarP(&globalCfg.Network, "network", "n", globalCfg.Network,
		fmt.Sprintf("network defaults to use (%s)", strings.Join(networkNames(), ", ")))
	flag.StringVar(&globalCfg.VotingTitle, "votingTitle", globalCfg.VotingTitle,
		"election title shown to the voters")
	flag.StringVarP(&globalCfg.LogLevel, "logLevel", "l", globalCfg.LogLevel,
		"log level (debug, info, warn, error, fatal)")
	flag.StringVar(&globalCfg.LogOutput, "logOutput", globalCfg.LogOutput,
		"log output (stdout, stderr or filepath)")
	flag.StringVar(&globalCfg.LogErrorFile, "logErrorFile", "",
		"log errors and warnings to a file")
	flag.BoolVar(&globalCfg.SaveConfig, "saveConfig", false,
		"overwrite an existing config file with the provided CLI flags")
	// ethereum
	flag.StringSliceVarP(&globalCfg.Ethereum.Endpoints, "ethEndpoints", "w", globalCfg.Ethereum.Endpoints,
		"comma-separated list of web3 endpoints (ws, http or ipc), tried in order")
	flag.StringVarP(&globalCfg.Ethereum.Contract, "contract", "c", globalCfg.Ethereum.Contract,
		"address of the voting contract")
	flag.Uint64Var(&globalCfg.Ethereum.ChainID, "chainId", 0,
		"chain id used to sign transactions (zero asks the node)")
	flag.IntVar(&globalCfg.Ethereum.DialRetries, "ethDialRetries", globalCfg.Ethereum.DialRetries,
		"dial attempts per web3 endpoint")
	flag.Uint64Var(&globalCfg.Ethereum.FromBlock, "fromBlock", 0,
		"replay the contract events since this block (zero disables it)")
	flag.DurationVar(&globalCfg.Ethereum.PollInterval, "ethPollInterval", globalCfg.Ethereum.PollInterval,
		"contract logs polling period when the endpoint has no subscriptions")
	// ipfs
	flag.StringVar(&globalCfg.IPFS.API, "ipfsApi", globalCfg.IPFS.API,
		"URL of the IPFS HTTP API used to publish the metadata")
	flag.StringVar(&globalCfg.IPFS.Gateway, "ipfsGateway", globalCfg.IPFS.Gateway,
		"HTTP gateway the content locators are rewritten to")
	flag.DurationVar(&globalCfg.IPFS.Timeout, "ipfsTimeout", globalCfg.IPFS.Timeout,
		"timeout of a content storage request")
	flag.StringVar(&globalCfg.IPFS.LogLevel, "ipfsLogLevel", globalCfg.IPFS.LogLevel,
		"IPFS subsystems log level")
	// wallet
	flag.StringVar(&globalCfg.Wallet.Keystore, "keystore", globalCfg.Wallet.Keystore,
		"keystore directory, relative to the data dir if not absolute")
	flag.StringVarP(&globalCfg.Wallet.SigningKey, "signingKey", "k", "",
		"hex private key used instead of the keystore")
	flag.BoolVar(&globalCfg.Wallet.LightKDF, "lightKdf", false,
		"use the light scrypt parameters for new keystore accounts")
	flag.BoolVar(&globalCfg.Wallet.AutoConfirm, "autoConfirm", false,
		"sign transactions without asking for confirmation")
	// api
	flag.StringVar(&globalCfg.API.ListenHost, "listenHost", globalCfg.API.ListenHost,
		"API endpoint listen address")
	flag.IntVarP(&globalCfg.API.ListenPort, "listenPort", "p", globalCfg.API.ListenPort,
		"API endpoint http port")
	flag.StringVar(&globalCfg.API.Route, "apiRoute", globalCfg.API.Route,
		"ballot HTTP API base route")
	flag.StringSliceVar(&globalCfg.API.AllowedOrigins, "apiAllowedOrigins", globalCfg.API.AllowedOrigins,
		"comma-separated list of CORS allowed origins")
	flag.StringVar(&globalCfg.API.SSLDomain, "sslDomain", "",
		"enable TLS-secure domain with LetsEncrypt (listenPort=443 is required)")
	// identity
	flag.StringVar(&globalCfg.Identity.Registry, "ensRegistry", globalCfg.Identity.Registry,
		"ENS registry address (empty disables name resolution)")
	flag.BoolVar(&globalCfg.Identity.LenientChecksum, "lenientChecksum", false,
		"accept mixed-case addresses with a wrong checksum")
	// read model and transactions
	flag.IntVar(&globalCfg.Cache.Concurrency, "fetchConcurrency", globalCfg.Cache.Concurrency,
		"number of entity details fetched at once")
	flag.DurationVar(&globalCfg.Transaction.ConfirmTimeout, "confirmTimeout", globalCfg.Transaction.ConfirmTimeout,
		"maximum wait for a submitted transaction to be mined")
	// metrics
	flag.BoolVar(&globalCfg.Metrics.Enabled, "metricsEnabled", false,
		"enable prometheus metrics")
	flag.IntVar(&globalCfg.Metrics.RefreshInterval, "metricsRefreshInterval", globalCfg.Metrics.RefreshInterval,
		"metrics refresh interval in seconds")

	flag.CommandLine.SortFlags = false
	flag.Parse()

	// the network selects the defaults of the flags left untouched
	if globalCfg.Network != "localhost" {
		if _, ok := config.Networks[globalCfg.Network]; !ok {
			return nil, config.Error{
				Critical: true,
				Message:  fmt.Sprintf("unknown network %q", globalCfg.Network),
			}
		}
		network := config.NetworkByName(globalCfg.Network)
		if !flag.CommandLine.Changed("ethEndpoints") {
			globalCfg.Ethereum.Endpoints = network.Endpoints
		}
		if !flag.CommandLine.Changed("contract") {
			globalCfg.Ethereum.Contract = network.Contract
		}
		if !flag.CommandLine.Changed("ensRegistry") {
			globalCfg.Identity.Registry = network.Registry
		}
	}

	viper := viper.New()
	viper.SetConfigName("ballot")
	viper.SetConfigType("yml")
	viper.SetEnvPrefix("BALLOT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// set FlagVars first
	viper.BindPFlag("dataDir", flag.Lookup("dataDir"))
	globalCfg.DataDir = viper.GetString("dataDir")
	viper.AddConfigPath(globalCfg.DataDir)

	// binding flags to viper
	viper.BindPFlag("network", flag.Lookup("network"))
	viper.BindPFlag("votingTitle", flag.Lookup("votingTitle"))
	viper.BindPFlag("logLevel", flag.Lookup("logLevel"))
	viper.BindPFlag("logOutput", flag.Lookup("logOutput"))
	viper.BindPFlag("logErrorFile", flag.Lookup("logErrorFile"))
	viper.BindPFlag("saveConfig", flag.Lookup("saveConfig"))

	// ethereum
	viper.Set("ethereum.Endpoints", globalCfg.Ethereum.Endpoints)
	viper.Set("ethereum.Contract", globalCfg.Ethereum.Contract)
	viper.BindPFlag("ethereum.ChainID", flag.Lookup("chainId"))
	viper.BindPFlag("ethereum.DialRetries", flag.Lookup("ethDialRetries"))
	viper.BindPFlag("ethereum.FromBlock", flag.Lookup("fromBlock"))
	viper.BindPFlag("ethereum.PollInterval", flag.Lookup("ethPollInterval"))

	// ipfs
	viper.BindPFlag("ipfs.API", flag.Lookup("ipfsApi"))
	viper.BindPFlag("ipfs.Gateway", flag.Lookup("ipfsGateway"))
	viper.BindPFlag("ipfs.Timeout", flag.Lookup("ipfsTimeout"))
	viper.BindPFlag("ipfs.LogLevel", flag.Lookup("ipfsLogLevel"))
	viper.Set("ipfs.UploadCacheSize", globalCfg.IPFS.UploadCacheSize)

	// wallet
	viper.BindPFlag("wallet.Keystore", flag.Lookup("keystore"))
	viper.BindPFlag("wallet.SigningKey", flag.Lookup("signingKey"))
	viper.BindPFlag("wallet.LightKDF", flag.Lookup("lightKdf"))
	viper.BindPFlag("wallet.AutoConfirm", flag.Lookup("autoConfirm"))

	// api
	viper.BindPFlag("api.ListenHost", flag.Lookup("listenHost"))
	viper.BindPFlag("api.ListenPort", flag.Lookup("listenPort"))
	viper.BindPFlag("api.Route", flag.Lookup("apiRoute"))
	viper.BindPFlag("api.AllowedOrigins", flag.Lookup("apiAllowedOrigins"))
	viper.BindPFlag("api.SSLDomain", flag.Lookup("sslDomain"))

	// identity
	viper.Set("identity.Registry", globalCfg.Identity.Registry)
	viper.BindPFlag("identity.LenientChecksum", flag.Lookup("lenientChecksum"))
	viper.Set("identity.CacheSize", globalCfg.Identity.CacheSize)
	viper.Set("identity.CacheTTL", globalCfg.Identity.CacheTTL)

	viper.BindPFlag("cache.Concurrency", flag.Lookup("fetchConcurrency"))
	viper.BindPFlag("transaction.ConfirmTimeout", flag.Lookup("confirmTimeout"))

	// metrics
	viper.BindPFlag("metrics.Enabled", flag.Lookup("metricsEnabled"))
	viper.BindPFlag("metrics.RefreshInterval", flag.Lookup("metricsRefreshInterval"))

	// check if config file exists
	_, err = os.Stat(filepath.Join(globalCfg.DataDir, "ballot.yml"))
	if os.IsNotExist(err) {
		cfgError = config.Error{
			Message: fmt.Sprintf("creating new config file in %s", globalCfg.DataDir),
		}
		// creting config folder if not exists
		if err := os.MkdirAll(globalCfg.DataDir, os.ModePerm); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot create data directory: %s", err),
			}
		}
		// create config file if not exists
		if err := viper.SafeWriteConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot write config file into config dir: %s", err),
			}
		}
	} else {
		// read config file
		if err := viper.ReadInConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot read loaded config file in %s: %s", globalCfg.DataDir, err),
			}
		}
	}
	if err := viper.Unmarshal(&globalCfg); err != nil {
		cfgError = config.Error{
			Message: fmt.Sprintf("cannot unmarshal loaded config file: %s", err),
		}
	}

	if globalCfg.SaveConfig {
		viper.Set("saveConfig", false)
		if err := viper.WriteConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot overwrite config file into config dir: %s", err),
			}
		}
	}

	return globalCfg, cfgError
}

func networkNames() []string {
	names := []string{}
	for name := range config.Networks {
		names = append(names, name)
	}
	return names
}

func main() {
	fmt.Fprintf(os.Stderr, "ballot node version %q\n", Version)

	// creating config and init logger
	globalCfg, cfgErr := newConfig()
	if globalCfg == nil {
		log.Fatalf("cannot read configuration: %s", cfgErr.Message)
	}
	log.Init(globalCfg.LogLevel, globalCfg.LogOutput)
	if path := globalCfg.LogErrorFile; path != "" {
		if err := log.SetFileErrorLog(path); err != nil {
			log.Fatal(err)
		}
	}
	log.Debugf("initializing config %+v", *globalCfg)

	// check if errors during config creation and determine if Critical
	if cfgErr.Critical && cfgErr.Message != "" {
		log.Fatalf("critical error loading config: %s", cfgErr.Message)
	} else if !cfgErr.Critical && cfgErr.Message != "" {
		log.Warnf("non-critical error loading config: %s", cfgErr.Message)
	} else if !cfgErr.Critical && cfgErr.Message == "" {
		log.Infof("config file loaded successfully. Reminder: CLI flags have preference")
	}

	log.Infof("starting ballot node version %q on network %s (contract %s)",
		Version, globalCfg.Network, globalCfg.Ethereum.Contract)

	ctx, cancel := context.WithCancel(context.Background())
	srv := service.New(globalCfg)
	if err := srv.Start(ctx); err != nil {
		cancel()
		srv.Stop()
		log.Fatalf("cannot start ballot node (%s): %v", types.Kind(err), err)
	}

	log.Info("startup complete")

	// close if interrupt received
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Warnf("received SIGTERM, exiting at %s", time.Now().Format(time.RFC850))
	cancel()
	srv.Stop()
	os.Exit(0)
}
