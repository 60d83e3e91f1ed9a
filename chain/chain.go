// Package chain wraps the access to the Ethereum node and to the Voting contract.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Backend is the node surface needed by the contract handle: calls, transactions,
// log filtering and receipts.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Client is a connection to an Ethereum node.
type Client struct {
	*ethclient.Client
	RPC      *rpc.Client
	Endpoint string
}

// SyncInfo holds the node status.
type SyncInfo struct {
	Height    uint64
	MaxHeight uint64
	Synced    bool
	Peers     int
}

// Dial connects to the first reachable endpoint. Each endpoint is tried up to
// maxRetries times, waiting retryWait between attempts.
func Dial(ctx context.Context, endpoints []string, maxRetries int, retryWait time.Duration) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no web3 endpoint provided")
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	for _, endpoint := range endpoints {
		for i := 0; i < maxRetries; i++ {
			rpcClient, err := rpc.DialContext(ctx, endpoint)
			if err != nil || rpcClient == nil {
				log.Warnf("cannot create an ethereum rpc connection with %s: (%v), trying again... %d of %d",
					endpoint, err, i+1, maxRetries)
				select {
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %v", types.ErrTransientNetwork, ctx.Err())
				case <-time.After(retryWait):
				}
				continue
			}
			log.Infof("connected to %s web3 client", endpoint)
			return &Client{
				Client:   ethclient.NewClient(rpcClient),
				RPC:      rpcClient,
				Endpoint: endpoint,
			}, nil
		}
		log.Warnf("could not connect to %s endpoint, trying the next one", endpoint)
	}
	return nil, fmt.Errorf("%w: could not connect to any web3 endpoint", types.ErrTransientNetwork)
}

// SyncInfo returns the current height and peers of the node and updates the
// ethereum gauges.
func (c *Client) SyncInfo(ctx context.Context) (*SyncInfo, error) {
	tctx, cancel := context.WithTimeout(ctx, types.EthereumReadTimeout)
	defer cancel()
	info := &SyncInfo{}
	sp, err := c.SyncProgress(tctx)
	if err != nil {
		return nil, ClassifyError(err)
	}
	if sp != nil {
		info.Height = sp.CurrentBlock
		info.MaxHeight = sp.HighestBlock
	} else {
		header, err := c.HeaderByNumber(tctx, nil)
		if err != nil {
			return nil, ClassifyError(err)
		}
		info.Height = header.Number.Uint64()
		info.MaxHeight = info.Height
		info.Synced = true
	}
	var peers hexutil.Uint64
	if err := c.RPC.CallContext(tctx, &peers, "net_peerCount"); err != nil {
		// some providers do not expose the net namespace
		log.Debugf("cannot get peer count from %s: %v", c.Endpoint, err)
	}
	info.Peers = int(peers)

	EthereumHeight.Set(float64(info.Height))
	EthereumMaxHeight.Set(float64(info.MaxHeight))
	EthereumPeers.Set(float64(info.Peers))
	if info.Synced {
		EthereumSynced.Set(1)
	} else {
		EthereumSynced.Set(0)
	}
	return info, nil
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	tctx, cancel := context.WithTimeout(ctx, types.EthereumReadTimeout)
	defer cancel()
	id, err := c.Client.ChainID(tctx)
	if err != nil {
		return nil, ClassifyError(err)
	}
	return id, nil
}

// PrintInfo logs the node status every period until ctx is done.
func (c *Client) PrintInfo(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		info, err := c.SyncInfo(ctx)
		if err != nil {
			log.Warnf("cannot get ethereum node info: %v", err)
			continue
		}
		log.Infow("ethereum node", "height", info.Height, "maxHeight", info.MaxHeight,
			"synced", info.Synced, "peers", info.Peers)
	}
}
