package service

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"go.vocdoni.io/ballot/chain"
	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/types"
)

// Ethereum connects to the node and binds the Voting contract.
func (bs *BallotService) Ethereum(ctx context.Context) error {
	log.Info("creating ethereum service")
	cfg := bs.Config.Ethereum
	client, err := chain.Dial(ctx, cfg.Endpoints, cfg.DialRetries, types.EthereumDialRetryWait)
	if err != nil {
		return err
	}
	bs.Client = client
	bs.onClose(client.Close)

	chainID := new(big.Int).SetUint64(cfg.ChainID)
	if cfg.ChainID == 0 {
		if chainID, err = client.ChainID(ctx); err != nil {
			return fmt.Errorf("cannot get chain id: %w", err)
		}
	}
	log.Infow("ethereum node", "endpoint", client.Endpoint, "chainID", chainID.String())

	bs.Voting, err = chain.NewVotingHandle(client, common.HexToAddress(cfg.Contract), chainID)
	if err != nil {
		return err
	}
	deployed, err := bs.Voting.Deployed(ctx)
	if err != nil {
		return err
	}
	if !deployed {
		// submissions fail with ContractNotFound until the contract is deployed
		log.Warnf("no contract code at %s", cfg.Contract)
	}

	if bs.MetricsAgent != nil {
		chain.RegisterMetrics(bs.MetricsAgent)
	}
	bs.goRun(func() { client.PrintInfo(ctx, 20*time.Second) })
	return nil
}
