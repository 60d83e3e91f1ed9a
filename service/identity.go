package service

import (
	"github.com/ethereum/go-ethereum/common"

	"go.vocdoni.io/ballot/identity"
	"go.vocdoni.io/ballot/log"
)

// Identity creates the address and name resolver. Without a registry every name
// fails to resolve.
func (bs *BallotService) Identity() error {
	cfg := bs.Config.Identity
	var ns identity.NameService
	if cfg.Registry != "" {
		ens, err := identity.NewENS(bs.Client, common.HexToAddress(cfg.Registry))
		if err != nil {
			return err
		}
		ns = ens
	} else {
		log.Infof("no ENS registry configured, names will not resolve")
	}
	var err error
	bs.Resolver, err = identity.NewResolver(ns, identity.Options{
		LenientChecksum: cfg.LenientChecksum,
		CacheSize:       cfg.CacheSize,
		CacheTTL:        cfg.CacheTTL,
	})
	return err
}
