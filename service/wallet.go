package service

import (
	"context"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"

	"go.vocdoni.io/ballot/log"
	"go.vocdoni.io/ballot/session"
	"go.vocdoni.io/ballot/wallet"
)

// Wallet opens the configured account provider and silently restores the session.
func (bs *BallotService) Wallet(ctx context.Context) error {
	cfg := bs.Config.Wallet
	var w session.Wallet
	if cfg.SigningKey != "" {
		key, err := wallet.NewKey(cfg.SigningKey)
		if err != nil {
			return err
		}
		log.Infow("using signing key", "address", key.Address().Hex())
		w = key
	} else {
		dir := cfg.Keystore
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(bs.Config.DataDir, dir)
		}
		scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
		if cfg.LightKDF {
			scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
		}
		prompter := wallet.NewTerminalPrompter()
		prompter.AutoConfirm = cfg.AutoConfirm
		ks := wallet.NewKeystore(dir, scryptN, scryptP, prompter)
		bs.onClose(ks.Close)
		log.Infow("using keystore", "dir", dir, "accounts", len(ks.KeyStore().Accounts()))
		w = ks
	}
	bs.Session = session.NewManager(w)
	bs.onClose(bs.Session.Close)
	return bs.Session.Init(ctx)
}
