package pairing

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

const (
	walletConnectMessage = "Please scan the QR code with your mobile wallet"
	coinbaseMessage      = "Please scan the QR code with your Coinbase mobile app"
)

func pairingURI(cfg *types.PairingConfig, kind types.WalletType, id uuid.UUID) (string, error) {
	switch kind {
	case types.WalletWalletConnect:
		return fmt.Sprintf("wc:%s@1?bridge=%s&key=%s", id, url.QueryEscape(cfg.Bridge), url.QueryEscape(cfg.ProjectID)), nil
	case types.WalletCoinbase:
		return fmt.Sprintf("https://www.coinbase.com/connect?app=%s&session=%s&redirect=%s",
			url.QueryEscape(cfg.AppName), id, url.QueryEscape(cfg.Origin)), nil
	}
	return "", fmt.Errorf("wallet %s has no pairing flow", kind)
}

func pairingMessage(kind types.WalletType) string {
	if kind == types.WalletCoinbase {
		return coinbaseMessage
	}
	return walletConnectMessage
}
