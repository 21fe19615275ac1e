package api

import (
	"context"

	"github.com/ipfs-force-community/zuck-wallet/version"
	"github.com/ipfs-force-community/zuck-wallet/walletstate"
)

var _ WalletAPI = (*WalletAPIImpl)(nil)

type WalletAPIImpl struct {
	walletstate.IWalletStateAPI
}

func NewWalletAPIImpl(mgr *walletstate.Manager) *WalletAPIImpl {
	return &WalletAPIImpl{
		IWalletStateAPI: walletstate.NewWalletStateAPI(mgr),
	}
}

func (w *WalletAPIImpl) Version(ctx context.Context) (string, error) {
	return version.UserVersion, nil
}
