package api

import (
	"context"

	"github.com/ipfs-force-community/zuck-wallet/types"
	"github.com/ipfs-force-community/zuck-wallet/walletstate"
)

type WalletAPI interface {
	walletstate.IWalletStateAPI
	Version(ctx context.Context) (string, error)
}

var _ WalletAPI = (*WalletAPIStruct)(nil)

// WalletAPIStruct is filled by PermissionProxy on the server side and by NewWalletRPCClient on
// the client side.
type WalletAPIStruct struct {
	Internal struct {
		Connect                   func(ctx context.Context, kind types.WalletType) (*types.ConnectResult, error)                 `perm:"write"`
		ConfirmExternalConnection func(ctx context.Context, kind types.WalletType, address string) (*types.ConnectResult, error) `perm:"write"`
		ConfirmSession            func(ctx context.Context, id string, address string) (*types.ConnectResult, error)             `perm:"write"`
		Disconnect                func(ctx context.Context) (*types.StateChange, error)                                          `perm:"write"`

		GetState          func(ctx context.Context) (*types.ConnectionState, error)           `perm:"read"`
		GetPairingSession func(ctx context.Context, id string) (*types.PairingSession, error) `perm:"read"`
		ListenState       func(ctx context.Context) (<-chan *types.StateChange, error)        `perm:"read"`
		Version           func(ctx context.Context) (string, error)                           `perm:"read"`
	}
}

func (s *WalletAPIStruct) Connect(ctx context.Context, kind types.WalletType) (*types.ConnectResult, error) {
	return s.Internal.Connect(ctx, kind)
}

func (s *WalletAPIStruct) ConfirmExternalConnection(ctx context.Context, kind types.WalletType, address string) (*types.ConnectResult, error) {
	return s.Internal.ConfirmExternalConnection(ctx, kind, address)
}

func (s *WalletAPIStruct) ConfirmSession(ctx context.Context, id string, address string) (*types.ConnectResult, error) {
	return s.Internal.ConfirmSession(ctx, id, address)
}

func (s *WalletAPIStruct) Disconnect(ctx context.Context) (*types.StateChange, error) {
	return s.Internal.Disconnect(ctx)
}

func (s *WalletAPIStruct) GetState(ctx context.Context) (*types.ConnectionState, error) {
	return s.Internal.GetState(ctx)
}

func (s *WalletAPIStruct) GetPairingSession(ctx context.Context, id string) (*types.PairingSession, error) {
	return s.Internal.GetPairingSession(ctx, id)
}

func (s *WalletAPIStruct) ListenState(ctx context.Context) (<-chan *types.StateChange, error) {
	return s.Internal.ListenState(ctx)
}

func (s *WalletAPIStruct) Version(ctx context.Context) (string, error) {
	return s.Internal.Version(ctx)
}
