package walletstate

import (
	"context"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

type IWalletStateAPI interface {
	Connect(ctx context.Context, kind types.WalletType) (*types.ConnectResult, error)
	ConfirmExternalConnection(ctx context.Context, kind types.WalletType, address string) (*types.ConnectResult, error)
	ConfirmSession(ctx context.Context, id string, address string) (*types.ConnectResult, error)
	Disconnect(ctx context.Context) (*types.StateChange, error)
	GetState(ctx context.Context) (*types.ConnectionState, error)
	GetPairingSession(ctx context.Context, id string) (*types.PairingSession, error)
	ListenState(ctx context.Context) (<-chan *types.StateChange, error)
}

var _ IWalletStateAPI = (*WalletStateAPI)(nil)

// WalletStateAPI exposes the manager over JSON-RPC. Connection failures are reported inside
// the result, only malformed requests return an error.
type WalletStateAPI struct {
	mgr *Manager
}

func NewWalletStateAPI(mgr *Manager) *WalletStateAPI {
	return &WalletStateAPI{mgr: mgr}
}

func (w *WalletStateAPI) Connect(ctx context.Context, kind types.WalletType) (*types.ConnectResult, error) {
	return w.mgr.Connect(ctx, kind), nil
}

func (w *WalletStateAPI) ConfirmExternalConnection(ctx context.Context, kind types.WalletType, address string) (*types.ConnectResult, error) {
	return w.mgr.ConfirmExternalConnection(ctx, kind, address), nil
}

func (w *WalletStateAPI) ConfirmSession(ctx context.Context, id string, address string) (*types.ConnectResult, error) {
	return w.mgr.ConfirmSession(ctx, id, address), nil
}

func (w *WalletStateAPI) Disconnect(ctx context.Context) (*types.StateChange, error) {
	return w.mgr.Disconnect(ctx).Change(), nil
}

func (w *WalletStateAPI) GetState(ctx context.Context) (*types.ConnectionState, error) {
	state := w.mgr.GetState()
	return &state, nil
}

func (w *WalletStateAPI) GetPairingSession(ctx context.Context, id string) (*types.PairingSession, error) {
	return w.mgr.GetPairingSession(id)
}

// ListenState streams every change after the current state, which is sent first.
func (w *WalletStateAPI) ListenState(ctx context.Context) (<-chan *types.StateChange, error) {
	state, changes := w.mgr.Watch(ctx)
	out := make(chan *types.StateChange, w.mgr.cfg.NotifyQueueSize+1)
	go func() {
		defer close(out)
		out <- state.Change()
		for change := range changes {
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
