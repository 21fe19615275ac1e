package api

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/zuck-wallet/storage"
	"github.com/ipfs-force-community/zuck-wallet/types"
	"github.com/ipfs-force-community/zuck-wallet/version"
	"github.com/ipfs-force-community/zuck-wallet/walletstate"
)

func TestPermissionProxy(t *testing.T) {
	mgr := walletstate.NewManager(types.DefaultStateConfig(), storage.NewMemoryStore(), nil, nil, nil)
	defer mgr.Stop()

	var out WalletAPIStruct
	PermissionProxy(NewWalletAPIImpl(mgr), &out)

	readCtx := context.Background()
	v, err := out.Version(readCtx)
	require.NoError(t, err)
	require.Equal(t, version.UserVersion, v)

	state, err := out.GetState(readCtx)
	require.NoError(t, err)
	require.True(t, state.Empty())

	_, err = out.ConfirmExternalConnection(readCtx, types.WalletCoinbase, "0xDEADBEEF")
	require.Error(t, err)
	require.Contains(t, err.Error(), "need 'write'")
	_, err = out.Disconnect(readCtx)
	require.Error(t, err)

	writeCtx := auth.WithPerm(context.Background(), AllPermissions)
	res, err := out.ConfirmExternalConnection(writeCtx, types.WalletCoinbase, "0xDEADBEEF")
	require.NoError(t, err)
	require.True(t, res.Success)

	change, err := out.Disconnect(writeCtx)
	require.NoError(t, err)
	require.False(t, change.IsConnected)
}
