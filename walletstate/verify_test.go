package walletstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/zuck-wallet/storage"
	"github.com/ipfs-force-community/zuck-wallet/testhelper"
	"github.com/ipfs-force-community/zuck-wallet/types"
)

func persisted(t *testing.T, state types.ConnectionState) *storage.MemoryStore {
	store := storage.NewMemoryStore()
	data, err := encodeRecord(state, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Put(StateKey, data))
	return store
}

func TestStartupClearsUnavailableProvider(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := persisted(t, types.ConnectionState{WalletType: types.WalletPhantom, Address: "ABC123", IsConnected: true})
	mgr := setupManager(t, store, nil, nil, nil)
	changes := mgr.Listen(ctx)

	require.NoError(t, mgr.Start(ctx))
	require.Equal(t, &types.StateChange{}, nextChange(t, changes))
	requireNoChange(t, changes)
	require.True(t, mgr.GetState().Empty())

	_, err := store.Get(StateKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStartupReconnectsPhantom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	key := testhelper.RandSolanaKey()
	phantom := testhelper.NewMemPhantom(key)
	store := persisted(t, types.ConnectionState{WalletType: types.WalletPhantom, Address: key, IsConnected: true})
	mgr := setupManager(t, store, phantom, nil, nil)
	changes := mgr.Listen(ctx)

	require.NoError(t, mgr.Start(ctx))
	require.Eventually(t, func() bool { return phantom.ConnectCalls() == 1 }, 3*time.Second, 10*time.Millisecond)
	requireNoChange(t, changes)
	require.Equal(t, key, mgr.GetState().Address)
}

func TestVerifyPhantom(t *testing.T) {
	ctx := context.Background()

	t.Run("key changed", func(t *testing.T) {
		phantom := testhelper.NewMemPhantom("ABC123")
		mgr := setupManager(t, storage.NewMemoryStore(), phantom, nil, nil)
		mgr.Connect(ctx, types.WalletPhantom)

		phantom.SetKey("DEF456")
		require.NoError(t, mgr.verify(ctx, false))
		require.Equal(t, "DEF456", mgr.GetState().Address)
		require.Equal(t, 1, phantom.ConnectCalls())
	})

	t.Run("disconnected in provider", func(t *testing.T) {
		phantom := testhelper.NewMemPhantom("ABC123")
		mgr := setupManager(t, storage.NewMemoryStore(), phantom, nil, nil)
		mgr.Connect(ctx, types.WalletPhantom)

		phantom.SetConnected(false)
		require.NoError(t, mgr.verify(ctx, false))
		require.True(t, mgr.GetState().Empty())
	})

	t.Run("provider error", func(t *testing.T) {
		phantom := testhelper.NewMemPhantom("ABC123")
		mgr := setupManager(t, storage.NewMemoryStore(), phantom, nil, nil)
		mgr.Connect(ctx, types.WalletPhantom)

		phantom.SetFail(true)
		err := mgr.verify(ctx, false)
		require.Error(t, err)
		require.Equal(t, types.VerificationFailed, types.KindOf(err))
		require.True(t, mgr.GetState().Empty())
	})

	t.Run("uninstalled", func(t *testing.T) {
		phantom := testhelper.NewMemPhantom("ABC123")
		mgr := setupManager(t, storage.NewMemoryStore(), phantom, nil, nil)
		mgr.Connect(ctx, types.WalletPhantom)

		phantom.SetInstalled(false)
		require.Equal(t, types.VerificationFailed, types.KindOf(mgr.verify(ctx, false)))
		require.True(t, mgr.GetState().Empty())
	})
}

func TestVerifyEthereum(t *testing.T) {
	ctx := context.Background()
	first, second := testhelper.RandEthAddress(), testhelper.RandEthAddress()
	eth := testhelper.NewMemEthereum(first)
	mgr := setupManager(t, storage.NewMemoryStore(), nil, eth, nil)
	require.True(t, mgr.Connect(ctx, types.WalletCoinbase).Success)

	require.NoError(t, mgr.verify(ctx, false))
	require.Equal(t, first, mgr.GetState().Address)

	eth.SetAccounts(second, first)
	require.NoError(t, mgr.verify(ctx, false))
	require.Equal(t, second, mgr.GetState().Address)

	eth.Revoke()
	require.NoError(t, mgr.verify(ctx, false))
	require.True(t, mgr.GetState().Empty())
}

func TestVerifyPairedConnection(t *testing.T) {
	ctx := context.Background()
	sessions := setupSessions(t, types.WalletCoinbase, types.WalletWalletConnect)
	mgr := setupManager(t, storage.NewMemoryStore(), nil, nil, sessions)

	mgr.ConfirmExternalConnection(ctx, types.WalletWalletConnect, "0xDEADBEEF")
	require.NoError(t, mgr.verify(ctx, false))
	require.True(t, mgr.GetState().IsConnected)

	sessions.Release(types.WalletWalletConnect)
	require.Equal(t, types.VerificationFailed, types.KindOf(mgr.verify(ctx, false)))
	require.True(t, mgr.GetState().Empty())

	// without a registry a paired wallet cannot be kept
	mgr = setupManager(t, storage.NewMemoryStore(), nil, nil, nil)
	mgr.ConfirmExternalConnection(ctx, types.WalletCoinbase, "0xDEADBEEF")
	require.Error(t, mgr.verify(ctx, false))
	require.True(t, mgr.GetState().Empty())
}

func TestVerifyKeepsNewerState(t *testing.T) {
	ctx := context.Background()
	mgr := setupManager(t, storage.NewMemoryStore(), nil, nil, nil)
	stale := mgr.GetState()

	mgr.ConfirmExternalConnection(ctx, types.WalletCoinbase, "0xDEADBEEF")
	require.False(t, mgr.swap(ctx, &stale, types.ConnectionState{}))
	require.True(t, mgr.GetState().IsConnected)
}

func TestVerifyLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	phantom := testhelper.NewMemPhantom("ABC123")
	cfg := types.DefaultStateConfig()
	cfg.VerifyInterval = 10 * time.Millisecond
	mgr := NewManager(cfg, storage.NewMemoryStore(), phantom, nil, nil)
	defer mgr.Stop()

	mgr.Connect(ctx, types.WalletPhantom)
	require.NoError(t, mgr.Start(ctx))
	// startup verification reconnects once
	require.Eventually(t, func() bool { return phantom.ConnectCalls() == 2 }, 3*time.Second, 10*time.Millisecond)
	changes := mgr.Listen(ctx)

	phantom.SetConnected(false)
	require.Equal(t, &types.StateChange{}, nextChange(t, changes))
}
