package walletstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/zuck-wallet/storage"
	"github.com/ipfs-force-community/zuck-wallet/testhelper"
	"github.com/ipfs-force-community/zuck-wallet/types"
)

// hangingPhantom never answers Connect until released.
type hangingPhantom struct {
	started chan struct{}
	release chan struct{}
}

func newHangingPhantom() *hangingPhantom {
	return &hangingPhantom{started: make(chan struct{}, 10), release: make(chan struct{})}
}

func (h *hangingPhantom) IsPhantom(ctx context.Context) bool { return true }

func (h *hangingPhantom) Connect(ctx context.Context) (string, error) {
	h.started <- struct{}{}
	<-h.release
	return "ABC123", nil
}

func (h *hangingPhantom) IsConnected(ctx context.Context) (bool, error) { return true, nil }
func (h *hangingPhantom) PublicKey(ctx context.Context) (string, error) { return "ABC123", nil }

// slowStore blocks Put until released.
type slowStore struct {
	*storage.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (s *slowStore) Put(key string, value []byte) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryStore.Put(key, value)
}

func TestPendingPromptDoesNotBlockOthers(t *testing.T) {
	phantom := newHangingPhantom()
	mgr := setupManager(t, storage.NewMemoryStore(), phantom, nil, setupSessions(t, types.WalletWalletConnect))

	first := make(chan *types.ConnectResult, 1)
	go func() { first <- mgr.Connect(context.Background(), types.WalletPhantom) }()
	<-phantom.started

	// pairing never waits for the provider
	done := make(chan *types.ConnectResult, 1)
	go func() { done <- mgr.Connect(context.Background(), types.WalletWalletConnect) }()
	select {
	case res := <-done:
		require.True(t, res.ShowPairing)
	case <-time.After(3 * time.Second):
		t.Fatal("walletconnect blocked behind a pending phantom prompt")
	}

	// a second prompt gives up with its ctx
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go func() { done <- mgr.Connect(ctx, types.WalletPhantom) }()
	select {
	case res := <-done:
		require.False(t, res.Success)
		require.Equal(t, types.ProviderUnavailable, res.ErrorKind)
	case <-time.After(3 * time.Second):
		t.Fatal("phantom connect ignored its ctx while waiting")
	}

	close(phantom.release)
	res := <-first
	require.True(t, res.Success)
	require.Equal(t, "ABC123", mgr.GetState().Address)
}

func TestInvalidVerifyInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		cfg := types.DefaultStateConfig()
		cfg.VerifyInterval = interval
		mgr := NewManager(cfg, storage.NewMemoryStore(), nil, nil, nil)
		require.Error(t, mgr.Start(context.Background()))
		mgr.Stop()
	}
}

func TestGetStateDuringPersist(t *testing.T) {
	store := &slowStore{MemoryStore: storage.NewMemoryStore(), entered: make(chan struct{}, 1), release: make(chan struct{})}
	mgr := setupManager(t, store, nil, nil, nil)
	changes := mgr.Listen(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		mgr.ConfirmExternalConnection(context.Background(), types.WalletCoinbase, "0xDEADBEEF")
	}()
	<-store.entered

	got := make(chan types.ConnectionState, 1)
	go func() { got <- mgr.GetState() }()
	select {
	case state := <-got:
		// the new state is not visible before it is stored
		require.True(t, state.Empty())
	case <-time.After(3 * time.Second):
		t.Fatal("GetState waited on storage")
	}
	requireNoChange(t, changes)

	close(store.release)
	<-done
	require.Equal(t, "0xDEADBEEF", nextChange(t, changes).Address)
	require.True(t, mgr.GetState().IsConnected)
}

func TestSwitchWalletReleasesSessions(t *testing.T) {
	ctx := context.Background()
	sessions := setupSessions(t, types.WalletCoinbase, types.WalletWalletConnect)
	mgr := setupManager(t, storage.NewMemoryStore(), testhelper.NewMemPhantom("ABC123"), nil, sessions)

	require.True(t, mgr.ConfirmExternalConnection(ctx, types.WalletWalletConnect, "0xDEADBEEF").Success)
	require.True(t, sessions.Active(types.WalletWalletConnect, "0xDEADBEEF"))

	require.True(t, mgr.Connect(ctx, types.WalletPhantom).Success)
	require.False(t, sessions.Active(types.WalletWalletConnect, "0xDEADBEEF"))
	require.Empty(t, sessions.List())

	// a pairing opened for another wallet survives until that wallet is confirmed
	res := mgr.Connect(ctx, types.WalletCoinbase)
	require.True(t, res.ShowPairing)
	require.Len(t, sessions.List(), 1)
	require.True(t, mgr.ConfirmSession(ctx, res.Pairing.ID.String(), "0xBEEF").Success)
	require.True(t, sessions.Active(types.WalletCoinbase, "0xBEEF"))
}

func TestWatchSnapshotAndChangesDisjoint(t *testing.T) {
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		mgr := NewManager(types.DefaultStateConfig(), storage.NewMemoryStore(), nil, nil, nil)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			mgr.ConfirmExternalConnection(ctx, types.WalletCoinbase, "0xDEADBEEF")
		}()
		state, changes := mgr.Watch(ctx)
		wg.Wait()

		// the only change either happened before the snapshot or arrives on the channel
		select {
		case change := <-changes:
			require.True(t, state.Empty(), "change %+v already in snapshot %+v", change, state)
			require.True(t, change.IsConnected)
		default:
			require.True(t, state.IsConnected)
		}
		cancel()
		mgr.Stop()
	}
}
