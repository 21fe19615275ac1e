package provider

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

type bridgeHandler struct {
	key       string
	connected bool
	reject    bool
}

func (h *bridgeHandler) IsPhantom(ctx context.Context) (bool, error) {
	return true, nil
}

func (h *bridgeHandler) Connect(ctx context.Context) (string, error) {
	if h.reject {
		return "", errors.New("User rejected the request.")
	}
	h.connected = true
	return h.key, nil
}

func (h *bridgeHandler) IsConnected(ctx context.Context) (bool, error) {
	return h.connected, nil
}

func (h *bridgeHandler) PublicKey(ctx context.Context) (string, error) {
	return h.key, nil
}

func setupBridge(t *testing.T, handler *bridgeHandler) *PhantomBridge {
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register("Phantom", handler)
	srv := httptest.NewServer(rpcServer)
	t.Cleanup(srv.Close)

	bridge, err := NewPhantomBridge(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(bridge.Close)
	return bridge
}

func TestPhantomBridge(t *testing.T) {
	ctx := context.Background()

	t.Run("connect", func(t *testing.T) {
		key := solana.NewWallet().PublicKey().String()
		bridge := setupBridge(t, &bridgeHandler{key: key})
		require.True(t, bridge.IsPhantom(ctx))

		connected, err := bridge.IsConnected(ctx)
		require.NoError(t, err)
		require.False(t, connected)

		addr, err := bridge.Connect(ctx)
		require.NoError(t, err)
		require.Equal(t, key, addr)

		connected, err = bridge.IsConnected(ctx)
		require.NoError(t, err)
		require.True(t, connected)

		addr, err = bridge.PublicKey(ctx)
		require.NoError(t, err)
		require.Equal(t, key, addr)
	})

	t.Run("user rejected", func(t *testing.T) {
		bridge := setupBridge(t, &bridgeHandler{key: solana.NewWallet().PublicKey().String(), reject: true})
		_, err := bridge.Connect(ctx)
		require.ErrorIs(t, err, types.ErrProviderRejected)
	})

	t.Run("invalid key", func(t *testing.T) {
		bridge := setupBridge(t, &bridgeHandler{key: "not a key"})
		_, err := bridge.Connect(ctx)
		require.ErrorIs(t, err, types.ErrProviderRejected)
	})

	t.Run("bridge down", func(t *testing.T) {
		srv := httptest.NewServer(jsonrpc.NewServer())
		url := srv.URL
		srv.Close()

		bridge, err := NewPhantomBridge(ctx, url)
		require.NoError(t, err)
		defer bridge.Close()
		require.False(t, bridge.IsPhantom(ctx))
		_, err = bridge.Connect(ctx)
		require.ErrorIs(t, err, types.ErrProviderUnavailable)
	})
}
