package testhelper

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

var _ types.SolanaProvider = (*MemPhantom)(nil)

// MemPhantom is an in-memory Phantom provider.
type MemPhantom struct {
	lk        sync.Mutex
	key       string
	connected bool
	installed bool
	reject    bool
	fail      bool
	calls     int
}

func NewMemPhantom(key string) *MemPhantom {
	return &MemPhantom{key: key, installed: true}
}

func RandSolanaKey() string {
	return solana.NewWallet().PublicKey().String()
}

func (m *MemPhantom) SetInstalled(installed bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.installed = installed
}

func (m *MemPhantom) SetReject(reject bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.reject = reject
}

func (m *MemPhantom) SetFail(fail bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.fail = fail
}

// SetConnected simulates the user connecting or disconnecting inside the extension.
func (m *MemPhantom) SetConnected(connected bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.connected = connected
}

func (m *MemPhantom) SetKey(key string) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.key = key
}

func (m *MemPhantom) ConnectCalls() int {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.calls
}

func (m *MemPhantom) IsPhantom(ctx context.Context) bool {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.installed
}

func (m *MemPhantom) Connect(ctx context.Context) (string, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.calls++
	if m.fail {
		return "", fmt.Errorf("mock error: %w", types.ErrProviderUnavailable)
	}
	if m.reject {
		return "", fmt.Errorf("User rejected the request.: %w", types.ErrProviderRejected)
	}
	m.connected = true
	return m.key, nil
}

func (m *MemPhantom) IsConnected(ctx context.Context) (bool, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return false, fmt.Errorf("mock error: %w", types.ErrProviderUnavailable)
	}
	return m.connected, nil
}

func (m *MemPhantom) PublicKey(ctx context.Context) (string, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return "", fmt.Errorf("mock error: %w", types.ErrProviderUnavailable)
	}
	if !m.connected {
		return "", fmt.Errorf("wallet not connected: %w", types.ErrProviderRejected)
	}
	return m.key, nil
}
