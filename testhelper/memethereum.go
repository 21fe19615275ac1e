package testhelper

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

var _ types.EthereumProvider = (*MemEthereum)(nil)

// MemEthereum is an in-memory EIP-1193 provider.
type MemEthereum struct {
	lk       sync.Mutex
	accounts []string
	approved bool
	reject   bool
	fail     bool
}

func NewMemEthereum(accounts ...string) *MemEthereum {
	return &MemEthereum{accounts: accounts}
}

func RandEthAddress() string {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func (m *MemEthereum) SetReject(reject bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.reject = reject
}

func (m *MemEthereum) SetFail(fail bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.fail = fail
}

// Revoke drops the site permission, eth_accounts returns nothing afterwards.
func (m *MemEthereum) Revoke() {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.approved = false
}

func (m *MemEthereum) SetAccounts(accounts ...string) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.accounts = accounts
}

func (m *MemEthereum) RequestAccounts(ctx context.Context) ([]string, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return nil, fmt.Errorf("mock error: %w", types.ErrProviderUnavailable)
	}
	if m.reject {
		return nil, fmt.Errorf("User rejected the request.: %w", types.ErrProviderRejected)
	}
	m.approved = true
	return append([]string(nil), m.accounts...), nil
}

func (m *MemEthereum) Accounts(ctx context.Context) ([]string, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return nil, fmt.Errorf("mock error: %w", types.ErrProviderUnavailable)
	}
	if !m.approved {
		return []string{}, nil
	}
	return append([]string(nil), m.accounts...), nil
}
