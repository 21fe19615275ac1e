package types

import (
	"context"
)

// SolanaProvider is a Phantom style injected provider.
type SolanaProvider interface {
	// IsPhantom probes whether the provider is actually present.
	IsPhantom(ctx context.Context) bool
	Connect(ctx context.Context) (string, error)
	IsConnected(ctx context.Context) (bool, error)
	PublicKey(ctx context.Context) (string, error)
}

// EthereumProvider is an EIP-1193 style provider.
type EthereumProvider interface {
	// RequestAccounts issues eth_requestAccounts and may prompt the user.
	RequestAccounts(ctx context.Context) ([]string, error)
	// Accounts issues eth_accounts and never prompts.
	Accounts(ctx context.Context) ([]string, error)
}

// PairingSessions tracks out-of-band connections the manager cannot verify through a provider.
type PairingSessions interface {
	Enabled(kind WalletType) bool
	Open(kind WalletType) (*PairingSession, error)
	Get(id string) (*PairingSession, error)
	Confirm(id string, address string) (*PairingSession, error)
	Attach(kind WalletType, address string) *PairingSession
	Active(kind WalletType, address string) bool
	Release(kind WalletType)
}
