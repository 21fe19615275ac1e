package types

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type WalletType string

const (
	WalletNone          WalletType = ""
	WalletPhantom       WalletType = "phantom"
	WalletCoinbase      WalletType = "coinbase"
	WalletWalletConnect WalletType = "walletconnect"
)

var WalletTypes = []WalletType{WalletPhantom, WalletCoinbase, WalletWalletConnect}

func ParseWalletType(s string) (WalletType, error) {
	switch t := WalletType(strings.ToLower(strings.TrimSpace(s))); t {
	case WalletPhantom, WalletCoinbase, WalletWalletConnect:
		return t, nil
	case "none":
		return WalletNone, nil
	}
	return WalletNone, NewWalletError(ProviderUnavailable, "unknown wallet type %q", s)
}

// DisplayName is the label shown by wallet pickers.
func (w WalletType) DisplayName() string {
	switch w {
	case WalletPhantom:
		return "Phantom"
	case WalletCoinbase:
		return "Coinbase"
	case WalletWalletConnect:
		return "WalletConnect"
	}
	return ""
}

func (w WalletType) String() string {
	if w == WalletNone {
		return "none"
	}
	return string(w)
}

// ConnectionState is the single record owned by the state manager.
type ConnectionState struct {
	WalletType      WalletType `json:"walletType"`
	Address         string     `json:"address"`
	IsConnected     bool       `json:"isConnected"`
	LastPersistedAt time.Time  `json:"lastPersistedAt"`
}

// Valid reports whether the record satisfies the connection invariants.
func (s ConnectionState) Valid() bool {
	if s.IsConnected && (s.WalletType == WalletNone || s.Address == "") {
		return false
	}
	if s.WalletType == WalletNone && (s.Address != "" || s.IsConnected) {
		return false
	}
	return true
}

func (s ConnectionState) Empty() bool {
	return s.WalletType == WalletNone && s.Address == "" && !s.IsConnected
}

// SameAs compares the observable fields only.
func (s ConnectionState) SameAs(o ConnectionState) bool {
	return s.WalletType == o.WalletType && s.Address == o.Address && s.IsConnected == o.IsConnected
}

func (s ConnectionState) Change() *StateChange {
	return &StateChange{WalletType: s.WalletType, Address: s.Address, IsConnected: s.IsConnected}
}

// StateChange is the payload broadcast to observers.
type StateChange struct {
	WalletType  WalletType `json:"walletType"`
	Address     string     `json:"address"`
	IsConnected bool       `json:"isConnected"`
}

// NormalizeAddress trims the reported address and checksums hex addresses.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}

type PairingStatus string

const (
	PairingWaiting   PairingStatus = "waiting"
	PairingConnected PairingStatus = "connected"
	PairingFailed    PairingStatus = "failed"
	PairingExpired   PairingStatus = "expired"
)

// PairingSession describes a pending out-of-band connection shown to the user as a QR code.
type PairingSession struct {
	ID        uuid.UUID     `json:"id"`
	Kind      WalletType    `json:"kind"`
	URI       string        `json:"uri"`
	Message   string        `json:"message"`
	Status    PairingStatus `json:"status"`
	Address   string        `json:"address,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type ConnectResult struct {
	Success     bool            `json:"success"`
	Wallet      string          `json:"wallet"`
	Address     string          `json:"address"`
	ShowPairing bool            `json:"showPairing,omitempty"`
	Pairing     *PairingSession `json:"pairing,omitempty"`
	Message     string          `json:"message,omitempty"`
	InstallURL  string          `json:"installUrl,omitempty"`
	ErrorKind   ErrorKind       `json:"errorKind,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func FailedResult(w WalletType, err error) *ConnectResult {
	res := &ConnectResult{Wallet: w.DisplayName(), Error: err.Error(), ErrorKind: KindOf(err)}
	if we, ok := AsWalletError(err); ok {
		res.InstallURL = we.InstallURL
	}
	return res
}
