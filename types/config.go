package types

import (
	"time"
)

type StateConfig struct {
	VerifyInterval  time.Duration
	NotifyQueueSize int
}

func DefaultStateConfig() *StateConfig {
	return &StateConfig{
		VerifyInterval:  time.Second * 5,
		NotifyQueueSize: 30,
	}
}

type PairingConfig struct {
	Kinds         []WalletType
	Timeout       time.Duration
	ClearInterval time.Duration
	Retention     time.Duration

	AppName   string
	Origin    string
	Bridge    string
	ProjectID string
}

func DefaultPairingConfig() *PairingConfig {
	return &PairingConfig{
		Kinds:         []WalletType{WalletCoinbase, WalletWalletConnect},
		Timeout:       time.Minute * 5,
		ClearInterval: time.Minute,
		Retention:     time.Minute * 30,
		AppName:       "zuckbuck",
		Origin:        "http://localhost:3000",
		Bridge:        "https://bridge.walletconnect.org",
		ProjectID:     "",
	}
}
