package provider

import (
	"context"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

var log = logging.Logger("provider")

type Config struct {
	// PhantomBridge is the url of the browser extension bridge, empty disables it.
	PhantomBridge string
	// EthereumRPC is the url of an EIP-1193 compatible wallet endpoint, empty disables it.
	EthereumRPC string
}

func DefaultConfig() *Config {
	return &Config{}
}

// Providers holds the capabilities detected from the configuration. A nil field means the
// capability is absent.
type Providers struct {
	Solana   *PhantomBridge
	Ethereum *EthereumRPC
}

func (p *Providers) Close() {
	if p.Solana != nil {
		p.Solana.Close()
	}
	if p.Ethereum != nil {
		p.Ethereum.Close()
	}
}

func Open(ctx context.Context, cfg *Config) (*Providers, error) {
	p := &Providers{}
	if len(cfg.PhantomBridge) > 0 {
		bridge, err := NewPhantomBridge(ctx, cfg.PhantomBridge)
		if err != nil {
			return nil, errors.Wrap(err, "setup phantom bridge")
		}
		log.Infof("phantom bridge at %s", cfg.PhantomBridge)
		p.Solana = bridge
	}
	if len(cfg.EthereumRPC) > 0 {
		eth, err := DialEthereum(ctx, cfg.EthereumRPC)
		if err != nil {
			p.Close()
			return nil, errors.Wrap(err, "setup ethereum provider")
		}
		log.Infof("ethereum provider at %s", cfg.EthereumRPC)
		p.Ethereum = eth
	}
	return p, nil
}

// SolanaProvider returns the capability as an interface, nil when absent.
func (p *Providers) SolanaProvider() types.SolanaProvider {
	if p.Solana == nil {
		return nil
	}
	return p.Solana
}

func (p *Providers) EthereumProvider() types.EthereumProvider {
	if p.Ethereum == nil {
		return nil
	}
	return p.Ethereum
}

// userRejected matches the EIP-1193 "User rejected the request." error.
func userRejected(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "rejected")
}
