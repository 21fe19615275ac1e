package walletstate

import (
	"context"
	"time"

	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/zuck-wallet/metrics"
	"github.com/ipfs-force-community/zuck-wallet/types"
)

func (m *Manager) verifyLoop(ctx context.Context) {
	tm := time.NewTicker(m.cfg.VerifyInterval)
	defer tm.Stop()
	for {
		select {
		case <-tm.C:
			if err := m.verify(ctx, false); err != nil {
				log.Debugf("periodic verification: %v", err)
			}
		case <-ctx.Done():
			log.Warnf("return verify wallet state")
			return
		}
	}
}

// verify reconciles the cached state with the provider. On startup a Phantom connection is
// re-established with Connect, afterwards only the provider's reported status is read. A
// connection that cannot be confirmed is cleared.
func (m *Manager) verify(ctx context.Context, startup bool) error {
	cur := m.GetState()
	if cur.WalletType == types.WalletNone {
		return nil
	}

	next, err := m.check(ctx, cur, startup)
	if err != nil {
		log.Warnw("wallet connection verification failed", "wallet", cur.WalletType, "address", cur.Address, "err", err)
		tctx, _ := tag.New(ctx, tag.Upsert(metrics.WalletTypeKey, cur.WalletType.String()))
		stats.Record(tctx, metrics.VerifyFailed.M(1))
		m.swap(ctx, &cur, types.ConnectionState{})
		return types.WrapWalletError(types.VerificationFailed, err, "wallet connection could not be verified")
	}
	if m.swap(ctx, &cur, next) {
		log.Infow("wallet state reconciled", "wallet", next.WalletType, "address", next.Address, "connected", next.IsConnected)
	}
	return nil
}

func (m *Manager) check(ctx context.Context, cur types.ConnectionState, startup bool) (types.ConnectionState, error) {
	switch cur.WalletType {
	case types.WalletPhantom:
		return m.checkPhantom(ctx, cur, startup)
	case types.WalletCoinbase:
		if m.hasEthereum() {
			return m.checkEthereum(ctx, cur)
		}
		return m.checkSession(cur)
	case types.WalletWalletConnect:
		return m.checkSession(cur)
	}
	return types.ConnectionState{}, errors.Errorf("unknown wallet type %s", cur.WalletType)
}

func (m *Manager) checkPhantom(ctx context.Context, cur types.ConnectionState, startup bool) (types.ConnectionState, error) {
	if !m.hasSolana(ctx) {
		return types.ConnectionState{}, errors.Wrap(types.ErrProviderUnavailable, "phantom provider not detected")
	}

	var key string
	if startup {
		start := time.Now()
		addr, err := m.solana.Connect(ctx)
		recordProviderCall(ctx, cur.WalletType, "connect", start)
		if err != nil {
			return types.ConnectionState{}, err
		}
		key = addr
	} else {
		connected, err := m.solana.IsConnected(ctx)
		if err != nil {
			return types.ConnectionState{}, err
		}
		if !connected {
			return types.ConnectionState{}, nil
		}
		addr, err := m.solana.PublicKey(ctx)
		if err != nil {
			return types.ConnectionState{}, err
		}
		key = addr
	}

	key = types.NormalizeAddress(key)
	if len(key) == 0 {
		return types.ConnectionState{}, errors.Wrap(types.ErrProviderRejected, "provider returned an empty public key")
	}
	return types.ConnectionState{WalletType: types.WalletPhantom, Address: key, IsConnected: true}, nil
}

func (m *Manager) checkEthereum(ctx context.Context, cur types.ConnectionState) (types.ConnectionState, error) {
	start := time.Now()
	accounts, err := m.eth.Accounts(ctx)
	recordProviderCall(ctx, cur.WalletType, "eth_accounts", start)
	if err != nil {
		return types.ConnectionState{}, err
	}
	if len(accounts) == 0 {
		return types.ConnectionState{}, nil
	}
	return types.ConnectionState{WalletType: cur.WalletType, Address: types.NormalizeAddress(accounts[0]), IsConnected: true}, nil
}

// checkSession keeps a paired connection while its session is alive.
func (m *Manager) checkSession(cur types.ConnectionState) (types.ConnectionState, error) {
	if !reflect2.IsNil(m.sessions) && m.sessions.Active(cur.WalletType, cur.Address) {
		return cur, nil
	}
	return types.ConnectionState{}, errors.Wrapf(types.ErrProviderUnavailable, "no live pairing session for %s", cur.WalletType)
}
