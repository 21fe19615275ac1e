package walletstate

import (
	"context"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/zuck-wallet/metrics"
	"github.com/ipfs-force-community/zuck-wallet/storage"
	"github.com/ipfs-force-community/zuck-wallet/types"
)

var log = logging.Logger("wallet_state")

const (
	phantomInstallURL  = "https://phantom.app/"
	coinbaseInstallURL = "https://www.coinbase.com/mobile"
)

// Manager owns the wallet connection state: it persists every transition, re-verifies the
// connection against the provider and broadcasts changes to subscribers.
type Manager struct {
	lk    sync.Mutex
	state types.ConnectionState
	// writeLk orders mutations, it is held across persistence so lk never waits on disk
	writeLk sync.Mutex
	// one provider prompt at a time, waiters give up when their ctx ends
	providerSem chan struct{}

	cfg      *types.StateConfig
	store    storage.KVStore
	solana   types.SolanaProvider
	eth      types.EthereumProvider
	sessions types.PairingSessions
	notifier *notifier
	now      func() time.Time

	runLk  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager builds a manager. Any of solana, eth and sessions may be nil when the
// capability is absent. Nothing runs until Start.
func NewManager(cfg *types.StateConfig, store storage.KVStore, solana types.SolanaProvider, eth types.EthereumProvider, sessions types.PairingSessions) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    store,
		solana:   solana,
		eth:      eth,
		sessions: sessions,
		notifier:    newNotifier(cfg.NotifyQueueSize),
		now:         time.Now,
		providerSem: make(chan struct{}, 1),
	}
}

// Start hydrates the state from storage and starts background verification.
func (m *Manager) Start(ctx context.Context) error {
	m.runLk.Lock()
	defer m.runLk.Unlock()
	if m.cancel != nil {
		return errors.New("wallet state manager already started")
	}
	if m.cfg.VerifyInterval <= 0 {
		return errors.Errorf("invalid verify interval %s", m.cfg.VerifyInterval)
	}

	m.restore()

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.verify(ctx, true); err != nil {
			log.Infof("startup verification cleared the connection: %v", err)
		}
		m.verifyLoop(ctx)
	}()
	return nil
}

// Stop halts background verification and closes every subscription.
func (m *Manager) Stop() {
	m.runLk.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.runLk.Unlock()

	if cancel != nil {
		cancel()
		m.wg.Wait()
	}
	m.notifier.closeAll()
}

func (m *Manager) GetState() types.ConnectionState {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.state
}

func (m *Manager) SubscriberCount() int {
	return m.notifier.count()
}

// Subscribe calls fn for every state change, in order, from a dedicated goroutine.
func (m *Manager) Subscribe(fn func(*types.StateChange)) *Subscription {
	sub := m.notifier.subscribe()
	go func() {
		for change := range sub.ch {
			fn(change)
		}
	}()
	return sub
}

// Listen returns a channel of state changes, closed when ctx is done or the manager stops.
func (m *Manager) Listen(ctx context.Context) <-chan *types.StateChange {
	_, ch := m.Watch(ctx)
	return ch
}

// Watch is Listen that also returns the state the first change applies to. No change is
// both part of the snapshot and delivered on the channel.
func (m *Manager) Watch(ctx context.Context) (types.ConnectionState, <-chan *types.StateChange) {
	m.lk.Lock()
	state := m.state
	sub := m.notifier.subscribe()
	m.lk.Unlock()

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()
	return state, sub.ch
}

func (m *Manager) Connect(ctx context.Context, kind types.WalletType) *types.ConnectResult {
	res := m.connect(ctx, kind)
	result := "success"
	switch {
	case res.ShowPairing:
		result = "pairing"
	case !res.Success:
		result = string(res.ErrorKind)
	}
	tctx, _ := tag.New(ctx, tag.Upsert(metrics.WalletTypeKey, kind.String()), tag.Upsert(metrics.ResultKey, result))
	stats.Record(tctx, metrics.ConnectAttempt.M(1))
	return res
}

func (m *Manager) connect(ctx context.Context, kind types.WalletType) *types.ConnectResult {
	switch kind {
	case types.WalletPhantom:
		if !m.hasSolana(ctx) {
			err := types.NewWalletError(types.ProviderUnavailable, "Phantom wallet not installed. Please install it first.")
			err.InstallURL = phantomInstallURL
			return types.FailedResult(kind, err)
		}
		if err := m.acquireProvider(ctx); err != nil {
			return types.FailedResult(kind, types.WrapWalletError(types.ProviderUnavailable, err, "another wallet request is pending"))
		}
		defer m.releaseProvider()

		start := time.Now()
		addr, err := m.solana.Connect(ctx)
		recordProviderCall(ctx, kind, "connect", start)
		if err != nil {
			return m.connectFailed(ctx, kind, err)
		}
		return m.connected(ctx, kind, addr)

	case types.WalletCoinbase:
		if m.hasEthereum() {
			if err := m.acquireProvider(ctx); err != nil {
				return types.FailedResult(kind, types.WrapWalletError(types.ProviderUnavailable, err, "another wallet request is pending"))
			}
			defer m.releaseProvider()

			start := time.Now()
			accounts, err := m.eth.RequestAccounts(ctx)
			recordProviderCall(ctx, kind, "eth_requestAccounts", start)
			if err != nil {
				return m.connectFailed(ctx, kind, err)
			}
			if len(accounts) == 0 {
				return m.connectFailed(ctx, kind, errors.Wrap(types.ErrProviderRejected, "provider returned no accounts"))
			}
			return m.connected(ctx, kind, accounts[0])
		}
		return m.pair(kind)

	case types.WalletWalletConnect:
		return m.pair(kind)
	}

	return types.FailedResult(kind, types.NewWalletError(types.ProviderUnavailable, "unknown wallet type %q", string(kind)))
}

func (m *Manager) acquireProvider(ctx context.Context) error {
	select {
	case m.providerSem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) releaseProvider() {
	<-m.providerSem
}

func (m *Manager) pair(kind types.WalletType) *types.ConnectResult {
	if reflect2.IsNil(m.sessions) || !m.sessions.Enabled(kind) {
		err := types.NewWalletError(types.ProviderUnavailable, "%s is not available: no provider detected and pairing is disabled", kind.DisplayName())
		if kind == types.WalletCoinbase {
			err.InstallURL = coinbaseInstallURL
		}
		return types.FailedResult(kind, err)
	}

	session, err := m.sessions.Open(kind)
	if err != nil {
		log.Warnw("open pairing session failed", "wallet", kind, "err", err)
		return types.FailedResult(kind, types.WrapWalletError(types.ProviderUnavailable, err, "unable to start pairing"))
	}
	return &types.ConnectResult{
		Success:     true,
		Wallet:      kind.DisplayName(),
		ShowPairing: true,
		Pairing:     session,
		Message:     session.Message,
	}
}

func (m *Manager) connected(ctx context.Context, kind types.WalletType, addr string) *types.ConnectResult {
	addr = types.NormalizeAddress(addr)
	if len(addr) == 0 {
		return m.connectFailed(ctx, kind, errors.Wrap(types.ErrProviderRejected, "provider returned an empty address"))
	}
	m.swap(ctx, nil, types.ConnectionState{WalletType: kind, Address: addr, IsConnected: true})
	log.Infow("wallet connected", "wallet", kind, "address", addr)
	return &types.ConnectResult{Success: true, Wallet: kind.DisplayName(), Address: addr}
}

func (m *Manager) connectFailed(ctx context.Context, kind types.WalletType, err error) *types.ConnectResult {
	log.Warnw("wallet connect failed", "wallet", kind, "err", err)
	m.swap(ctx, nil, types.ConnectionState{})
	errKind := types.KindOf(err)
	msg := "connection request was declined"
	if errKind == types.ProviderUnavailable {
		msg = "wallet provider is not reachable"
	}
	return types.FailedResult(kind, types.WrapWalletError(errKind, err, msg))
}

// ConfirmExternalConnection completes an out-of-band connection reported by a pairing flow.
func (m *Manager) ConfirmExternalConnection(ctx context.Context, kind types.WalletType, address string) *types.ConnectResult {
	if kind != types.WalletPhantom && kind != types.WalletCoinbase && kind != types.WalletWalletConnect {
		return types.FailedResult(kind, types.NewWalletError(types.ProviderUnavailable, "unknown wallet type %q", string(kind)))
	}
	address = types.NormalizeAddress(address)
	if len(address) == 0 {
		return types.FailedResult(kind, types.NewWalletError(types.ProviderRejected, "empty address"))
	}
	var session *types.PairingSession
	if !reflect2.IsNil(m.sessions) {
		session = m.sessions.Attach(kind, address)
	}
	m.swap(ctx, nil, types.ConnectionState{WalletType: kind, Address: address, IsConnected: true})
	return &types.ConnectResult{Success: true, Wallet: kind.DisplayName(), Address: address, Pairing: session}
}

// ConfirmSession completes the pairing session id with the address reported by the wallet.
func (m *Manager) ConfirmSession(ctx context.Context, id string, address string) *types.ConnectResult {
	if reflect2.IsNil(m.sessions) {
		return types.FailedResult(types.WalletNone, types.NewWalletError(types.ProviderUnavailable, "pairing is disabled"))
	}
	address = types.NormalizeAddress(address)
	if len(address) == 0 {
		return types.FailedResult(types.WalletNone, types.NewWalletError(types.ProviderRejected, "empty address"))
	}
	session, err := m.sessions.Confirm(id, address)
	if err != nil {
		log.Warnw("confirm pairing session failed", "id", id, "err", err)
		return types.FailedResult(types.WalletNone, types.WrapWalletError(types.ProviderRejected, err, "pairing confirmation refused"))
	}
	m.swap(ctx, nil, types.ConnectionState{WalletType: session.Kind, Address: address, IsConnected: true})
	return &types.ConnectResult{Success: true, Wallet: session.Kind.DisplayName(), Address: address, Pairing: session}
}

func (m *Manager) GetPairingSession(id string) (*types.PairingSession, error) {
	if reflect2.IsNil(m.sessions) {
		return nil, types.ErrSessionNotFound
	}
	return m.sessions.Get(id)
}

// Disconnect resets the state. It always succeeds.
func (m *Manager) Disconnect(ctx context.Context) types.ConnectionState {
	prev := m.GetState()
	m.swap(ctx, nil, types.ConnectionState{})
	log.Infow("wallet disconnected", "wallet", prev.WalletType, "address", prev.Address)
	return m.GetState()
}

// swap replaces the state with next when the observable fields differ. When expected is not
// nil the swap only happens if the current state still matches it. The new state is persisted
// before it is broadcast. Pairing sessions of a wallet the state moves away from are released.
func (m *Manager) swap(ctx context.Context, expected *types.ConnectionState, next types.ConnectionState) bool {
	m.writeLk.Lock()
	defer m.writeLk.Unlock()

	cur := m.GetState()
	if expected != nil && !cur.SameAs(*expected) {
		return false
	}
	if cur.SameAs(next) {
		return false
	}

	next.LastPersistedAt = cur.LastPersistedAt
	at := m.now()
	if err := m.persist(next, at); err != nil {
		log.Errorw("persist wallet state failed, keep in memory state", "err", err)
		stats.Record(ctx, metrics.PersistFailed.M(1))
	} else {
		next.LastPersistedAt = at
	}

	// broadcast under lk so Watch sees either the old state and the change, or the new state
	m.lk.Lock()
	m.state = next
	m.notifier.broadcast(next.Change())
	m.lk.Unlock()

	if cur.WalletType != types.WalletNone && cur.WalletType != next.WalletType && !reflect2.IsNil(m.sessions) {
		m.sessions.Release(cur.WalletType)
	}

	tctx, _ := tag.New(ctx, tag.Upsert(metrics.WalletTypeKey, next.WalletType.String()))
	stats.Record(tctx, metrics.StateChanged.M(1))
	return true
}

func (m *Manager) persist(state types.ConnectionState, at time.Time) error {
	if state.Empty() {
		if err := m.store.Delete(StateKey); err != nil {
			return types.WrapWalletError(types.PersistenceError, err, "remove state record")
		}
		return nil
	}
	data, err := encodeRecord(state, at)
	if err != nil {
		return types.WrapWalletError(types.PersistenceError, err, "encode state record")
	}
	if err := m.store.Put(StateKey, data); err != nil {
		return types.WrapWalletError(types.PersistenceError, err, "write state record")
	}
	return nil
}

// restore loads the persisted record without broadcasting.
func (m *Manager) restore() {
	data, err := m.store.Get(StateKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Errorw("load wallet state failed", "kind", types.PersistenceError, "err", err)
		}
		return
	}

	state, err := decodeRecord(data)
	if err != nil {
		log.Warnw("drop unreadable wallet state record", "err", err)
		if err := m.store.Delete(StateKey); err != nil {
			log.Errorw("remove wallet state record failed", "err", err)
		}
		return
	}

	m.lk.Lock()
	m.state = state
	m.lk.Unlock()
	log.Infow("restore wallet state", "wallet", state.WalletType, "address", state.Address, "connected", state.IsConnected)
}

func (m *Manager) hasSolana(ctx context.Context) bool {
	return !reflect2.IsNil(m.solana) && m.solana.IsPhantom(ctx)
}

func (m *Manager) hasEthereum() bool {
	return !reflect2.IsNil(m.eth)
}

func recordProviderCall(ctx context.Context, kind types.WalletType, method string, start time.Time) {
	tctx, _ := tag.New(ctx, tag.Upsert(metrics.WalletTypeKey, kind.String()), tag.Upsert(metrics.MethodKey, method))
	stats.Record(tctx, metrics.ProviderCall.M(metrics.SinceInMilliseconds(start)))
}
