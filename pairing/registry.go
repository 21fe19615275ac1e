package pairing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

var log = logging.Logger("pairing")

var _ types.PairingSessions = (*Registry)(nil)

// Registry keeps the pairing sessions opened for QR code flows.
type Registry struct {
	lk       sync.Mutex
	sessions map[uuid.UUID]*types.PairingSession
	kinds    map[types.WalletType]struct{}
	cfg      *types.PairingConfig
	now      func() time.Time
}

// NewRegistry creates a registry and starts its clean loop, which stops with ctx.
func NewRegistry(ctx context.Context, cfg *types.PairingConfig) *Registry {
	r := newRegistry(cfg)
	go r.cleanLoop(ctx)
	return r
}

func newRegistry(cfg *types.PairingConfig) *Registry {
	if cfg.ClearInterval <= 0 {
		def := types.DefaultPairingConfig().ClearInterval
		log.Warnf("invalid pairing clear interval %s, use %s", cfg.ClearInterval, def)
		c := *cfg
		c.ClearInterval = def
		cfg = &c
	}
	r := &Registry{
		sessions: make(map[uuid.UUID]*types.PairingSession),
		kinds:    make(map[types.WalletType]struct{}),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, kind := range cfg.Kinds {
		r.kinds[kind] = struct{}{}
	}
	return r
}

func (r *Registry) Enabled(kind types.WalletType) bool {
	_, ok := r.kinds[kind]
	return ok
}

func (r *Registry) Open(kind types.WalletType) (*types.PairingSession, error) {
	if !r.Enabled(kind) {
		return nil, errors.Wrapf(types.ErrProviderUnavailable, "pairing is not enabled for %s", kind)
	}
	id := uuid.New()
	uri, err := pairingURI(r.cfg, kind, id)
	if err != nil {
		return nil, err
	}

	now := r.now()
	session := &types.PairingSession{
		ID:        id,
		Kind:      kind,
		URI:       uri,
		Message:   pairingMessage(kind),
		Status:    types.PairingWaiting,
		CreatedAt: now,
		ExpiresAt: now.Add(r.cfg.Timeout),
	}

	r.lk.Lock()
	r.sessions[id] = session
	r.lk.Unlock()

	log.Infow("open pairing session", "id", id, "kind", kind)
	s := *session
	return &s, nil
}

func (r *Registry) Get(id string) (*types.PairingSession, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSessionNotFound, "invalid session id %s", id)
	}

	r.lk.Lock()
	defer r.lk.Unlock()
	session, ok := r.sessions[sid]
	if !ok {
		return nil, errors.Wrapf(types.ErrSessionNotFound, "session %s", id)
	}
	s := *session
	return &s, nil
}

// Confirm completes a waiting session with the address reported by the wallet.
func (r *Registry) Confirm(id string, address string) (*types.PairingSession, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrapf(types.ErrSessionNotFound, "invalid session id %s", id)
	}

	r.lk.Lock()
	defer r.lk.Unlock()
	session, ok := r.sessions[sid]
	if !ok {
		return nil, errors.Wrapf(types.ErrSessionNotFound, "session %s", id)
	}
	switch session.Status {
	case types.PairingConnected:
		if session.Address != address {
			return nil, errors.Wrapf(types.ErrSessionClosed, "session %s already bound to %s", id, session.Address)
		}
	case types.PairingWaiting:
		if r.now().After(session.ExpiresAt) {
			session.Status = types.PairingExpired
			return nil, errors.Wrapf(types.ErrSessionClosed, "session %s expired", id)
		}
		session.Status = types.PairingConnected
		session.Address = address
		log.Infow("pairing session confirmed", "id", id, "kind", session.Kind, "address", address)
	default:
		return nil, errors.Wrapf(types.ErrSessionClosed, "session %s is %s", id, session.Status)
	}
	s := *session
	return &s, nil
}

// Attach binds address to the newest waiting session of kind, or records a
// connected session when none is waiting.
func (r *Registry) Attach(kind types.WalletType, address string) *types.PairingSession {
	r.lk.Lock()
	defer r.lk.Unlock()

	var target *types.PairingSession
	for _, session := range r.sessions {
		if session.Kind != kind {
			continue
		}
		if session.Status == types.PairingConnected && session.Address == address {
			s := *session
			return &s
		}
		if session.Status == types.PairingWaiting && !r.now().After(session.ExpiresAt) {
			if target == nil || session.CreatedAt.After(target.CreatedAt) {
				target = session
			}
		}
	}

	if target == nil {
		now := r.now()
		target = &types.PairingSession{
			ID:        uuid.New(),
			Kind:      kind,
			Message:   pairingMessage(kind),
			CreatedAt: now,
			ExpiresAt: now.Add(r.cfg.Timeout),
		}
		r.sessions[target.ID] = target
	}
	target.Status = types.PairingConnected
	target.Address = address
	log.Infow("attach pairing session", "id", target.ID, "kind", kind, "address", address)
	s := *target
	return &s
}

func (r *Registry) Fail(id string) error {
	sid, err := uuid.Parse(id)
	if err != nil {
		return errors.Wrapf(types.ErrSessionNotFound, "invalid session id %s", id)
	}

	r.lk.Lock()
	defer r.lk.Unlock()
	session, ok := r.sessions[sid]
	if !ok {
		return errors.Wrapf(types.ErrSessionNotFound, "session %s", id)
	}
	if session.Status != types.PairingWaiting {
		return errors.Wrapf(types.ErrSessionClosed, "session %s is %s", id, session.Status)
	}
	session.Status = types.PairingFailed
	return nil
}

// Active reports whether a connected session exists for kind and address.
func (r *Registry) Active(kind types.WalletType, address string) bool {
	r.lk.Lock()
	defer r.lk.Unlock()
	for _, session := range r.sessions {
		if session.Kind == kind && session.Status == types.PairingConnected && session.Address == address {
			return true
		}
	}
	return false
}

func (r *Registry) Release(kind types.WalletType) {
	r.lk.Lock()
	defer r.lk.Unlock()
	for id, session := range r.sessions {
		if session.Kind == kind {
			delete(r.sessions, id)
		}
	}
}

// List returns all sessions, newest first.
func (r *Registry) List() []*types.PairingSession {
	r.lk.Lock()
	defer r.lk.Unlock()
	out := make([]*types.PairingSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		s := *session
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *Registry) cleanLoop(ctx context.Context) {
	tm := time.NewTicker(r.cfg.ClearInterval)
	defer tm.Stop()
	for {
		select {
		case <-tm.C:
			r.clean()
		case <-ctx.Done():
			log.Warnf("return clean pairing sessions")
			return
		}
	}
}

func (r *Registry) clean() {
	now := r.now()
	r.lk.Lock()
	defer r.lk.Unlock()
	for id, session := range r.sessions {
		switch session.Status {
		case types.PairingWaiting:
			if now.After(session.ExpiresAt) {
				session.Status = types.PairingExpired
				log.Infow("pairing session expired", "id", id, "kind", session.Kind)
			}
		case types.PairingFailed, types.PairingExpired:
			if now.Sub(session.CreatedAt) > r.cfg.Retention {
				delete(r.sessions, id)
			}
		}
	}
}
