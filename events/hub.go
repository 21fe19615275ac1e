package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// StateSource is the part of the wallet state manager the hub reads from.
type StateSource interface {
	// Watch returns the current state and the changes that follow it.
	Watch(ctx context.Context) (types.ConnectionState, <-chan *types.StateChange)
}

// Hub streams wallet state changes to browser clients over websocket. Every client first
// receives the current state, then each change in order.
type Hub struct {
	ctx      context.Context
	src      StateSource
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger

	lk    sync.Mutex
	conns int
}

// NewHub creates a hub. Connections are closed when ctx is done. Requests whose Origin is not
// in origins are refused, an empty origins accepts any.
func NewHub(ctx context.Context, src StateSource, origins []string, log *zap.SugaredLogger) *Hub {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	h := &Hub{ctx: ctx, src: src, log: log}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if len(allowed) == 0 || len(origin) == 0 {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
	return h
}

func (h *Hub) Connections() int {
	h.lk.Lock()
	defer h.lk.Unlock()
	return h.conns
}

func (h *Hub) track(delta int) {
	h.lk.Lock()
	h.conns += delta
	h.lk.Unlock()
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		h.log.Warnw("upgrade websocket", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			h.log.Debugf("close websocket %s: %v", r.RemoteAddr, err)
		}
	}()

	h.track(1)
	defer h.track(-1)

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()
	state, changes := h.src.Watch(ctx)

	// the client only sends control frames, reading detects when it goes away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log := h.log.With("remote", r.RemoteAddr)
	log.Infow("event listener connected")
	defer log.Infow("event listener disconnected")

	if err := h.write(conn, state.Change()); err != nil {
		log.Warnw("send current state", "err", err)
		return
	}

	tm := time.NewTicker(pingPeriod)
	defer tm.Stop()
	for {
		select {
		case change, ok := <-changes:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
				return
			}
			if err := h.write(conn, change); err != nil {
				log.Warnw("send state change", "err", err)
				return
			}
		case <-tm.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warnw("ping event listener", "err", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, change *types.StateChange) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(change)
}
