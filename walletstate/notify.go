package walletstate

import (
	"sync"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

// Subscription is the handle returned by Subscribe and Listen.
type Subscription struct {
	id uint64
	ch chan *types.StateChange
	n  *notifier
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.n.remove(s.id)
}

type notifier struct {
	lk        sync.Mutex
	subs      map[uint64]*Subscription
	next      uint64
	queueSize int
}

func newNotifier(queueSize int) *notifier {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &notifier{subs: make(map[uint64]*Subscription), queueSize: queueSize}
}

func (n *notifier) subscribe() *Subscription {
	n.lk.Lock()
	defer n.lk.Unlock()
	n.next++
	sub := &Subscription{id: n.next, ch: make(chan *types.StateChange, n.queueSize), n: n}
	n.subs[sub.id] = sub
	return sub
}

func (n *notifier) remove(id uint64) {
	n.lk.Lock()
	defer n.lk.Unlock()
	if sub, ok := n.subs[id]; ok {
		delete(n.subs, id)
		close(sub.ch)
	}
}

// broadcast never blocks, a subscriber with a full queue misses the change.
func (n *notifier) broadcast(change *types.StateChange) {
	n.lk.Lock()
	defer n.lk.Unlock()
	for id, sub := range n.subs {
		c := *change
		select {
		case sub.ch <- &c:
		default:
			log.Warnw("subscriber queue full, drop state change", "subscriber", id, "state", c)
		}
	}
}

func (n *notifier) count() int {
	n.lk.Lock()
	defer n.lk.Unlock()
	return len(n.subs)
}

func (n *notifier) closeAll() {
	n.lk.Lock()
	defer n.lk.Unlock()
	for id, sub := range n.subs {
		delete(n.subs, id)
		close(sub.ch)
	}
}
