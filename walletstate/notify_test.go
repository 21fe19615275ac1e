package walletstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

func TestNotifierOrder(t *testing.T) {
	n := newNotifier(10)
	a, b := n.subscribe(), n.subscribe()
	require.Equal(t, 2, n.count())

	for _, addr := range []string{"a", "b", "c"} {
		n.broadcast(&types.StateChange{WalletType: types.WalletPhantom, Address: addr, IsConnected: true})
	}
	for _, sub := range []*Subscription{a, b} {
		for _, addr := range []string{"a", "b", "c"} {
			require.Equal(t, addr, (<-sub.ch).Address)
		}
	}
}

func TestNotifierCopiesChange(t *testing.T) {
	n := newNotifier(1)
	a, b := n.subscribe(), n.subscribe()
	n.broadcast(&types.StateChange{Address: "x"})

	first := <-a.ch
	first.Address = "changed"
	require.Equal(t, "x", (<-b.ch).Address)
}

func TestNotifierDropsWhenFull(t *testing.T) {
	n := newNotifier(1)
	slow := n.subscribe()
	n.broadcast(&types.StateChange{Address: "1"})
	n.broadcast(&types.StateChange{Address: "2"})

	require.Equal(t, "1", (<-slow.ch).Address)
	select {
	case change := <-slow.ch:
		t.Fatalf("expected dropped change, got %+v", change)
	default:
	}
}

func TestNotifierUnsubscribe(t *testing.T) {
	n := newNotifier(0)
	sub := n.subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe()
	require.Equal(t, 0, n.count())

	_, ok := <-sub.ch
	require.False(t, ok)
	n.broadcast(&types.StateChange{})

	other := n.subscribe()
	n.closeAll()
	_, ok = <-other.ch
	require.False(t, ok)
	other.Unsubscribe()
}
