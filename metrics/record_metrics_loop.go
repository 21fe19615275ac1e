package metrics

import (
	"context"
	"time"

	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

// StateSource is what the record loop samples.
type StateSource interface {
	GetState() types.ConnectionState
	SubscriberCount() int
}

// SessionSource reports the pairing sessions held in memory.
type SessionSource interface {
	List() []*types.PairingSession
}

func recordMetricsLoop(ctx context.Context, state StateSource, sessions SessionSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			recordStateInfo(ctx, state)
			recordSessionInfo(ctx, sessions)
		case <-ctx.Done():
			log.Infof("context done, stop record metrics")
			return
		}
	}
}

func recordStateInfo(ctx context.Context, src StateSource) {
	state := src.GetState()
	for _, walletType := range types.WalletTypes {
		tctx, _ := tag.New(ctx, tag.Upsert(WalletTypeKey, string(walletType)))
		var connected int64
		if state.IsConnected && state.WalletType == walletType {
			connected = 1
		}
		Connected.Set(tctx, connected)
	}
	Subscribers.Set(ctx, int64(src.SubscriberCount()))
}

func recordSessionInfo(ctx context.Context, src SessionSource) {
	if src == nil {
		return
	}
	PairingSessions.Set(ctx, int64(len(src.List())))
}
