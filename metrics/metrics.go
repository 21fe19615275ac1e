package metrics

import (
	"time"

	rpcMetrics "github.com/filecoin-project/go-jsonrpc/metrics"
	"github.com/ipfs-force-community/metrics"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Global Tags
var (
	WalletTypeKey, _ = tag.NewKey("wallet_type")
	ResultKey, _     = tag.NewKey("result")
	MethodKey, _     = tag.NewKey("method")
)

// Distribution
var defaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 3000, 4000, 5000, 7500, 10000, 20000, 50000, 100000)

var (
	// wallet state
	Connected       = metrics.NewInt64("wallet/connected", "1 if a wallet is connected", stats.UnitDimensionless, WalletTypeKey)
	Subscribers     = metrics.NewInt64("wallet/subscribers", "State change subscriber count", stats.UnitDimensionless)
	PairingSessions = metrics.NewInt64("wallet/pairing_sessions", "Pairing sessions kept in memory", stats.UnitDimensionless)

	ConnectAttempt = stats.Int64("wallet/connect", "Wallet connect attempt", stats.UnitDimensionless)
	StateChanged   = stats.Int64("wallet/state_changed", "Wallet state change broadcast", stats.UnitDimensionless)
	VerifyFailed   = stats.Int64("wallet/verify_failed", "Wallet connection verification failed", stats.UnitDimensionless)
	PersistFailed  = stats.Int64("wallet/persist_failed", "Wallet state could not be persisted", stats.UnitDimensionless)

	// method call
	ProviderCall = stats.Float64("provider_call", "Call wallet provider spent time", stats.UnitMilliseconds)

	ApiState = metrics.NewInt64("api/state", "api service state. 0: down, 1: up", "")
)

var (
	connectAttemptView = &view.View{
		Measure:     ConnectAttempt,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletTypeKey, ResultKey},
	}
	stateChangedView = &view.View{
		Measure:     StateChanged,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletTypeKey},
	}
	verifyFailedView = &view.View{
		Measure:     VerifyFailed,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{WalletTypeKey},
	}
	persistFailedView = &view.View{
		Measure:     PersistFailed,
		Aggregation: view.Count(),
	}

	providerCallView = &view.View{
		Measure:     ProviderCall,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{WalletTypeKey, MethodKey},
	}
)

var views = append([]*view.View{
	connectAttemptView,
	stateChangedView,
	verifyFailedView,
	persistFailedView,
	providerCallView,
}, rpcMetrics.DefaultViews...)

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(time.Since(startTime).Nanoseconds()) / 1e6
}

func init() {
	// register metrics
	_ = view.Register(views...)
}
