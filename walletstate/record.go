package walletstate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

// StateKey is the storage key of the persisted connection record.
const StateKey = "zuckbuck_wallet_state"

type stateRecord struct {
	WalletType  *string `json:"walletType"`
	Address     *string `json:"address"`
	IsConnected bool    `json:"isConnected"`
	Timestamp   int64   `json:"timestamp"`
}

func encodeRecord(state types.ConnectionState, at time.Time) ([]byte, error) {
	rec := stateRecord{IsConnected: state.IsConnected, Timestamp: at.UnixMilli()}
	if state.WalletType != types.WalletNone {
		walletType := string(state.WalletType)
		rec.WalletType = &walletType
	}
	if len(state.Address) > 0 {
		addr := state.Address
		rec.Address = &addr
	}
	return json.Marshal(rec)
}

func decodeRecord(data []byte) (types.ConnectionState, error) {
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return types.ConnectionState{}, fmt.Errorf("unmarshal state record: %w", err)
	}

	state := types.ConnectionState{IsConnected: rec.IsConnected}
	if rec.WalletType != nil {
		w, err := types.ParseWalletType(*rec.WalletType)
		if err != nil {
			return types.ConnectionState{}, err
		}
		state.WalletType = w
	}
	if rec.Address != nil {
		state.Address = *rec.Address
	}
	if rec.Timestamp > 0 {
		state.LastPersistedAt = time.UnixMilli(rec.Timestamp)
	}
	if !state.Valid() {
		return types.ConnectionState{}, fmt.Errorf("state record %s violates connection invariants", string(data))
	}
	return state, nil
}
