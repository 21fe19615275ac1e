package types

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestConnectionStateValid(t *testing.T) {
	require.True(t, ConnectionState{}.Valid())
	require.True(t, ConnectionState{WalletType: WalletPhantom, Address: "ABC123", IsConnected: true}.Valid())

	require.False(t, ConnectionState{WalletType: WalletPhantom, IsConnected: true}.Valid())
	require.False(t, ConnectionState{Address: "ABC123", IsConnected: true}.Valid())
	require.False(t, ConnectionState{Address: "ABC123"}.Valid())
}

func TestParseWalletType(t *testing.T) {
	for _, in := range []string{"phantom", " Phantom ", "PHANTOM"} {
		w, err := ParseWalletType(in)
		require.NoError(t, err)
		require.Equal(t, WalletPhantom, w)
	}

	w, err := ParseWalletType("none")
	require.NoError(t, err)
	require.Equal(t, WalletNone, w)

	_, err = ParseWalletType("metamask")
	require.Error(t, err)
	require.Equal(t, ProviderUnavailable, KindOf(err))
}

func TestNormalizeAddress(t *testing.T) {
	require.Equal(t, "0x52908400098527886E0F7030069857D2E4169EE7",
		NormalizeAddress(" 0x52908400098527886e0f7030069857d2e4169ee7 "))
	require.Equal(t, "0xDEADBEEF", NormalizeAddress("0xDEADBEEF"))
	require.Equal(t, "ABC123", NormalizeAddress("ABC123\n"))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, ErrorKind(""), KindOf(nil))
	require.Equal(t, ProviderUnavailable, KindOf(errors.Wrap(ErrProviderUnavailable, "dial")))
	require.Equal(t, ProviderRejected, KindOf(fmt.Errorf("user said no: %w", ErrProviderRejected)))
	require.Equal(t, VerificationFailed, KindOf(WrapWalletError(VerificationFailed, ErrProviderUnavailable, "verify")))
	require.Equal(t, ProviderRejected, KindOf(errors.New("boom")))
}

func TestFailedResult(t *testing.T) {
	err := &WalletError{Kind: ProviderUnavailable, Message: "Phantom wallet not installed", InstallURL: "https://phantom.app/"}
	res := FailedResult(WalletPhantom, err)
	require.False(t, res.Success)
	require.Equal(t, "Phantom", res.Wallet)
	require.Equal(t, ProviderUnavailable, res.ErrorKind)
	require.Equal(t, "https://phantom.app/", res.InstallURL)
}

func TestJSONShape(t *testing.T) {
	state := ConnectionState{WalletType: WalletPhantom, Address: "ABC123", IsConnected: true, LastPersistedAt: time.Unix(0, 0).UTC()}
	data, err := json.Marshal(state)
	require.NoError(t, err)
	require.JSONEq(t, `{"walletType":"phantom","address":"ABC123","isConnected":true,"lastPersistedAt":"1970-01-01T00:00:00Z"}`, string(data))

	// the state and its change notification share field names
	changeData, err := json.Marshal(state.Change())
	require.NoError(t, err)
	require.JSONEq(t, `{"walletType":"phantom","address":"ABC123","isConnected":true}`, string(changeData))

	data, err = json.Marshal(FailedResult(WalletCoinbase, NewWalletError(ProviderUnavailable, "no provider")))
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	require.Equal(t, false, fields["success"])
	require.Equal(t, "Coinbase", fields["wallet"])
	require.Equal(t, string(ProviderUnavailable), fields["errorKind"])
	require.NotContains(t, fields, "pairing")
}
