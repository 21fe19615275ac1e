package provider

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

// eip1193UserRejected is the provider error code for a declined request.
const eip1193UserRejected = 4001

var _ types.EthereumProvider = (*EthereumRPC)(nil)

type EthereumRPC struct {
	client *rpc.Client
}

func DialEthereum(ctx context.Context, url string) (*EthereumRPC, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return &EthereumRPC{client: client}, nil
}

func (e *EthereumRPC) RequestAccounts(ctx context.Context) ([]string, error) {
	return e.accounts(ctx, "eth_requestAccounts")
}

func (e *EthereumRPC) Accounts(ctx context.Context) ([]string, error) {
	return e.accounts(ctx, "eth_accounts")
}

func (e *EthereumRPC) accounts(ctx context.Context, method string) ([]string, error) {
	var accounts []common.Address
	if err := e.client.CallContext(ctx, &accounts, method); err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == eip1193UserRejected {
			return nil, errors.Wrapf(types.ErrProviderRejected, "%s: %v", method, err)
		}
		return nil, errors.Wrapf(types.ErrProviderUnavailable, "%s: %v", method, err)
	}

	out := make([]string, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, account.Hex())
	}
	return out, nil
}

func (e *EthereumRPC) Close() {
	e.client.Close()
}
