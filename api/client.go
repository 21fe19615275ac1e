package api

import (
	"context"
	"net/http"

	"github.com/filecoin-project/go-jsonrpc"
)

// NewWalletRPCClient dials the Wallet namespace at addr, a ws:// or http:// url of /rpc/v0.
func NewWalletRPCClient(ctx context.Context, addr string, header http.Header, opts ...jsonrpc.Option) (WalletAPI, jsonrpc.ClientCloser, error) {
	var res WalletAPIStruct
	closer, err := jsonrpc.NewMergeClient(ctx, addr, "Wallet", []interface{}{&res.Internal}, header, opts...)
	if err != nil {
		return nil, nil, err
	}
	return &res, closer, nil
}
