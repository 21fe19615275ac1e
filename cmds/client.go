package cmds

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
	"github.com/urfave/cli/v2"

	"github.com/ipfs-force-community/zuck-wallet/api"
)

func NewWalletClient(ctx *cli.Context) (api.WalletAPI, jsonrpc.ClientCloser, error) {
	addr, err := DialArgs(ctx.String("listen"))
	if err != nil {
		return nil, nil, err
	}
	header := http.Header{}
	if token := ctx.String("token"); len(token) > 0 {
		header.Add("Authorization", "Bearer "+token)
	}

	return api.NewWalletRPCClient(ctx.Context, addr, header)
}

func DialArgs(addr string) (string, error) {
	ma, err := multiaddr.NewMultiaddr(addr)
	if err == nil {
		_, addr, err := manet.DialArgs(ma)
		if err != nil {
			return "", err
		}

		return "ws://" + addr + "/rpc/v0", nil
	}

	_, err = url.Parse(addr)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(addr, "/") + "/rpc/v0", nil
}
