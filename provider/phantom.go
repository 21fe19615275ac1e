package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

const probeTimeout = time.Second * 3

// PhantomBridgeAPI is the surface exposed by the extension bridge under the Phantom namespace.
type PhantomBridgeAPI struct {
	IsPhantom   func(ctx context.Context) (bool, error)
	Connect     func(ctx context.Context) (string, error)
	IsConnected func(ctx context.Context) (bool, error)
	PublicKey   func(ctx context.Context) (string, error)
}

var _ types.SolanaProvider = (*PhantomBridge)(nil)

type PhantomBridge struct {
	api    *PhantomBridgeAPI
	closer jsonrpc.ClientCloser
}

func NewPhantomBridge(ctx context.Context, url string) (*PhantomBridge, error) {
	api := &PhantomBridgeAPI{}
	closer, err := jsonrpc.NewMergeClient(ctx, url, "Phantom", []interface{}{api}, http.Header{})
	if err != nil {
		return nil, err
	}
	return &PhantomBridge{api: api, closer: closer}, nil
}

func (p *PhantomBridge) IsPhantom(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	ok, err := p.api.IsPhantom(ctx)
	if err != nil {
		log.Debugf("phantom probe failed %v", err)
		return false
	}
	return ok
}

func (p *PhantomBridge) Connect(ctx context.Context) (string, error) {
	key, err := p.api.Connect(ctx)
	if err != nil {
		return "", classify(err)
	}
	return parsePublicKey(key)
}

func (p *PhantomBridge) IsConnected(ctx context.Context) (bool, error) {
	connected, err := p.api.IsConnected(ctx)
	if err != nil {
		return false, classify(err)
	}
	return connected, nil
}

func (p *PhantomBridge) PublicKey(ctx context.Context) (string, error) {
	key, err := p.api.PublicKey(ctx)
	if err != nil {
		return "", classify(err)
	}
	return parsePublicKey(key)
}

func (p *PhantomBridge) Close() {
	p.closer()
}

func parsePublicKey(key string) (string, error) {
	pk, err := solana.PublicKeyFromBase58(key)
	if err != nil {
		return "", errors.Wrapf(types.ErrProviderRejected, "invalid public key %q: %v", key, err)
	}
	return pk.String(), nil
}

func classify(err error) error {
	if userRejected(err) {
		return errors.Wrap(types.ErrProviderRejected, err.Error())
	}
	return errors.Wrap(types.ErrProviderUnavailable, err.Error())
}
