package server

import (
	"context"
	"net/http"

	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// Serve listens on the multiaddr listen and blocks until ctx is done or the server fails.
func Serve(ctx context.Context, listen string, handler http.Handler) error {
	addr, err := multiaddr.NewMultiaddr(listen)
	if err != nil {
		return err
	}

	nl, err := manet.Listen(addr)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		log.Info("Shutting down...")
		if err := srv.Shutdown(context.TODO()); err != nil {
			log.Errorf("shutting down RPC server failed: %s", err)
		}
	}()

	log.Infof("start to rpc listen %s", nl.Addr())
	if err = srv.Serve(manet.NetListener(nl)); err != nil && err != http.ErrServerClosed {
		return err
	}

	log.Info("Graceful shutdown successful")
	return nil
}
