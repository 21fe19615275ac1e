package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	"github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/ipfs-force-community/zuck-wallet/api"
	"github.com/ipfs-force-community/zuck-wallet/storage"
	"github.com/ipfs-force-community/zuck-wallet/types"
)

var log = logging.Logger("server")

const healthKey = "zuckbuck_healthcheck"

// SessionFailer marks a pairing session as failed.
type SessionFailer interface {
	Fail(id string) error
}

type Options struct {
	API      api.WalletAPI
	Sessions SessionFailer
	Events   http.Handler
	Store    storage.KVStore
	// Token protects write access, empty grants every permission to every caller.
	Token    string
}

// NewRouter mounts the wallet JSON-RPC api, the event stream, the pairing callbacks and the
// health check.
func NewRouter(opts Options) http.Handler {
	var walletAPI api.WalletAPIStruct
	api.PermissionProxy(opts.API, &walletAPI)

	rpcServer := jsonrpc.NewServer()
	rpcServer.Register("Wallet", &walletAPI)

	p := &pairingHandler{api: &walletAPI, sessions: opts.Sessions}

	router := mux.NewRouter()
	router.Handle("/rpc/v0", rpcServer)
	if opts.Events != nil {
		router.Handle("/events", opts.Events).Methods(http.MethodGet)
	}
	router.HandleFunc("/pairing/{id}", p.get).Methods(http.MethodGet)
	router.HandleFunc("/pairing/{id}/confirm", p.confirm).Methods(http.MethodPost)
	router.HandleFunc("/pairing/{id}/fail", p.fail).Methods(http.MethodPost)
	router.Handle("/healthcheck", healthcheck.Handler(
		healthcheck.WithTimeout(5*time.Second),
		healthcheck.WithChecker("storage", healthcheck.CheckerFunc(func(ctx context.Context) error {
			return storageAlive(opts.Store)
		})),
	))

	return withAuth(opts.Token, router)
}

func storageAlive(store storage.KVStore) error {
	if store == nil {
		return errors.New("storage not opened")
	}
	if _, err := store.Get(healthKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// withAuth attaches the caller permissions to the request context.
func withAuth(token string, next http.Handler) http.Handler {
	if len(token) == 0 {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithPerm(r.Context(), api.AllPermissions)))
		})
	}
	return &auth.Handler{
		Verify: func(ctx context.Context, got string) ([]auth.Permission, error) {
			if got != token {
				return nil, errors.New("invalid token")
			}
			return api.AllPermissions, nil
		},
		Next: next.ServeHTTP,
	}
}

type pairingHandler struct {
	api      api.WalletAPI
	sessions SessionFailer
}

type confirmRequest struct {
	Address string `json:"address"`
}

func (p *pairingHandler) get(w http.ResponseWriter, r *http.Request) {
	session, err := p.api.GetPairingSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (p *pairingHandler) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body: " + err.Error()})
		return
	}

	res, err := p.api.ConfirmSession(r.Context(), mux.Vars(r)["id"], req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	code := http.StatusOK
	if !res.Success {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, res)
}

func (p *pairingHandler) fail(w http.ResponseWriter, r *http.Request) {
	if !auth.HasPerm(r.Context(), []auth.Permission{api.PermRead}, api.PermWrite) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "missing permission 'write'"})
		return
	}
	if p.sessions == nil {
		writeError(w, types.ErrSessionNotFound)
		return
	}
	if err := p.sessions.Fail(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrSessionNotFound):
		code = http.StatusNotFound
	case errors.Is(err, types.ErrSessionClosed):
		code = http.StatusConflict
	case errors.Is(err, api.ErrMissingPermission):
		code = http.StatusForbidden
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("write response: %v", err)
	}
}
