package storage

import (
	"fmt"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/zuck-wallet/types"
)

var log = logging.Logger("storage")

const (
	TypeLevelDB = "leveldb"
	TypeMemory  = "memory"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = types.ErrNotFound

// KVStore is the durable local key-value storage scoped to one device/profile.
type KVStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

type Config struct {
	Type string
	Path string
}

func DefaultConfig() *Config {
	return &Config{Type: TypeLevelDB, Path: "state"}
}

// Open creates the store described by cfg, relative paths are resolved against repo.
func Open(repo string, cfg *Config) (KVStore, error) {
	switch cfg.Type {
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeLevelDB, "":
		path := cfg.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(repo, path)
		}
		log.Infof("open leveldb store at %s", path)
		return NewLevelDBStore(path)
	}
	return nil, fmt.Errorf("unsupported storage type %s", cfg.Type)
}
