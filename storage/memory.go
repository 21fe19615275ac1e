package storage

import (
	"fmt"
	"sync"
)

var _ KVStore = (*MemoryStore)(nil)

// MemoryStore keeps values in a map. SetFail makes every call return an error.
type MemoryStore struct {
	lk     sync.Mutex
	values map[string][]byte
	fail   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) SetFail(fail bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.fail = fail
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return nil, fmt.Errorf("mock error")
	}
	val, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (m *MemoryStore) Put(key string, value []byte) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return fmt.Errorf("mock error")
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	if m.fail {
		return fmt.Errorf("mock error")
	}
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
