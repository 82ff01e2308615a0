package r2client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sync"
)

// MemoryStore is an in-process Store with the same conditional write
// semantics as R2. It backs local runs without a bucket and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryObject
}

type memoryObject struct {
	body []byte
	etag string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func etagOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:16])
}

func (m *MemoryStore) store(key string, body []byte) string {
	obj := memoryObject{body: slices.Clone(body), etag: etagOf(body)}
	m.objects[key] = obj
	return obj.etag
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(key, body), nil
}

// PutIfAbsent implements Store.
func (m *MemoryStore) PutIfAbsent(_ context.Context, key string, body []byte, _ string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return false, "", nil
	}
	return true, m.store(key, body), nil
}

// PutIfMatch implements Store.
func (m *MemoryStore) PutIfMatch(_ context.Context, key string, body []byte, etag, _ string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok || obj.etag != etag {
		return false, "", nil
	}
	return true, m.store(key, body), nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return slices.Clone(obj.body), obj.etag, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
