package authz

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCodeStore is a CodeStore backed by an expiring in-memory cache.
// Entries evict shortly after the code itself expires; validity is still
// decided by the Code record, the cache TTL is just garbage collection.
type MemoryCodeStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewMemoryCodeStore creates a MemoryCodeStore. The ttl should be at least
// the code TTL; entries linger a little longer so late verification attempts
// fail on the attempt counter rather than vanish silently.
func NewMemoryCodeStore(ttl time.Duration) *MemoryCodeStore {
	grace := ttl + time.Minute
	return &MemoryCodeStore{
		cache: gocache.New(grace, 2*grace),
	}
}

func (m *MemoryCodeStore) Put(code *Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Set(code.ActionID, code, gocache.DefaultExpiration)
	return nil
}

func (m *MemoryCodeStore) Get(actionID string) (*Code, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache.Get(actionID)
	if !ok {
		return nil, false
	}
	stored := v.(*Code)
	clone := *stored
	return &clone, true
}

func (m *MemoryCodeStore) Update(code *Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cache.Get(code.ActionID); !ok {
		return nil
	}
	clone := *code
	m.cache.Set(code.ActionID, &clone, gocache.DefaultExpiration)
	return nil
}

func (m *MemoryCodeStore) Delete(actionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(actionID)
}

var _ CodeStore = (*MemoryCodeStore)(nil)
