// Package session keeps pipeline state snapshots between turns so a user
// can come back with just an authorization code and have their pending
// actions resumed.
package session

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Store persists per-session state snapshots.
type Store interface {
	// Save stores a snapshot under the session id, replacing any previous one.
	Save(sessionID string, snapshot *state.State) error
	// Load returns the snapshot for a session id.
	Load(sessionID string) (*state.State, bool)
	// Delete removes the snapshot for a session id.
	Delete(sessionID string)
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore is a Store backed by an expiring in-memory cache. Sessions
// evict after the TTL; an evicted session simply cannot resume.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a MemoryStore with the given session TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (m *MemoryStore) Save(sessionID string, snapshot *state.State) error {
	m.cache.Set(sessionID, snapshot.Clone(), gocache.DefaultExpiration)
	return nil
}

func (m *MemoryStore) Load(sessionID string) (*state.State, bool) {
	v, ok := m.cache.Get(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*state.State).Clone(), true
}

func (m *MemoryStore) Delete(sessionID string) {
	m.cache.Delete(sessionID)
}

var _ Store = (*MemoryStore)(nil)
