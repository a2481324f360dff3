// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"

	"intentcfg/internal/runtime"
)

// Memory is an in-process stand-in for the shared tier with the same TTL
// behavior. Used in tests and in single-node deployments without redis.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	cfg      *runtime.Config
	cachedAt time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (m *Memory) Get(_ context.Context, scope runtime.Scope) (*runtime.Config, bool) {
	key := scope.Key()

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(entry.cachedAt) > m.ttl {
		// Lazy expiry, removed opportunistically on access.
		m.mu.Lock()
		if current, still := m.entries[key]; still && current.cachedAt.Equal(entry.cachedAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return entry.cfg, true
}

func (m *Memory) Put(_ context.Context, cfg *runtime.Config) error {
	m.mu.Lock()
	m.entries[cfg.Scope.Key()] = memoryEntry{cfg: cfg, cachedAt: time.Now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) CheckEtag(ctx context.Context, scope runtime.Scope, clientEtag string) bool {
	if clientEtag == "" {
		return false
	}
	cfg, ok := m.Get(ctx, scope)
	return ok && cfg.Etag == clientEtag
}

func (m *Memory) Evict(_ context.Context, scope runtime.Scope) error {
	m.mu.Lock()
	delete(m.entries, scope.Key())
	m.mu.Unlock()
	return nil
}

func (m *Memory) EvictAll(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Expire backdates an entry's write time; test hook for TTL behavior.
func (m *Memory) Expire(scope runtime.Scope, age time.Duration) {
	m.mu.Lock()
	if entry, ok := m.entries[scope.Key()]; ok {
		entry.cachedAt = entry.cachedAt.Add(-age)
		m.entries[scope.Key()] = entry
	}
	m.mu.Unlock()
}
