// internal/cache/local.go
package cache

import (
	"context"
	"time"

	"intentcfg/internal/runtime"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// localEntry wraps a config with its write timestamp.
type localEntry struct {
	cfg      *runtime.Config
	cachedAt time.Time
}

// Local is the in-process tier: bounded size, short TTL, no network.
// Expiry is lazy via the LRU's TTL; there is no background sweep.
type Local struct {
	entries *expirable.LRU[string, localEntry]
}

func NewLocal(size int, ttl time.Duration) *Local {
	return &Local{
		entries: expirable.NewLRU[string, localEntry](size, nil, ttl),
	}
}

func (l *Local) Get(_ context.Context, scope runtime.Scope) (*runtime.Config, bool) {
	entry, ok := l.entries.Get(scope.Key())
	if !ok {
		return nil, false
	}
	return entry.cfg, true
}

func (l *Local) Put(_ context.Context, cfg *runtime.Config) error {
	l.entries.Add(cfg.Scope.Key(), localEntry{cfg: cfg, cachedAt: time.Now()})
	return nil
}

func (l *Local) CheckEtag(ctx context.Context, scope runtime.Scope, clientEtag string) bool {
	if clientEtag == "" {
		return false
	}
	cfg, ok := l.Get(ctx, scope)
	return ok && cfg.Etag == clientEtag
}

func (l *Local) Evict(_ context.Context, scope runtime.Scope) error {
	l.entries.Remove(scope.Key())
	return nil
}

func (l *Local) EvictAll(_ context.Context) error {
	l.entries.Purge()
	return nil
}

func (l *Local) Len() int {
	return l.entries.Len()
}
