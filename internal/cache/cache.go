// internal/cache/cache.go
package cache

import (
	"context"

	"intentcfg/internal/runtime"
)

// ConfigCache is the capability both cache tiers implement. The local
// in-process tier, the shared redis tier and the in-memory test fake are
// interchangeable; Tiered composes a local tier over a shared one.
//
// Cache tiers are disposable projections. They are never the source of
// truth for what is active, only for what the resolved config looks like
// right now. A failed read is a miss; a failed write is logged by the
// caller and swallowed.
type ConfigCache interface {
	// Get returns the cached config for scope, or a miss.
	Get(ctx context.Context, scope runtime.Scope) (*runtime.Config, bool)

	// Put stores the config under its own scope.
	Put(ctx context.Context, cfg *runtime.Config) error

	// CheckEtag reports whether the cached etag for scope equals
	// clientEtag. Missing entries never match.
	CheckEtag(ctx context.Context, scope runtime.Scope, clientEtag string) bool

	// Evict drops one scope; EvictAll drops everything. Both are safe
	// under concurrent readers, which either miss and repopulate or see
	// pre-eviction data.
	Evict(ctx context.Context, scope runtime.Scope) error
	EvictAll(ctx context.Context) error
}
