// internal/cache/tiered.go
package cache

import (
	"context"

	"intentcfg/internal/runtime"

	"go.uber.org/zap"
)

// Tiered composes the local tier over the shared tier. Reads try local
// first and repopulate it from shared hits; writes go through to both.
// The small staleness window this opens is bounded by the local TTL and
// buys a network-round-trip-free read-hot path.
type Tiered struct {
	local  ConfigCache
	shared ConfigCache
	logger *zap.Logger
}

func NewTiered(local, shared ConfigCache, logger *zap.Logger) *Tiered {
	return &Tiered{
		local:  local,
		shared: shared,
		logger: logger,
	}
}

func (t *Tiered) Get(ctx context.Context, scope runtime.Scope) (*runtime.Config, bool) {
	if cfg, ok := t.local.Get(ctx, scope); ok {
		return cfg, true
	}

	cfg, ok := t.shared.Get(ctx, scope)
	if !ok {
		return nil, false
	}

	// Shared hit repopulates the local tier for subsequent reads.
	if err := t.local.Put(ctx, cfg); err != nil {
		t.logger.Warn("local cache repopulate failed",
			zap.String("scope", scope.Key()),
			zap.Error(err),
		)
	}
	return cfg, true
}

// Put is a best-effort double write: a failed shared write does not stop
// the local write, and neither failure propagates to the caller's
// operation.
func (t *Tiered) Put(ctx context.Context, cfg *runtime.Config) error {
	if err := t.shared.Put(ctx, cfg); err != nil {
		t.logger.Warn("shared cache write failed",
			zap.String("scope", cfg.Scope.Key()),
			zap.Error(err),
		)
	}
	if err := t.local.Put(ctx, cfg); err != nil {
		t.logger.Warn("local cache write failed",
			zap.String("scope", cfg.Scope.Key()),
			zap.Error(err),
		)
	}
	return nil
}

// CheckEtag consults only the shared tier. The local tier's short TTL
// would produce false negatives for long-poll clients.
func (t *Tiered) CheckEtag(ctx context.Context, scope runtime.Scope, clientEtag string) bool {
	return t.shared.CheckEtag(ctx, scope, clientEtag)
}

func (t *Tiered) Evict(ctx context.Context, scope runtime.Scope) error {
	if err := t.shared.Evict(ctx, scope); err != nil {
		t.logger.Warn("shared cache evict failed",
			zap.String("scope", scope.Key()),
			zap.Error(err),
		)
	}
	return t.local.Evict(ctx, scope)
}

func (t *Tiered) EvictAll(ctx context.Context) error {
	if err := t.shared.EvictAll(ctx); err != nil {
		t.logger.Warn("shared cache evict-all failed", zap.Error(err))
	}
	return t.local.EvictAll(ctx)
}
