// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intentcfg/internal/runtime"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	configKeyPrefix = "intent:runtime:config:"
	etagKeyPrefix   = "intent:runtime:etag:"
)

// Redis is the shared tier: networked, long TTL, authoritative for
// conditional-fetch etag checks. The etag is stored beside the config so
// CheckEtag never deserializes the full payload.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func configKey(scope runtime.Scope) string {
	return configKeyPrefix + scope.Key()
}

func etagKey(scope runtime.Scope) string {
	return etagKeyPrefix + scope.Key()
}

func (r *Redis) Get(ctx context.Context, scope runtime.Scope) (*runtime.Config, bool) {
	raw, err := r.client.Get(ctx, configKey(scope)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Degrade to a miss; the caller falls through to the source.
			r.logger.Warn("shared cache read failed",
				zap.String("scope", scope.Key()),
				zap.Error(err),
			)
		}
		return nil, false
	}

	cfg, err := decodeConfig(raw)
	if err != nil {
		r.logger.Warn("shared cache entry corrupt, treating as miss",
			zap.String("scope", scope.Key()),
			zap.Error(err),
		)
		return nil, false
	}
	return cfg, true
}

func (r *Redis) Put(ctx context.Context, cfg *runtime.Config) error {
	raw, err := encodeConfig(cfg)
	if err != nil {
		return err
	}

	scope := cfg.Scope
	if err := r.client.Set(ctx, configKey(scope), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("writing shared cache: %w", err)
	}
	if err := r.client.Set(ctx, etagKey(scope), cfg.Etag, r.ttl).Err(); err != nil {
		return fmt.Errorf("writing shared etag: %w", err)
	}
	return nil
}

func (r *Redis) CheckEtag(ctx context.Context, scope runtime.Scope, clientEtag string) bool {
	if clientEtag == "" {
		return false
	}

	cached, err := r.client.Get(ctx, etagKey(scope)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("etag check failed",
				zap.String("scope", scope.Key()),
				zap.Error(err),
			)
		}
		return false
	}
	return cached == clientEtag
}

func (r *Redis) Evict(ctx context.Context, scope runtime.Scope) error {
	if err := r.client.Del(ctx, configKey(scope), etagKey(scope)).Err(); err != nil {
		return fmt.Errorf("evicting shared cache: %w", err)
	}
	return nil
}

func (r *Redis) EvictAll(ctx context.Context) error {
	for _, pattern := range []string{configKeyPrefix + "*", etagKeyPrefix + "*"} {
		if err := r.deleteByPattern(ctx, pattern); err != nil {
			return err
		}
	}
	return nil
}

func (r *Redis) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scanning cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("deleting cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
