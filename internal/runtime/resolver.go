// internal/runtime/resolver.go
package runtime

import (
	"fmt"
	"time"

	"intentcfg/internal/snapshot"

	"go.uber.org/zap"
)

const (
	defaultThreshold = 0.6
	defaultRetries   = 3
)

// Resolver projects the current active snapshot into the read-optimized
// config for one scope. It is the authoritative source the cache tiers
// are rebuilt from; the cache is never consulted here.
type Resolver struct {
	snapshots snapshot.Box
	logger    *zap.Logger
}

func NewResolver(snapshots snapshot.Box, logger *zap.Logger) *Resolver {
	return &Resolver{
		snapshots: snapshots,
		logger:    logger,
	}
}

// Resolve builds the runtime config for scope from the active snapshot.
// No active snapshot yields an empty config with a distinguished etag,
// not an error: callers must be able to serve "nothing published yet".
func (r *Resolver) Resolve(scope Scope) (*Config, error) {
	active, err := r.snapshots.GetCurrentActive()
	if err != nil {
		return nil, fmt.Errorf("finding active snapshot: %w", err)
	}

	if active == nil {
		r.logger.Warn("no active snapshot for scope", zap.String("scope", scope.Key()))
		return r.emptyConfig(scope), nil
	}

	intents := make(map[string]IntentEntry, len(active.Items))
	for _, item := range active.Items {
		intents[item.IntentCode] = IntentEntry{
			Code:       item.IntentCode,
			Name:       item.IntentName,
			Version:    item.VersionLabel,
			Labels:     item.Labels,
			Boundaries: item.Boundaries,
			Threshold:  defaultThreshold,
		}
	}

	return &Config{
		SnapshotID:       active.ID,
		Etag:             active.Etag,
		Scope:            scope,
		Intents:          intents,
		DefaultThreshold: defaultThreshold,
		MaxRetries:       defaultRetries,
		GeneratedAt:      time.Now(),
		LastUpdate:       active.UpdatedAt,
	}, nil
}

func (r *Resolver) emptyConfig(scope Scope) *Config {
	return &Config{
		Etag:             EmptyEtag,
		Scope:            scope,
		Intents:          map[string]IntentEntry{},
		DefaultThreshold: defaultThreshold,
		MaxRetries:       defaultRetries,
		GeneratedAt:      time.Now(),
	}
}
