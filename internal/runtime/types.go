// internal/runtime/types.go
package runtime

import (
	"fmt"
	"strings"
	"time"
)

// EmptyEtag marks a resolved config produced with no active snapshot.
const EmptyEtag = `W/"empty"`

// Scope is the (channel, tenant, region, env) tuple that partitions
// runtime configuration. Empty fields resolve as "default".
type Scope struct {
	Channel string `json:"channel"`
	Tenant  string `json:"tenant"`
	Region  string `json:"region"`
	Env     string `json:"env"`
}

func (s Scope) Key() string {
	return fmt.Sprintf("%s:%s:%s:%s",
		orDefault(s.Channel),
		orDefault(s.Tenant),
		orDefault(s.Region),
		orDefault(s.Env),
	)
}

func (s Scope) String() string {
	return s.Key()
}

func orDefault(v string) string {
	if v == "" {
		return "default"
	}
	return v
}

// ParseScope reads a "channel:tenant:region:env" key.
func ParseScope(key string) (Scope, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 4 {
		return Scope{}, fmt.Errorf("invalid scope key: %q", key)
	}
	return Scope{
		Channel: parts[0],
		Tenant:  parts[1],
		Region:  parts[2],
		Env:     parts[3],
	}, nil
}

// IntentEntry is the read-optimized projection of one snapshot item.
type IntentEntry struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Labels     []string `json:"labels,omitempty"`
	Boundaries []string `json:"boundaries,omitempty"`
	Threshold  float64  `json:"threshold"`
}

// Config is the resolved runtime configuration served to classification
// callers for one scope. Derived on demand and cached, never persisted.
type Config struct {
	SnapshotID string `json:"snapshot_id"`
	Etag       string `json:"etag"`

	Scope Scope `json:"scope"`

	Intents map[string]IntentEntry `json:"intents"`

	DefaultThreshold float64 `json:"default_threshold"`
	MaxRetries       int     `json:"max_retries"`

	GeneratedAt time.Time `json:"generated_at"`
	LastUpdate  time.Time `json:"last_update"`
}
