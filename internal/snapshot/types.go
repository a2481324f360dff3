// internal/snapshot/types.go
package snapshot

import (
	"time"

	"intentcfg/internal/intent"
)

// Scope selector keys written during rollback for audit. The selector is
// otherwise schema-less; unknown keys pass through untouched.
const (
	SelectorRollbackReason = "rollback_reason"
	SelectorRollbackTime   = "rollback_time"
	SelectorRollbackBy     = "rollback_by"
)

// Snapshot is an immutable-once-built bundle of every publishable intent
// at a point in time. Exactly one snapshot is active system-wide.
type Snapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Scope         string            `json:"scope"`
	ScopeSelector map[string]string `json:"scope_selector"`

	Status intent.Status `json:"status"`
	Etag   string        `json:"etag"`

	PublishedBy string    `json:"published_by,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`

	Items []Item `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is an owned child record capturing a point-in-time copy of one
// intent's publishable facts. Never mutated after activation.
type Item struct {
	SnapshotID   string   `json:"snapshot_id"`
	IntentID     string   `json:"intent_id"`
	IntentCode   string   `json:"intent_code"`
	IntentName   string   `json:"intent_name"`
	VersionID    string   `json:"version_id"`
	VersionLabel string   `json:"version_label"`
	Labels       []string `json:"labels"`
	Boundaries   []string `json:"boundaries"`
}

// Box defines how we store/retrieve snapshots
type Box interface {
	Create(s *Snapshot) error
	Get(id string) (*Snapshot, error)
	Update(s *Snapshot) error
	List() ([]*Snapshot, error)

	// GetCurrentActive returns the single active snapshot, or nil when
	// nothing is published.
	GetCurrentActive() (*Snapshot, error)

	// Swap applies the deactivate-old/activate-new pair in one
	// transaction. old may be nil when nothing is active. Each row's
	// stored status must still equal the given expected pre-state,
	// otherwise the swap fails without writing (optimistic check against
	// concurrent publishes).
	Swap(old *Snapshot, oldExpect intent.Status, next *Snapshot, nextExpect intent.Status) error
}
