// internal/intent/types.go
package intent

import (
	"time"
)

// Status is the shared lifecycle state for intents and versions.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// Intent represents a classifiable category configured by operators.
type Intent struct {
	ID          string `json:"id"`
	Code        string `json:"code"` // unique, immutable business key
	Name        string `json:"name"`
	Description string `json:"description"`
	CatalogID   string `json:"catalog_id"`

	Labels []string `json:"labels"`
	// Boundaries is an opaque key->value map consumed by classification;
	// this service carries it without interpreting it.
	Boundaries map[string]string `json:"boundaries"`

	CurrentVersionID string    `json:"current_version_id"`
	Status           Status    `json:"status"`
	Deleted          bool      `json:"deleted"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Version is a named, timestamped revision of an intent's configuration.
// At most one version per intent is active at any time.
type Version struct {
	ID         string    `json:"id"`
	IntentID   string    `json:"intent_id"`
	Label      string    `json:"label"` // version label, e.g. "v3"
	ChangeNote string    `json:"change_note"`
	Status     Status    `json:"status"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Box defines how we store/retrieve intents
type Box interface {
	Create(i *Intent) error
	Get(id string) (*Intent, error)
	Update(i *Intent) error
	Delete(id string) error
	List() ([]*Intent, error)

	FindByStatus(status Status) ([]*Intent, error)
	FindByCode(code string) (*Intent, error)
}

// VersionBox defines how we store/retrieve intent versions
type VersionBox interface {
	Create(v *Version) error
	Get(id string) (*Version, error)
	Update(v *Version) error
	// UpdateAll writes every version in one transaction; paired status
	// transitions must never be observed half-applied.
	UpdateAll(vs ...*Version) error
	Delete(id string) error

	FindByIntentID(intentID string) ([]*Version, error)
	FindByIntentIDAndStatus(intentID string, status Status) ([]*Version, error)
	FindActiveByIntentID(intentID string) (*Version, error)
}
