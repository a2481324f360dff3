// internal/intent/storage/store.go
package storage

import (
	"fmt"
	"time"

	"intentcfg/internal/intent"
	"intentcfg/internal/storage"

	"github.com/dgraph-io/badger/v4"
)

// Store persists intents and their versions under separate key prefixes
// in the same badger database.
type Store struct {
	intents  *storage.BadgerStore
	versions *storage.BadgerStore
}

func NewStore(db *badger.DB) *Store {
	return &Store{
		intents:  storage.NewBadgerStore(db, "intent"),
		versions: storage.NewBadgerStore(db, "intent_version"),
	}
}

// intentEntity wraps intent.Intent to implement storage.Entity
type intentEntity struct {
	*intent.Intent
}

func (i *intentEntity) GetID() string {
	return i.ID
}

type versionEntity struct {
	*intent.Version
}

func (v *versionEntity) GetID() string {
	return v.ID
}

func (s *Store) Create(i *intent.Intent) error {
	if err := intent.ValidateIntent(i); err != nil {
		return fmt.Errorf("invalid intent: %w", err)
	}

	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now()
	}
	if i.UpdatedAt.IsZero() {
		i.UpdatedAt = i.CreatedAt
	}

	return s.intents.Create(&intentEntity{Intent: i})
}

func (s *Store) Get(id string) (*intent.Intent, error) {
	var entity intentEntity
	entity.Intent = &intent.Intent{}

	if err := s.intents.Get(id, &entity); err != nil {
		return nil, fmt.Errorf("getting intent: %w", err)
	}

	return entity.Intent, nil
}

func (s *Store) Update(i *intent.Intent) error {
	if err := intent.ValidateIntent(i); err != nil {
		return fmt.Errorf("invalid intent: %w", err)
	}

	i.UpdatedAt = time.Now()
	return s.intents.Update(&intentEntity{Intent: i})
}

func (s *Store) Delete(id string) error {
	return s.intents.Delete(id)
}

func (s *Store) List() ([]*intent.Intent, error) {
	var entities []intentEntity
	if err := s.intents.List(&entities); err != nil {
		return nil, fmt.Errorf("listing intents: %w", err)
	}

	intents := make([]*intent.Intent, len(entities))
	for i, entity := range entities {
		intents[i] = entity.Intent
	}
	return intents, nil
}

func (s *Store) FindByStatus(status intent.Status) ([]*intent.Intent, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var result []*intent.Intent
	for _, i := range all {
		if i.Status == status && !i.Deleted {
			result = append(result, i)
		}
	}
	return result, nil
}

func (s *Store) FindByCode(code string) (*intent.Intent, error) {
	if code == "" {
		return nil, fmt.Errorf("intent code is required")
	}

	all, err := s.List()
	if err != nil {
		return nil, err
	}

	for _, i := range all {
		if i.Code == code {
			return i, nil
		}
	}
	return nil, fmt.Errorf("intent not found by code: %s", code)
}

// Version operations

func (s *Store) CreateVersion(v *intent.Version) error {
	if err := intent.ValidateVersion(v); err != nil {
		return fmt.Errorf("invalid version: %w", err)
	}

	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = v.CreatedAt
	}

	return s.versions.Create(&versionEntity{Version: v})
}

func (s *Store) GetVersion(id string) (*intent.Version, error) {
	var entity versionEntity
	entity.Version = &intent.Version{}

	if err := s.versions.Get(id, &entity); err != nil {
		return nil, fmt.Errorf("getting version: %w", err)
	}

	return entity.Version, nil
}

func (s *Store) UpdateVersion(v *intent.Version) error {
	return s.versions.Update(&versionEntity{Version: v})
}

// UpdateVersions applies a set of version writes in one transaction.
func (s *Store) UpdateVersions(vs ...*intent.Version) error {
	entities := make([]storage.Entity, len(vs))
	for i, v := range vs {
		entities[i] = &versionEntity{Version: v}
	}
	return s.versions.UpdateAll(entities...)
}

func (s *Store) DeleteVersion(id string) error {
	return s.versions.Delete(id)
}

func (s *Store) FindByIntentID(intentID string) ([]*intent.Version, error) {
	var entities []versionEntity
	if err := s.versions.List(&entities); err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}

	var result []*intent.Version
	for _, entity := range entities {
		if entity.IntentID == intentID {
			result = append(result, entity.Version)
		}
	}
	return result, nil
}

func (s *Store) FindByIntentIDAndStatus(intentID string, status intent.Status) ([]*intent.Version, error) {
	versions, err := s.FindByIntentID(intentID)
	if err != nil {
		return nil, err
	}

	var result []*intent.Version
	for _, v := range versions {
		if v.Status == status {
			result = append(result, v)
		}
	}
	return result, nil
}

func (s *Store) FindActiveByIntentID(intentID string) (*intent.Version, error) {
	versions, err := s.FindByIntentIDAndStatus(intentID, intent.StatusActive)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	return versions[0], nil
}

// VersionBoxAdapter exposes the version half of the store as an
// intent.VersionBox.
type VersionBoxAdapter struct {
	*Store
}

func (a VersionBoxAdapter) Create(v *intent.Version) error { return a.CreateVersion(v) }
func (a VersionBoxAdapter) Get(id string) (*intent.Version, error) {
	return a.GetVersion(id)
}
func (a VersionBoxAdapter) Update(v *intent.Version) error { return a.UpdateVersion(v) }
func (a VersionBoxAdapter) UpdateAll(vs ...*intent.Version) error {
	return a.UpdateVersions(vs...)
}
func (a VersionBoxAdapter) Delete(id string) error { return a.Store.DeleteVersion(id) }
