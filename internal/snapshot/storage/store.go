// internal/snapshot/storage/store.go
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"intentcfg/internal/intent"
	"intentcfg/internal/snapshot"
	"intentcfg/internal/storage"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "snapshot"

// ErrStatusChanged is returned when a swap's optimistic status check
// fails because a concurrent publish or rollback already moved a row.
var ErrStatusChanged = fmt.Errorf("snapshot status changed concurrently")

// Store persists snapshots, including their owned item lists, as single
// badger records. Swap gives the publisher its transaction boundary.
type Store struct {
	db    *badger.DB
	store *storage.BadgerStore
}

func NewStore(db *badger.DB) *Store {
	return &Store{
		db:    db,
		store: storage.NewBadgerStore(db, keyPrefix),
	}
}

// snapshotEntity wraps snapshot.Snapshot to implement storage.Entity
type snapshotEntity struct {
	*snapshot.Snapshot
}

func (s *snapshotEntity) GetID() string {
	return s.ID
}

func (s *Store) Create(snap *snapshot.Snapshot) error {
	if snap.Name == "" {
		return fmt.Errorf("snapshot name is required")
	}

	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = snap.CreatedAt
	}
	if snap.Status == "" {
		snap.Status = intent.StatusDraft
	}

	return s.store.Create(&snapshotEntity{Snapshot: snap})
}

func (s *Store) Get(id string) (*snapshot.Snapshot, error) {
	var entity snapshotEntity
	entity.Snapshot = &snapshot.Snapshot{}

	if err := s.store.Get(id, &entity); err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}

	return entity.Snapshot, nil
}

func (s *Store) Update(snap *snapshot.Snapshot) error {
	snap.UpdatedAt = time.Now()
	return s.store.Update(&snapshotEntity{Snapshot: snap})
}

func (s *Store) List() ([]*snapshot.Snapshot, error) {
	var entities []snapshotEntity
	if err := s.store.List(&entities); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	snapshots := make([]*snapshot.Snapshot, len(entities))
	for i, entity := range entities {
		snapshots[i] = entity.Snapshot
	}
	return snapshots, nil
}

// GetCurrentActive scans for the single active snapshot. Returns nil when
// nothing is published.
func (s *Store) GetCurrentActive() (*snapshot.Snapshot, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	for _, snap := range all {
		if snap.Status == intent.StatusActive {
			return snap, nil
		}
	}
	return nil, nil
}

// Swap writes the deactivate/activate pair in one badger transaction.
// Each row is re-read inside the transaction and its stored status must
// still match the expected pre-state, otherwise nothing is written.
func (s *Store) Swap(old *snapshot.Snapshot, oldExpect intent.Status, next *snapshot.Snapshot, nextExpect intent.Status) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if old != nil {
			if err := s.checkStatus(txn, old.ID, oldExpect); err != nil {
				return err
			}
		}
		if err := s.checkStatus(txn, next.ID, nextExpect); err != nil {
			return err
		}

		if old != nil {
			if err := s.setInTxn(txn, old); err != nil {
				return err
			}
		}
		return s.setInTxn(txn, next)
	})
}

func (s *Store) checkStatus(txn *badger.Txn, id string, expect intent.Status) error {
	item, err := txn.Get(s.makeKey(id))
	if err == badger.ErrKeyNotFound {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	} else if err != nil {
		return err
	}

	var stored snapshot.Snapshot
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &stored)
	}); err != nil {
		return fmt.Errorf("reading snapshot %s: %w", id, err)
	}

	if stored.Status != expect {
		return fmt.Errorf("%w: %s is %s, expected %s", ErrStatusChanged, id, stored.Status, expect)
	}
	return nil
}

func (s *Store) setInTxn(txn *badger.Txn, snap *snapshot.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return txn.Set(s.makeKey(snap.ID), data)
}

func (s *Store) makeKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", keyPrefix, id))
}
