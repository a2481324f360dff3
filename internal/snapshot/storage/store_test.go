package storage

import (
	"testing"

	"intentcfg/internal/intent"
	"intentcfg/internal/snapshot"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable logging for tests

	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func newSnapshot(name string, status intent.Status) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		ID:     uuid.New().String(),
		Name:   name,
		Status: status,
	}
}

func TestSnapshotStoreCRUD(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	s := newSnapshot("release-1", "")
	require.NoError(t, store.Create(s))
	assert.Equal(t, intent.StatusDraft, s.Status)
	assert.False(t, s.CreatedAt.IsZero())

	// Items round-trip as part of the snapshot record.
	s.Items = []snapshot.Item{{SnapshotID: s.ID, IntentCode: "refund", VersionLabel: "v1"}}
	s.Etag = `W/"abc123"`
	require.NoError(t, store.Update(s))

	retrieved, err := store.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Etag, retrieved.Etag)
	require.Len(t, retrieved.Items, 1)
	assert.Equal(t, "refund", retrieved.Items[0].IntentCode)

	require.NoError(t, store.Create(newSnapshot("release-2", intent.StatusDraft)))
	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.Get("does-not-exist")
	assert.Error(t, err)
}

func TestGetCurrentActive(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	active, err := store.GetCurrentActive()
	require.NoError(t, err)
	assert.Nil(t, active)

	require.NoError(t, store.Create(newSnapshot("draft", intent.StatusDraft)))
	published := newSnapshot("published", intent.StatusActive)
	require.NoError(t, store.Create(published))

	active, err = store.GetCurrentActive()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, published.ID, active.ID)
}

func TestSwap(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	t.Run("FirstActivation", func(t *testing.T) {
		next := newSnapshot("release-1", intent.StatusDraft)
		require.NoError(t, store.Create(next))

		next.Status = intent.StatusActive
		require.NoError(t, store.Swap(nil, "", next, intent.StatusDraft))

		stored, err := store.Get(next.ID)
		require.NoError(t, err)
		assert.Equal(t, intent.StatusActive, stored.Status)
	})

	t.Run("PairedTransition", func(t *testing.T) {
		current, err := store.GetCurrentActive()
		require.NoError(t, err)
		require.NotNil(t, current)

		next := newSnapshot("release-2", intent.StatusDraft)
		require.NoError(t, store.Create(next))

		current.Status = intent.StatusDeprecated
		next.Status = intent.StatusActive
		require.NoError(t, store.Swap(current, intent.StatusActive, next, intent.StatusDraft))

		demoted, err := store.Get(current.ID)
		require.NoError(t, err)
		assert.Equal(t, intent.StatusDeprecated, demoted.Status)

		active, err := store.GetCurrentActive()
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, next.ID, active.ID)
	})

	t.Run("OptimisticCheckFails", func(t *testing.T) {
		current, err := store.GetCurrentActive()
		require.NoError(t, err)
		require.NotNil(t, current)

		next := newSnapshot("release-3", intent.StatusDraft)
		require.NoError(t, store.Create(next))

		// Simulate a concurrent publish moving the current row first.
		stale := *current
		current.Status = intent.StatusDeprecated
		require.NoError(t, store.Update(current))

		stale.Status = intent.StatusDeprecated
		next.Status = intent.StatusActive
		err = store.Swap(&stale, intent.StatusActive, next, intent.StatusDraft)
		require.ErrorIs(t, err, ErrStatusChanged)

		// Nothing was written: the target is still a draft.
		stored, err := store.Get(next.ID)
		require.NoError(t, err)
		assert.Equal(t, intent.StatusDraft, stored.Status)
	})

	t.Run("MissingRow", func(t *testing.T) {
		next := newSnapshot("never-created", intent.StatusDraft)
		next.Status = intent.StatusActive
		err := store.Swap(nil, "", next, intent.StatusDraft)
		assert.Error(t, err)
	})
}
