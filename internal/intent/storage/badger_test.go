package storage

import (
	"testing"
	"time"

	"intentcfg/internal/intent"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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

func TestIntentStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	t.Run("Create", func(t *testing.T) {
		i := &intent.Intent{
			ID:     uuid.New().String(),
			Code:   "refund",
			Name:   "Refund Request",
			Status: intent.StatusDraft,
		}

		err := store.Create(i)
		require.NoError(t, err)
		assert.False(t, i.CreatedAt.IsZero())
		assert.False(t, i.UpdatedAt.IsZero())

		// Try to create duplicate
		err = store.Create(i)
		assert.Error(t, err)
	})

	t.Run("Get", func(t *testing.T) {
		i := &intent.Intent{
			ID:         uuid.New().String(),
			Code:       "greeting",
			Name:       "Greeting",
			Boundaries: map[string]string{"exclude": "sarcasm"},
		}

		err := store.Create(i)
		require.NoError(t, err)

		retrieved, err := store.Get(i.ID)
		require.NoError(t, err)
		assert.Equal(t, i.Code, retrieved.Code)
		assert.Equal(t, i.Boundaries, retrieved.Boundaries)

		_, err = store.Get("does-not-exist")
		assert.Error(t, err)
	})

	t.Run("Update", func(t *testing.T) {
		i := &intent.Intent{
			ID:   uuid.New().String(),
			Code: "cancel",
			Name: "Original name",
		}

		err := store.Create(i)
		require.NoError(t, err)

		originalUpdated := i.UpdatedAt

		time.Sleep(time.Millisecond) // Ensure time difference
		i.Name = "Updated name"
		err = store.Update(i)
		require.NoError(t, err)
		assert.True(t, i.UpdatedAt.After(originalUpdated))

		retrieved, err := store.Get(i.ID)
		require.NoError(t, err)
		assert.Equal(t, "Updated name", retrieved.Name)
	})

	t.Run("FindByStatus", func(t *testing.T) {
		active := &intent.Intent{
			ID:     uuid.New().String(),
			Code:   "complaint",
			Name:   "Complaint",
			Status: intent.StatusActive,
		}
		deleted := &intent.Intent{
			ID:      uuid.New().String(),
			Code:    "legacy",
			Name:    "Legacy",
			Status:  intent.StatusActive,
			Deleted: true,
		}
		require.NoError(t, store.Create(active))
		require.NoError(t, store.Create(deleted))

		found, err := store.FindByStatus(intent.StatusActive)
		require.NoError(t, err)

		ids := make(map[string]bool)
		for _, i := range found {
			ids[i.ID] = true
		}
		assert.True(t, ids[active.ID])
		assert.False(t, ids[deleted.ID], "soft-deleted intents must not be found")
	})

	t.Run("FindByCode", func(t *testing.T) {
		i := &intent.Intent{
			ID:   uuid.New().String(),
			Code: "escalate",
			Name: "Escalate",
		}
		require.NoError(t, store.Create(i))

		found, err := store.FindByCode("escalate")
		require.NoError(t, err)
		assert.Equal(t, i.ID, found.ID)

		_, err = store.FindByCode("no-such-code")
		assert.Error(t, err)
	})
}

func TestVersionStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	intentID := uuid.New().String()
	require.NoError(t, store.Create(&intent.Intent{
		ID:   intentID,
		Code: "refund",
		Name: "Refund Request",
	}))

	t.Run("CreateAndFind", func(t *testing.T) {
		v1 := &intent.Version{
			ID:       uuid.New().String(),
			IntentID: intentID,
			Label:    "v1",
			Status:   intent.StatusActive,
		}
		v2 := &intent.Version{
			ID:       uuid.New().String(),
			IntentID: intentID,
			Label:    "v2",
			Status:   intent.StatusDraft,
		}
		require.NoError(t, store.CreateVersion(v1))
		require.NoError(t, store.CreateVersion(v2))

		all, err := store.FindByIntentID(intentID)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		drafts, err := store.FindByIntentIDAndStatus(intentID, intent.StatusDraft)
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, "v2", drafts[0].Label)

		active, err := store.FindActiveByIntentID(intentID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, "v1", active.Label)
	})

	t.Run("NoActiveVersion", func(t *testing.T) {
		otherID := uuid.New().String()
		active, err := store.FindActiveByIntentID(otherID)
		require.NoError(t, err)
		assert.Nil(t, active)
	})
}

// The lifecycle rules are exercised against the real badger-backed store
// here; the handler tests cover them over HTTP with in-memory boxes.
func TestLifecycleOverBadger(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	lifecycle := intent.NewLifecycle(store, VersionBoxAdapter{Store: store}, zap.NewNop())

	intentID := uuid.New().String()
	require.NoError(t, store.Create(&intent.Intent{
		ID:     intentID,
		Code:   "refund",
		Name:   "Refund Request",
		Status: intent.StatusActive,
	}))

	v1 := &intent.Version{
		ID:       uuid.New().String(),
		IntentID: intentID,
		Label:    "v1",
		Status:   intent.StatusDraft,
	}
	require.NoError(t, store.CreateVersion(v1))

	activated, err := lifecycle.ActivateVersion(v1.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.StatusActive, activated.Status)

	owner, err := store.Get(intentID)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, owner.CurrentVersionID)

	// Activating a second version deactivates the first.
	v2, err := lifecycle.CopyVersion(v1.ID, "v2", "")
	require.NoError(t, err)

	_, err = lifecycle.ActivateVersion(v2.ID)
	require.NoError(t, err)

	prev, err := store.GetVersion(v1.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.StatusDeprecated, prev.Status)

	active, err := store.FindActiveByIntentID(intentID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, v2.ID, active.ID)

	// Active versions cannot be deleted, deprecated ones can.
	err = lifecycle.DeleteVersion(v2.ID)
	assert.Error(t, err)

	require.NoError(t, lifecycle.DeleteVersion(v1.ID))
	_, err = store.GetVersion(v1.ID)
	assert.Error(t, err)
}
