// internal/api/handlers_test.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intentcfg/internal/cache"
	"intentcfg/internal/intent"
	"intentcfg/internal/runtime"
	"intentcfg/internal/snapshot"
	syncsvc "intentcfg/internal/sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	mux       *http.ServeMux
	intents   *MockIntentBox
	versions  *MockVersionBox
	snapshots *MockSnapshotBox
	cache     *cache.Memory
	sync      *syncsvc.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	intents := NewMockIntentBox()
	versions := NewMockVersionBox()
	snapshots := NewMockSnapshotBox()

	builder := snapshot.NewBuilder(intents, versions, logger)
	publisher := snapshot.NewPublisher(snapshots, builder, logger)
	resolver := runtime.NewResolver(snapshots, logger)
	mem := cache.NewMemory(30 * time.Minute)

	svc := syncsvc.NewService(resolver, mem, nil, logger)
	t.Cleanup(svc.Close)

	lifecycle := intent.NewLifecycle(intents, versions, logger)

	mux := NewMux(
		NewSnapshotHandler(snapshots, publisher, svc, logger),
		NewIntentHandler(intents, versions, lifecycle),
		NewConfigHandler(mem, svc, logger),
		NewSyncHandler(svc),
	)

	return &testEnv{
		mux:       mux,
		intents:   intents,
		versions:  versions,
		snapshots: snapshots,
		cache:     mem,
		sync:      svc,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

// seedIntent stores an active intent with one active version.
func (e *testEnv) seedIntent(t *testing.T, code, name, versionLabel string) *intent.Intent {
	t.Helper()

	now := time.Now()
	i := &intent.Intent{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		Status:    intent.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.intents.Create(i))

	v := &intent.Version{
		ID:        uuid.New().String(),
		IntentID:  i.ID,
		Label:     versionLabel,
		Status:    intent.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.versions.Create(v))
	i.CurrentVersionID = v.ID

	return i
}

func (e *testEnv) createSnapshot(t *testing.T, name string) snapshot.Snapshot {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/snapshots", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code)

	var snap snapshot.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	return snap
}

func (e *testEnv) publish(t *testing.T, id string) snapshot.Snapshot {
	t.Helper()

	w := e.do(t, http.MethodPost, fmt.Sprintf("/api/snapshots/%s/publish", id), map[string]string{"published_by": "tester"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap snapshot.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))

	// Publish kicks off a background cache resync; let it settle so later
	// requests see a stable cache.
	time.Sleep(50 * time.Millisecond)
	return snap
}

func TestSnapshotCreate(t *testing.T) {
	env := newTestEnv(t)

	snap := env.createSnapshot(t, "release-1")
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, intent.StatusDraft, snap.Status)
	assert.Empty(t, snap.Etag)
}

func TestSnapshotCreateRequiresName(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/snapshots", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSnapshotPublish(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntent(t, "refund", "Refund Request", "v1")
	env.seedIntent(t, "greeting", "Greeting", "v2")

	snap := env.createSnapshot(t, "release-1")
	published := env.publish(t, snap.ID)

	assert.Equal(t, intent.StatusActive, published.Status)
	assert.Equal(t, "tester", published.PublishedBy)
	assert.Len(t, published.Items, 2)
	assert.Regexp(t, `^W/"[0-9a-f]{16}"$`, published.Etag)
}

func TestSnapshotPublishAlreadyActive(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntent(t, "refund", "Refund Request", "v1")

	snap := env.createSnapshot(t, "release-1")
	env.publish(t, snap.ID)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/snapshots/%s/publish", snap.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "SNAPSHOT_ALREADY_ACTIVE")
}

func TestSnapshotPublishNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/snapshots/no-such-id/publish", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "SNAPSHOT_NOT_FOUND")
}

func TestSnapshotPublishDeactivatesPrevious(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntent(t, "refund", "Refund Request", "v1")

	first := env.createSnapshot(t, "release-1")
	env.publish(t, first.ID)

	second := env.createSnapshot(t, "release-2")
	env.publish(t, second.ID)

	prev, err := env.snapshots.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.StatusDeprecated, prev.Status)

	active, err := env.snapshots.GetCurrentActive()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
}

func TestSnapshotRollback(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntent(t, "refund", "Refund Request", "v1")

	first := env.createSnapshot(t, "release-1")
	publishedFirst := env.publish(t, first.ID)
	originalEtag := publishedFirst.Etag

	second := env.createSnapshot(t, "release-2")
	env.publish(t, second.ID)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/snapshots/%s/rollback", first.ID), map[string]string{
		"reason":   "regression in release-2",
		"operator": "oncall",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var restored snapshot.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&restored))

	assert.Equal(t, intent.StatusActive, restored.Status)
	assert.Equal(t, originalEtag, restored.Etag, "rollback must not rebuild content")
	assert.Equal(t, "regression in release-2", restored.ScopeSelector[snapshot.SelectorRollbackReason])
	assert.Equal(t, "oncall", restored.ScopeSelector[snapshot.SelectorRollbackBy])
	assert.NotEmpty(t, restored.ScopeSelector[snapshot.SelectorRollbackTime])

	demoted, err := env.snapshots.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, intent.StatusDeprecated, demoted.Status)
}

func TestSnapshotRollbackRequiresDeprecated(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntent(t, "refund", "Refund Request", "v1")

	draft := env.createSnapshot(t, "never-published")

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/snapshots/%s/rollback", draft.ID), map[string]string{
		"reason":   "noop",
		"operator": "oncall",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SNAPSHOT_STATUS")
}

func TestSnapshotCompare(t *testing.T) {
	env := newTestEnv(t)
	refund := env.seedIntent(t, "refund", "Refund Request", "v1")
	env.seedIntent(t, "greeting", "Greeting", "v1")

	first := env.createSnapshot(t, "release-1")
	env.publish(t, first.ID)

	// Change the catalog between snapshots: drop greeting, bump refund.
	require.NoError(t, env.intents.Delete(env.mustIntentByCode(t, "greeting").ID))
	refundVersion := &intent.Version{
		ID:       uuid.New().String(),
		IntentID: refund.ID,
		Label:    "v2",
		Status:   intent.StatusDraft,
	}
	require.NoError(t, env.versions.Create(refundVersion))
	active, err := env.versions.FindActiveByIntentID(refund.ID)
	require.NoError(t, err)
	active.Status = intent.StatusDeprecated
	require.NoError(t, env.versions.Update(active))
	refundVersion.Status = intent.StatusActive
	require.NoError(t, env.versions.Update(refundVersion))

	second := env.createSnapshot(t, "release-2")
	env.publish(t, second.ID)

	w := env.do(t, http.MethodPost, "/api/snapshots/compare", map[string]string{
		"base_id":   first.ID,
		"target_id": second.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result snapshot.CompareResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))

	require.Len(t, result.Removed, 1)
	assert.Equal(t, "greeting", result.Removed[0].IntentCode)
	require.Len(t, result.Modified, 1)
	assert.Equal(t, "v1", result.Modified[0].Before.VersionLabel)
	assert.Equal(t, "v2", result.Modified[0].After.VersionLabel)
	assert.Empty(t, result.Added)
}

func (e *testEnv) mustIntentByCode(t *testing.T, code string) *intent.Intent {
	t.Helper()
	i, err := e.intents.FindByCode(code)
	require.NoError(t, err)
	return i
}

func TestVersionLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/intents", map[string]any{
		"code": "refund",
		"name": "Refund Request",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created intent.Intent
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/intents/%s/versions", created.ID), map[string]string{"label": "v1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var v1 intent.Version
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v1))
	assert.Equal(t, intent.StatusDraft, v1.Status)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/versions/%s/activate", v1.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Deleting while active is refused.
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/versions/%s", v1.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CANNOT_DELETE_ACTIVE")

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/versions/%s/copy", v1.ID), map[string]string{"label": "v2"})
	require.Equal(t, http.StatusCreated, w.Code)
	var v2 intent.Version
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v2))
	assert.Equal(t, intent.StatusDraft, v2.Status)

	// Duplicate label is a conflict.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/versions/%s/copy", v1.ID), map[string]string{"label": "v2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "VERSION_ALREADY_EXISTS")

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/versions/%s/offline", v1.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/versions/%s", v1.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestConfigGetMissTriggersSync(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntent(t, "refund", "Refund Request", "v1")

	snap := env.createSnapshot(t, "release-1")
	published := env.publish(t, snap.ID)

	w := env.do(t, http.MethodGet, "/api/config?channel=web&tenant=acme", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, published.Etag, w.Header().Get("ETag"))

	var cfg runtime.Config
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cfg))
	assert.Equal(t, snap.ID, cfg.SnapshotID)
	assert.Contains(t, cfg.Intents, "refund")
	assert.Equal(t, 0.6, cfg.DefaultThreshold)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestConfigGetConditional(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntent(t, "refund", "Refund Request", "v1")

	snap := env.createSnapshot(t, "release-1")
	published := env.publish(t, snap.ID)

	// Warm the cache.
	w := env.do(t, http.MethodGet, "/api/config?channel=web", nil)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/config?channel=web", nil)
	req.Header.Set("If-None-Match", published.Etag)
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	// A stale client etag gets the full body.
	req = httptest.NewRequest(http.MethodGet, "/api/config?channel=web", nil)
	req.Header.Set("If-None-Match", `W/"0000000000000000"`)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConfigGetNoActiveSnapshot(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cfg runtime.Config
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cfg))
	assert.Equal(t, runtime.EmptyEtag, cfg.Etag)
	assert.Empty(t, cfg.Intents)
}

func TestSyncEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedIntent(t, "refund", "Refund Request", "v1")

	snap := env.createSnapshot(t, "release-1")
	env.publish(t, snap.ID)

	w := env.do(t, http.MethodPost, "/api/sync?channel=web", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var single map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&single))
	assert.Equal(t, "updated", single["outcome"])

	// Re-syncing the same scope short-circuits on the etag.
	w = env.do(t, http.MethodPost, "/api/sync?channel=web", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&single))
	assert.Equal(t, "unchanged", single["outcome"])

	w = env.do(t, http.MethodPost, "/api/sync/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var batch syncsvc.BatchResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&batch))
	assert.Equal(t, batch.Total, batch.Succeeded)
	assert.Zero(t, batch.Failed)
}
