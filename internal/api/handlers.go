// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"intentcfg/internal/cache"
	"intentcfg/internal/errors"
	"intentcfg/internal/intent"
	"intentcfg/internal/runtime"
	"intentcfg/internal/snapshot"
	syncsvc "intentcfg/internal/sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var e *errors.Error
	if stderrors.As(err, &e) {
		writeJSON(w, e.Status, e)
		return
	}
	writeJSON(w, errors.StatusOf(err), map[string]string{
		"code":    "INTERNAL",
		"message": err.Error(),
	})
}

// SnapshotHandler handles HTTP requests for snapshot lifecycle operations
type SnapshotHandler struct {
	box       snapshot.Box
	publisher *snapshot.Publisher
	sync      *syncsvc.Service
	logger    *zap.Logger
}

func NewSnapshotHandler(box snapshot.Box, publisher *snapshot.Publisher, sync *syncsvc.Service, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{box: box, publisher: publisher, sync: sync, logger: logger}
}

func (h *SnapshotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string            `json:"name"`
		Scope         string            `json:"scope"`
		ScopeSelector map[string]string `json:"scope_selector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	snap := &snapshot.Snapshot{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Scope:         req.Scope,
		ScopeSelector: req.ScopeSelector,
		Status:        intent.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.box.Create(snap); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	snap, err := h.box.Get(id)
	if err != nil {
		writeError(w, errors.NotFound(errors.CodeSnapshotNotFound, fmt.Sprintf("snapshot not found: %s", id)))
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.box.List()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshots)
}

func (h *SnapshotHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	var req struct {
		PublishedBy string `json:"published_by"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	snap, err := h.publisher.Publish(id, req.PublishedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	// Cache propagation is fire-and-forget so publish latency stays
	// decoupled from sync and listener execution.
	go h.sync.SyncAll(context.Background())

	writeJSON(w, http.StatusOK, snap)
}

func (h *SnapshotHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	var req struct {
		Reason   string `json:"reason"`
		Operator string `json:"operator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	snap, err := h.publisher.Rollback(id, req.Reason, req.Operator)
	if err != nil {
		writeError(w, err)
		return
	}

	go h.sync.SyncAll(context.Background())

	writeJSON(w, http.StatusOK, snap)
}

func (h *SnapshotHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BaseID   string `json:"base_id"`
		TargetID string `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := snapshot.Compare(h.box, req.BaseID, req.TargetID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// IntentHandler handles HTTP requests for intents and their versions.
// Full business CRUD lives elsewhere; this is the minimal surface the
// lifecycle needs.
type IntentHandler struct {
	box       intent.Box
	versions  intent.VersionBox
	lifecycle *intent.Lifecycle
}

func NewIntentHandler(box intent.Box, versions intent.VersionBox, lifecycle *intent.Lifecycle) *IntentHandler {
	return &IntentHandler{box: box, versions: versions, lifecycle: lifecycle}
}

func (h *IntentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var i intent.Intent
	if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := intent.ValidateIntent(&i); err != nil {
		writeError(w, err)
		return
	}

	i.ID = uuid.New().String()
	if i.Status == "" {
		i.Status = intent.StatusDraft
	}
	i.CreatedAt = time.Now()
	i.UpdatedAt = i.CreatedAt

	if err := h.box.Create(&i); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, i)
}

func (h *IntentHandler) List(w http.ResponseWriter, r *http.Request) {
	intents, err := h.box.List()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, intents)
}

func (h *IntentHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	intentID := r.PathValue("id")
	if intentID == "" {
		http.Error(w, "missing intent id", http.StatusBadRequest)
		return
	}

	var v intent.Version
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	v.ID = uuid.New().String()
	v.IntentID = intentID
	v.Status = intent.StatusDraft
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt

	if err := intent.ValidateVersion(&v); err != nil {
		writeError(w, err)
		return
	}

	if err := h.versions.Create(&v); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

func (h *IntentHandler) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	version, err := h.lifecycle.ActivateVersion(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (h *IntentHandler) OfflineVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	version, err := h.lifecycle.OfflineVersion(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (h *IntentHandler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.lifecycle.DeleteVersion(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IntentHandler) CopyVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Label string `json:"label"`
		Note  string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	version, err := h.lifecycle.CopyVersion(id, req.Label, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

// ConfigHandler serves the runtime read path used by classification.
type ConfigHandler struct {
	cache  cache.ConfigCache
	sync   *syncsvc.Service
	logger *zap.Logger
}

func NewConfigHandler(configCache cache.ConfigCache, sync *syncsvc.Service, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{cache: configCache, sync: sync, logger: logger}
}

func scopeFromQuery(r *http.Request) runtime.Scope {
	q := r.URL.Query()
	return runtime.Scope{
		Channel: q.Get("channel"),
		Tenant:  q.Get("tenant"),
		Region:  q.Get("region"),
		Env:     q.Get("env"),
	}
}

// Get serves the resolved config for a scope with conditional-fetch
// support: a matching If-None-Match against the shared tier's etag gets
// 304 with no body.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromQuery(r)
	ctx := r.Context()

	if clientEtag := r.Header.Get("If-None-Match"); clientEtag != "" {
		if h.cache.CheckEtag(ctx, scope, clientEtag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	cfg, ok := h.cache.Get(ctx, scope)
	if !ok {
		// Full miss: resolve from source through the sync service, which
		// also repopulates both tiers.
		if _, err := h.sync.SyncConfig(ctx, scope); err != nil {
			writeError(w, errors.Internal(errors.CodeConfigError, err.Error()))
			return
		}
		cfg, ok = h.cache.Get(ctx, scope)
		if !ok {
			writeError(w, errors.Internal(errors.CodeConfigError, "config unavailable after sync"))
			return
		}
	}

	w.Header().Set("ETag", cfg.Etag)
	writeJSON(w, http.StatusOK, cfg)
}

// SyncHandler exposes operator-triggered cache maintenance.
type SyncHandler struct {
	sync *syncsvc.Service
}

func NewSyncHandler(sync *syncsvc.Service) *SyncHandler {
	return &SyncHandler{sync: sync}
}

func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromQuery(r)

	outcome, err := h.sync.SyncConfig(r.Context(), scope)
	if err != nil {
		writeError(w, errors.Internal(errors.CodeSyncError, err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"scope":   scope.Key(),
		"outcome": string(outcome),
	})
}

func (h *SyncHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	result := h.sync.SyncAll(r.Context())
	writeJSON(w, http.StatusOK, result)
}
