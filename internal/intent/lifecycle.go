// internal/intent/lifecycle.go
package intent

import (
	"fmt"
	"time"

	"intentcfg/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lifecycle drives version status transitions. Activation is exclusive:
// activating one version deactivates every other active version of the
// same intent.
type Lifecycle struct {
	intents  Box
	versions VersionBox
	logger   *zap.Logger
}

func NewLifecycle(intents Box, versions VersionBox, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		intents:  intents,
		versions: versions,
		logger:   logger,
	}
}

// ActivateVersion publishes a draft version: every other active version of
// the owning intent is deprecated first, then the target goes active and
// the intent's current-version pointer moves.
func (l *Lifecycle) ActivateVersion(versionID string) (*Version, error) {
	if versionID == "" {
		return nil, errors.Validation("version id is required")
	}

	version, err := l.versions.Get(versionID)
	if err != nil {
		return nil, errors.NotFound(errors.CodeVersionNotFound, fmt.Sprintf("version not found: %s", versionID))
	}

	if version.Status == StatusActive {
		return nil, errors.Conflict(errors.CodeVersionAlreadyActive, "version is already active")
	}
	if version.Status != StatusDraft {
		return nil, errors.Conflict(errors.CodeInvalidVersionStatus, "only draft versions can be activated")
	}

	owner, err := l.intents.Get(version.IntentID)
	if err != nil {
		return nil, errors.NotFound(errors.CodeIntentNotFound, fmt.Sprintf("intent not found: %s", version.IntentID))
	}

	// Enumerate active versions rather than assuming a singleton; a bad
	// historical write must not survive activation.
	active, err := l.versions.FindByIntentIDAndStatus(version.IntentID, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("finding active versions: %w", err)
	}

	now := time.Now()
	writes := make([]*Version, 0, len(active)+1)
	for _, prev := range active {
		l.logger.Info("deactivating previous version",
			zap.String("version_id", prev.ID),
			zap.String("intent_id", prev.IntentID),
		)
		prev.Status = StatusDeprecated
		prev.UpdatedAt = now
		writes = append(writes, prev)
	}

	version.Status = StatusActive
	version.UpdatedAt = now
	writes = append(writes, version)

	// One transaction: no reader sees the intent with zero or two active
	// versions.
	if err := l.versions.UpdateAll(writes...); err != nil {
		return nil, fmt.Errorf("activating version: %w", err)
	}

	owner.CurrentVersionID = version.ID
	owner.UpdatedAt = time.Now()
	if err := l.intents.Update(owner); err != nil {
		return nil, fmt.Errorf("updating intent version pointer: %w", err)
	}

	l.logger.Info("version activated",
		zap.String("version_id", version.ID),
		zap.String("intent_id", version.IntentID),
		zap.String("label", version.Label),
	)
	return version, nil
}

// OfflineVersion deprecates an active version without activating another.
func (l *Lifecycle) OfflineVersion(versionID string) (*Version, error) {
	if versionID == "" {
		return nil, errors.Validation("version id is required")
	}

	version, err := l.versions.Get(versionID)
	if err != nil {
		return nil, errors.NotFound(errors.CodeVersionNotFound, fmt.Sprintf("version not found: %s", versionID))
	}

	if version.Status != StatusActive {
		return nil, errors.Conflict(errors.CodeVersionNotActive, "only active versions can be taken offline")
	}

	version.Status = StatusDeprecated
	version.UpdatedAt = time.Now()
	if err := l.versions.Update(version); err != nil {
		return nil, fmt.Errorf("taking version offline: %w", err)
	}

	l.logger.Info("version taken offline",
		zap.String("version_id", version.ID),
		zap.String("intent_id", version.IntentID),
	)
	return version, nil
}

// DeleteVersion removes a version permanently. Active versions are
// protected; take them offline first.
func (l *Lifecycle) DeleteVersion(versionID string) error {
	if versionID == "" {
		return errors.Validation("version id is required")
	}

	version, err := l.versions.Get(versionID)
	if err != nil {
		return errors.NotFound(errors.CodeVersionNotFound, fmt.Sprintf("version not found: %s", versionID))
	}

	if version.Status == StatusActive {
		return errors.Conflict(errors.CodeCannotDeleteActive, "cannot delete an active version")
	}

	if err := l.versions.Delete(versionID); err != nil {
		return fmt.Errorf("deleting version: %w", err)
	}

	l.logger.Info("version deleted",
		zap.String("version_id", versionID),
		zap.String("intent_id", version.IntentID),
	)
	return nil
}

// CopyVersion clones an existing version as a new draft.
func (l *Lifecycle) CopyVersion(sourceID, newLabel, note string) (*Version, error) {
	if sourceID == "" {
		return nil, errors.Validation("source version id is required")
	}
	if newLabel == "" {
		return nil, errors.Validation("new version label is required")
	}

	source, err := l.versions.Get(sourceID)
	if err != nil {
		return nil, errors.NotFound(errors.CodeVersionNotFound, fmt.Sprintf("version not found: %s", sourceID))
	}

	existing, err := l.versions.FindByIntentID(source.IntentID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	for _, v := range existing {
		if v.Label == newLabel {
			return nil, errors.Conflict(errors.CodeVersionAlreadyExists, fmt.Sprintf("version label already exists: %s", newLabel))
		}
	}

	if note == "" {
		note = fmt.Sprintf("copied from %s", source.Label)
	}

	now := time.Now()
	copied := &Version{
		ID:         uuid.New().String(),
		IntentID:   source.IntentID,
		Label:      newLabel,
		ChangeNote: note,
		Status:     StatusDraft,
		CreatedBy:  source.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := l.versions.Create(copied); err != nil {
		return nil, fmt.Errorf("creating copied version: %w", err)
	}

	l.logger.Info("version copied",
		zap.String("source_id", sourceID),
		zap.String("new_id", copied.ID),
		zap.String("label", newLabel),
	)
	return copied, nil
}
