// internal/snapshot/publisher.go
package snapshot

import (
	"fmt"
	"time"

	"intentcfg/internal/errors"
	"intentcfg/internal/intent"

	"go.uber.org/zap"
)

// Publisher is the snapshot state machine: draft -> active via Publish,
// deprecated -> active via Rollback. The deactivate/activate pair is
// applied through Box.Swap so no reader observes a half-switched state.
type Publisher struct {
	snapshots Box
	builder   *Builder
	logger    *zap.Logger
}

func NewPublisher(snapshots Box, builder *Builder, logger *zap.Logger) *Publisher {
	return &Publisher{
		snapshots: snapshots,
		builder:   builder,
		logger:    logger,
	}
}

// Publish materializes a draft snapshot's content and makes it the single
// active snapshot, deprecating whichever snapshot was active before.
func (p *Publisher) Publish(snapshotID, publishedBy string) (*Snapshot, error) {
	if snapshotID == "" {
		return nil, errors.Validation("snapshot id is required")
	}

	target, err := p.snapshots.Get(snapshotID)
	if err != nil {
		return nil, errors.NotFound(errors.CodeSnapshotNotFound, fmt.Sprintf("snapshot not found: %s", snapshotID))
	}

	if target.Status == intent.StatusActive {
		return nil, errors.Conflict(errors.CodeSnapshotAlreadyActive, "snapshot is already active")
	}
	if target.Status != intent.StatusDraft {
		return nil, errors.Conflict(errors.CodeInvalidSnapshotStatus, "only draft snapshots can be published")
	}

	if err := p.builder.Build(target); err != nil {
		return nil, fmt.Errorf("building snapshot content: %w", err)
	}

	current, err := p.snapshots.GetCurrentActive()
	if err != nil {
		return nil, fmt.Errorf("finding current active snapshot: %w", err)
	}

	now := time.Now()
	if current != nil {
		p.logger.Info("deactivating current snapshot", zap.String("snapshot_id", current.ID))
		current.Status = intent.StatusDeprecated
		current.UpdatedAt = now
	}

	target.Status = intent.StatusActive
	target.PublishedBy = publishedBy
	target.PublishedAt = now
	target.UpdatedAt = now

	if err := p.snapshots.Swap(current, intent.StatusActive, target, intent.StatusDraft); err != nil {
		return nil, fmt.Errorf("activating snapshot: %w", err)
	}

	p.logger.Info("snapshot published",
		zap.String("snapshot_id", target.ID),
		zap.String("etag", target.Etag),
		zap.String("published_by", publishedBy),
	)
	return target, nil
}

// Rollback reactivates a previously deprecated snapshot. Content is
// reused exactly as built; only the scope selector gains audit fields.
func (p *Publisher) Rollback(snapshotID, reason, operator string) (*Snapshot, error) {
	if snapshotID == "" {
		return nil, errors.Validation("snapshot id is required")
	}

	target, err := p.snapshots.Get(snapshotID)
	if err != nil {
		return nil, errors.NotFound(errors.CodeSnapshotNotFound, fmt.Sprintf("snapshot not found: %s", snapshotID))
	}

	if target.Status == intent.StatusActive {
		return nil, errors.Conflict(errors.CodeSnapshotAlreadyActive, "snapshot is already active")
	}
	if target.Status != intent.StatusDeprecated {
		return nil, errors.Conflict(errors.CodeInvalidSnapshotStatus, "only deprecated snapshots can be rolled back to")
	}

	current, err := p.snapshots.GetCurrentActive()
	if err != nil {
		return nil, fmt.Errorf("finding current active snapshot: %w", err)
	}

	now := time.Now()
	if current != nil {
		p.logger.Info("deactivating current snapshot", zap.String("snapshot_id", current.ID))
		current.Status = intent.StatusDeprecated
		current.UpdatedAt = now
	}

	target.Status = intent.StatusActive
	target.PublishedBy = operator
	target.PublishedAt = now
	target.UpdatedAt = now

	if target.ScopeSelector == nil {
		target.ScopeSelector = make(map[string]string)
	}
	target.ScopeSelector[SelectorRollbackReason] = reason
	target.ScopeSelector[SelectorRollbackTime] = now.Format(time.RFC3339)
	target.ScopeSelector[SelectorRollbackBy] = operator

	if err := p.snapshots.Swap(current, intent.StatusActive, target, intent.StatusDeprecated); err != nil {
		return nil, fmt.Errorf("activating snapshot: %w", err)
	}

	p.logger.Info("snapshot rolled back",
		zap.String("snapshot_id", target.ID),
		zap.String("etag", target.Etag),
		zap.String("reason", reason),
	)
	return target, nil
}
