// internal/snapshot/builder.go
package snapshot

import (
	"fmt"
	"sort"

	"intentcfg/internal/intent"

	"go.uber.org/zap"
)

// Builder materializes a draft snapshot's item list from the currently
// active intents and their active versions.
type Builder struct {
	intents  intent.Box
	versions intent.VersionBox
	logger   *zap.Logger
}

func NewBuilder(intents intent.Box, versions intent.VersionBox, logger *zap.Logger) *Builder {
	return &Builder{
		intents:  intents,
		versions: versions,
		logger:   logger,
	}
}

// Build reads every active intent, pairs it with its active version and
// writes the resulting items plus the content etag onto the snapshot.
// Intents without an active version are skipped with a warning, not
// treated as an error.
func (b *Builder) Build(s *Snapshot) error {
	activeIntents, err := b.intents.FindByStatus(intent.StatusActive)
	if err != nil {
		return fmt.Errorf("finding active intents: %w", err)
	}

	items := make([]Item, 0, len(activeIntents))
	for _, in := range activeIntents {
		version, err := b.versions.FindActiveByIntentID(in.ID)
		if err != nil {
			return fmt.Errorf("finding active version for intent %s: %w", in.ID, err)
		}
		if version == nil {
			b.logger.Warn("intent has no active version, skipping",
				zap.String("intent_id", in.ID),
				zap.String("intent_code", in.Code),
			)
			continue
		}

		items = append(items, Item{
			SnapshotID:   s.ID,
			IntentID:     in.ID,
			IntentCode:   in.Code,
			IntentName:   in.Name,
			VersionID:    version.ID,
			VersionLabel: version.Label,
			Labels:       in.Labels,
			Boundaries:   flattenBoundaries(in.Boundaries),
		})
	}

	s.Items = items
	s.Etag = Fingerprint(s)

	b.logger.Info("snapshot content built",
		zap.String("snapshot_id", s.ID),
		zap.Int("intent_count", len(items)),
		zap.String("etag", s.Etag),
	)
	return nil
}

// flattenBoundaries turns the opaque boundary map into an ordered list.
// Keys are sorted so rebuilds from identical data produce identical
// items; callers must not attach positional semantics beyond that.
func flattenBoundaries(boundaries map[string]string) []string {
	if len(boundaries) == 0 {
		return nil
	}

	keys := make([]string, 0, len(boundaries))
	for k := range boundaries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, boundaries[k])
	}
	return values
}
