// internal/snapshot/fingerprint.go
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// fingerprintPayload is the canonical content hashed into the etag.
// Timestamps and publish metadata are deliberately excluded so a rollback
// reactivates a snapshot with its original etag intact.
type fingerprintPayload struct {
	SnapshotID    string            `json:"snapshot_id"`
	Name          string            `json:"name"`
	Scope         string            `json:"scope"`
	ScopeSelector map[string]string `json:"scope_selector,omitempty"`
	Items         []Item            `json:"items"`
}

// Fingerprint computes the snapshot's etag as a weak validator. Items are
// sorted by intent code first so the token is reproducible regardless of
// build iteration order. On serialization failure it degrades to a
// timestamp-derived token instead of failing the publish.
func Fingerprint(s *Snapshot) string {
	items := make([]Item, len(s.Items))
	copy(items, s.Items)
	sort.Slice(items, func(i, j int) bool {
		return items[i].IntentCode < items[j].IntentCode
	})

	payload := fingerprintPayload{
		SnapshotID:    s.ID,
		Name:          s.Name,
		Scope:         s.Scope,
		ScopeSelector: s.ScopeSelector,
		Items:         items,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Availability over determinism: a publish must not fail because
		// the content could not be serialized for hashing.
		return fmt.Sprintf("W/\"%x\"", time.Now().UnixNano())
	}

	sum := sha256.Sum256(data)
	return fmt.Sprintf("W/%q", hex.EncodeToString(sum[:])[:16])
}
