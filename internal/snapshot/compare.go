// internal/snapshot/compare.go
package snapshot

import (
	"fmt"
	"reflect"
	"sort"

	"intentcfg/internal/errors"
)

// CompareResult lists the intent-level differences between two snapshots,
// keyed by intent code.
type CompareResult struct {
	BaseID   string `json:"base_id"`
	TargetID string `json:"target_id"`

	Added    []Item       `json:"added"`
	Removed  []Item       `json:"removed"`
	Modified []ItemChange `json:"modified"`
}

type ItemChange struct {
	Before Item `json:"before"`
	After  Item `json:"after"`
}

// Compare diffs two snapshots by intent code.
func Compare(box Box, baseID, targetID string) (*CompareResult, error) {
	if baseID == "" || targetID == "" {
		return nil, errors.Validation("both snapshot ids are required")
	}
	if baseID == targetID {
		return nil, errors.Validation("cannot compare a snapshot with itself")
	}

	base, err := box.Get(baseID)
	if err != nil {
		return nil, errors.NotFound(errors.CodeSnapshotNotFound, fmt.Sprintf("base snapshot not found: %s", baseID))
	}
	target, err := box.Get(targetID)
	if err != nil {
		return nil, errors.NotFound(errors.CodeSnapshotNotFound, fmt.Sprintf("target snapshot not found: %s", targetID))
	}

	baseItems := itemsByCode(base.Items)
	targetItems := itemsByCode(target.Items)

	result := &CompareResult{BaseID: baseID, TargetID: targetID}

	for _, code := range sortedCodes(targetItems) {
		item := targetItems[code]
		before, ok := baseItems[code]
		if !ok {
			result.Added = append(result.Added, item)
			continue
		}
		if !sameContent(before, item) {
			result.Modified = append(result.Modified, ItemChange{Before: before, After: item})
		}
	}

	for _, code := range sortedCodes(baseItems) {
		if _, ok := targetItems[code]; !ok {
			result.Removed = append(result.Removed, baseItems[code])
		}
	}

	return result, nil
}

func itemsByCode(items []Item) map[string]Item {
	m := make(map[string]Item, len(items))
	for _, item := range items {
		m[item.IntentCode] = item
	}
	return m
}

func sortedCodes(m map[string]Item) []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// sameContent ignores the owning snapshot id, which always differs.
func sameContent(a, b Item) bool {
	a.SnapshotID = ""
	b.SnapshotID = ""
	return reflect.DeepEqual(a, b)
}
