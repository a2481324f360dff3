package snapshot

import (
	"testing"
	"time"

	"intentcfg/internal/intent"

	"github.com/stretchr/testify/assert"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		ID:    "snap-1",
		Name:  "release-1",
		Scope: "global",
		Items: []Item{
			{SnapshotID: "snap-1", IntentCode: "refund", IntentName: "Refund Request", VersionLabel: "v1"},
			{SnapshotID: "snap-1", IntentCode: "greeting", IntentName: "Greeting", VersionLabel: "v2"},
		},
	}
}

func TestFingerprintFormat(t *testing.T) {
	etag := Fingerprint(sampleSnapshot())
	assert.Regexp(t, `^W/"[0-9a-f]{16}"$`, etag)
}

func TestFingerprintDeterministic(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()

	// Item order must not matter.
	b.Items[0], b.Items[1] = b.Items[1], b.Items[0]

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintIgnoresTimestampsAndPublishMetadata(t *testing.T) {
	a := sampleSnapshot()
	etag := Fingerprint(a)

	a.Status = intent.StatusActive
	a.PublishedBy = "operator"
	a.PublishedAt = time.Now()
	a.CreatedAt = time.Now().Add(-time.Hour)
	a.UpdatedAt = time.Now()

	assert.Equal(t, etag, Fingerprint(a))
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := sampleSnapshot()
	etag := Fingerprint(a)

	b := sampleSnapshot()
	b.Items[0].VersionLabel = "v3"
	assert.NotEqual(t, etag, Fingerprint(b))

	c := sampleSnapshot()
	c.Items = c.Items[:1]
	assert.NotEqual(t, etag, Fingerprint(c))

	d := sampleSnapshot()
	d.ScopeSelector = map[string]string{"region": "eu"}
	assert.NotEqual(t, etag, Fingerprint(d))
}

func TestFlattenBoundaries(t *testing.T) {
	assert.Nil(t, flattenBoundaries(nil))
	assert.Nil(t, flattenBoundaries(map[string]string{}))

	values := flattenBoundaries(map[string]string{
		"exclude": "sarcasm",
		"allow":   "formal",
		"limit":   "short",
	})
	// Key-sorted value order.
	assert.Equal(t, []string{"formal", "sarcasm", "short"}, values)
}
