// internal/api/mocks.go
package api

import (
	"fmt"
	"sync"

	"intentcfg/internal/intent"
	"intentcfg/internal/snapshot"
)

// In-memory boxes used by handler and service tests.

type MockIntentBox struct {
	mu      sync.Mutex
	intents map[string]*intent.Intent
}

func NewMockIntentBox() *MockIntentBox {
	return &MockIntentBox{intents: make(map[string]*intent.Intent)}
}

func (m *MockIntentBox) Create(i *intent.Intent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.intents[i.ID]; ok {
		return fmt.Errorf("intent already exists: %s", i.ID)
	}
	m.intents[i.ID] = i
	return nil
}

func (m *MockIntentBox) Get(id string) (*intent.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.intents[id]; ok {
		return i, nil
	}
	return nil, fmt.Errorf("intent not found: %s", id)
}

func (m *MockIntentBox) Update(i *intent.Intent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.intents[i.ID]; !ok {
		return fmt.Errorf("intent not found: %s", i.ID)
	}
	m.intents[i.ID] = i
	return nil
}

func (m *MockIntentBox) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.intents[id]; !ok {
		return fmt.Errorf("intent not found: %s", id)
	}
	delete(m.intents, id)
	return nil
}

func (m *MockIntentBox) List() ([]*intent.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*intent.Intent
	for _, i := range m.intents {
		list = append(list, i)
	}
	return list, nil
}

func (m *MockIntentBox) FindByStatus(status intent.Status) ([]*intent.Intent, error) {
	all, _ := m.List()
	var result []*intent.Intent
	for _, i := range all {
		if i.Status == status && !i.Deleted {
			result = append(result, i)
		}
	}
	return result, nil
}

func (m *MockIntentBox) FindByCode(code string) (*intent.Intent, error) {
	all, _ := m.List()
	for _, i := range all {
		if i.Code == code {
			return i, nil
		}
	}
	return nil, fmt.Errorf("intent not found by code: %s", code)
}

type MockVersionBox struct {
	mu       sync.Mutex
	versions map[string]*intent.Version
}

func NewMockVersionBox() *MockVersionBox {
	return &MockVersionBox{versions: make(map[string]*intent.Version)}
}

func (m *MockVersionBox) Create(v *intent.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.versions[v.ID]; ok {
		return fmt.Errorf("version already exists: %s", v.ID)
	}
	m.versions[v.ID] = v
	return nil
}

func (m *MockVersionBox) Get(id string) (*intent.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.versions[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("version not found: %s", id)
}

func (m *MockVersionBox) Update(v *intent.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.versions[v.ID]; !ok {
		return fmt.Errorf("version not found: %s", v.ID)
	}
	m.versions[v.ID] = v
	return nil
}

func (m *MockVersionBox) UpdateAll(vs ...*intent.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vs {
		if _, ok := m.versions[v.ID]; !ok {
			return fmt.Errorf("version not found: %s", v.ID)
		}
	}
	for _, v := range vs {
		m.versions[v.ID] = v
	}
	return nil
}

func (m *MockVersionBox) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.versions[id]; !ok {
		return fmt.Errorf("version not found: %s", id)
	}
	delete(m.versions, id)
	return nil
}

func (m *MockVersionBox) FindByIntentID(intentID string) ([]*intent.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*intent.Version
	for _, v := range m.versions {
		if v.IntentID == intentID {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *MockVersionBox) FindByIntentIDAndStatus(intentID string, status intent.Status) ([]*intent.Version, error) {
	versions, _ := m.FindByIntentID(intentID)
	var result []*intent.Version
	for _, v := range versions {
		if v.Status == status {
			result = append(result, v)
		}
	}
	return result, nil
}

func (m *MockVersionBox) FindActiveByIntentID(intentID string) (*intent.Version, error) {
	versions, _ := m.FindByIntentIDAndStatus(intentID, intent.StatusActive)
	if len(versions) == 0 {
		return nil, nil
	}
	return versions[0], nil
}

type MockSnapshotBox struct {
	mu        sync.Mutex
	snapshots map[string]*snapshot.Snapshot
}

func NewMockSnapshotBox() *MockSnapshotBox {
	return &MockSnapshotBox{snapshots: make(map[string]*snapshot.Snapshot)}
}

func (m *MockSnapshotBox) Create(s *snapshot.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[s.ID]; ok {
		return fmt.Errorf("snapshot already exists: %s", s.ID)
	}
	if s.Status == "" {
		s.Status = intent.StatusDraft
	}
	m.snapshots[s.ID] = s
	return nil
}

func (m *MockSnapshotBox) Get(id string) (*snapshot.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.snapshots[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, fmt.Errorf("snapshot not found: %s", id)
}

func (m *MockSnapshotBox) Update(s *snapshot.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[s.ID]; !ok {
		return fmt.Errorf("snapshot not found: %s", s.ID)
	}
	m.snapshots[s.ID] = s
	return nil
}

func (m *MockSnapshotBox) List() ([]*snapshot.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*snapshot.Snapshot
	for _, s := range m.snapshots {
		list = append(list, s)
	}
	return list, nil
}

func (m *MockSnapshotBox) GetCurrentActive() (*snapshot.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snapshots {
		if s.Status == intent.StatusActive {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *MockSnapshotBox) Swap(old *snapshot.Snapshot, oldExpect intent.Status, next *snapshot.Snapshot, nextExpect intent.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old != nil {
		stored, ok := m.snapshots[old.ID]
		if !ok {
			return fmt.Errorf("snapshot not found: %s", old.ID)
		}
		if stored.Status != oldExpect {
			return fmt.Errorf("snapshot status changed concurrently: %s", old.ID)
		}
	}
	stored, ok := m.snapshots[next.ID]
	if !ok {
		return fmt.Errorf("snapshot not found: %s", next.ID)
	}
	if stored.Status != nextExpect {
		return fmt.Errorf("snapshot status changed concurrently: %s", next.ID)
	}

	if old != nil {
		oldClone := *old
		m.snapshots[old.ID] = &oldClone
	}
	nextClone := *next
	m.snapshots[next.ID] = &nextClone
	return nil
}
