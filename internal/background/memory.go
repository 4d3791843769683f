package background

import (
	"context"
	"slices"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	rec  Record
	data []byte
}

// MemoryStore keeps backgrounds in process memory. Contents are lost on
// restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	order   []string
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, u Upload) (Record, error) {
	rec, err := newRecord(u, m.now())
	if err != nil {
		return Record{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[rec.ID] = memoryEntry{rec: rec, data: slices.Clone(u.Data)}
	m.order = append(m.order, rec.ID)
	return rec, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]Record, 0, len(m.order))
	for _, id := range m.order {
		records = append(records, m.entries[id].rec)
	}
	return records, nil
}

func (m *MemoryStore) URL(_ context.Context, id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.entries[id]; !ok {
		return "", false
	}
	return ContentURL(id), true
}

func (m *MemoryStore) Open(_ context.Context, id string) (Record, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return Record{}, nil, ErrNotFound
	}
	return e.rec, slices.Clone(e.data), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
	return nil
}
