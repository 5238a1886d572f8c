package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// MockMemoryStore is an in-memory MemoryStore with the same optimistic
// concurrency behavior as the real backends
type MockMemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte // tenant -> marshalled document

	// ConflictsToInject forces the next N saves to fail with
	// domain.ErrMemoryConflict before behaving normally again
	ConflictsToInject int
}

// NewMockMemoryStore creates a new MockMemoryStore
func NewMockMemoryStore() *MockMemoryStore {
	return &MockMemoryStore{docs: make(map[string][]byte)}
}

func (m *MockMemoryStore) Get(ctx context.Context, tenantID string) (*domain.Memory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.docs[tenantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var mem domain.Memory
	if err := json.Unmarshal(raw, &mem); err != nil {
		return nil, err
	}
	return &mem, nil
}

func (m *MockMemoryStore) Save(ctx context.Context, memory *domain.Memory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ConflictsToInject > 0 {
		m.ConflictsToInject--
		return domain.ErrMemoryConflict
	}

	var storedVersion int64
	if raw, ok := m.docs[memory.TenantID]; ok {
		var stored domain.Memory
		if err := json.Unmarshal(raw, &stored); err != nil {
			return err
		}
		storedVersion = stored.Version
	}
	if memory.Version != storedVersion {
		return domain.ErrMemoryConflict
	}

	memory.Version++
	raw, err := json.Marshal(memory)
	if err != nil {
		return err
	}
	m.docs[memory.TenantID] = raw
	return nil
}

func (m *MockMemoryStore) Ping(ctx context.Context) error { return nil }
