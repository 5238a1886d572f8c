package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockTenantLock is an in-process TenantLock for testing
type MockTenantLock struct {
	mu   sync.Mutex
	held map[string]string // name -> token
	seq  int

	acquires int
	releases int
}

// NewMockTenantLock creates a new MockTenantLock
func NewMockTenantLock() *MockTenantLock {
	return &MockTenantLock{held: make(map[string]string)}
}

func (m *MockTenantLock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.acquires++
	if _, ok := m.held[name]; ok {
		return "", nil
	}
	m.seq++
	token := fmt.Sprintf("token-%d", m.seq)
	m.held[name] = token
	return token, nil
}

func (m *MockTenantLock) Release(ctx context.Context, name, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releases++
	if m.held[name] == token {
		delete(m.held, name)
	}
	return nil
}

func (m *MockTenantLock) Ping(ctx context.Context) error { return nil }

// Held reports whether a lock is currently held
func (m *MockTenantLock) Held(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.held[name]
	return ok
}

// Acquires returns the number of Acquire attempts
func (m *MockTenantLock) Acquires() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquires
}

// Releases returns the number of Release calls
func (m *MockTenantLock) Releases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releases
}
