package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// MockSearchIndex is an in-memory implementation of SearchIndex for testing
type MockSearchIndex struct {
	mu   sync.RWMutex
	rows map[string][]string // partition -> rows in write order

	// FailWrites makes every WriteRow for the partition fail
	FailWrites map[string]bool

	// FailQueries makes every Query for the partition fail
	FailQueries map[string]bool

	// writeAttempts counts writes attempted, including failed ones
	writeAttempts int
}

// NewMockSearchIndex creates a new MockSearchIndex
func NewMockSearchIndex() *MockSearchIndex {
	return &MockSearchIndex{
		rows:        make(map[string][]string),
		FailWrites:  make(map[string]bool),
		FailQueries: make(map[string]bool),
	}
}

func (m *MockSearchIndex) WriteRow(ctx context.Context, partition, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeAttempts++
	if m.FailWrites[partition] {
		return domain.ErrIndexWrite
	}
	m.rows[partition] = append(m.rows[partition], content)
	return nil
}

func (m *MockSearchIndex) Query(ctx context.Context, partition, query string, topK int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailQueries[partition] {
		return nil, domain.ErrIndexQuery
	}

	queryLower := strings.ToLower(query)
	var matches []string
	for _, row := range m.rows[partition] {
		if strings.Contains(strings.ToLower(row), queryLower) {
			matches = append(matches, row)
		}
		if len(matches) >= topK {
			break
		}
	}
	return matches, nil
}

func (m *MockSearchIndex) HealthCheck(ctx context.Context) error {
	return nil
}

// Rows returns the rows written to a partition
func (m *MockSearchIndex) Rows(partition string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.rows[partition]))
	copy(out, m.rows[partition])
	return out
}

// WriteAttempts returns how many writes were attempted in total
func (m *MockSearchIndex) WriteAttempts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writeAttempts
}
