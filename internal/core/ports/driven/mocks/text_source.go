package mocks

import (
	"context"
	"sync"
)

// MockTextSource resolves every handle to a canned text
type MockTextSource struct {
	mu sync.Mutex

	// Text is returned for every FetchText call
	Text string

	// Err, when set, fails every FetchText call
	Err error

	handles []string
}

// NewMockTextSource creates a text source returning the given text
func NewMockTextSource(text string) *MockTextSource {
	return &MockTextSource{Text: text}
}

func (m *MockTextSource) FetchText(ctx context.Context, handle string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handles = append(m.handles, handle)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// Handles returns every handle FetchText was called with
func (m *MockTextSource) Handles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.handles))
	copy(out, m.handles)
	return out
}
