package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// MockGenerator is a scripted implementation of Generator for testing
type MockGenerator struct {
	mu sync.Mutex

	// Response is returned verbatim when CompleteFunc is nil
	Response string

	// CompleteFunc overrides the canned response when set
	CompleteFunc func(prompt string) (string, error)

	// Fail makes every Complete call return domain.ErrGeneration
	Fail bool

	prompts []string
}

// NewMockGenerator creates a generator that echoes a canned response
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (m *MockGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.Fail {
		return "", fmt.Errorf("%w: mock failure", domain.ErrGeneration)
	}
	if m.CompleteFunc != nil {
		return m.CompleteFunc(prompt)
	}
	return m.Response, nil
}

func (m *MockGenerator) Model() string { return "mock-model" }

func (m *MockGenerator) Ping(ctx context.Context) error { return nil }

// Prompts returns every prompt Complete was called with
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns how many times Complete was invoked
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
