package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// MockCrawler returns a canned crawl result
type MockCrawler struct {
	mu sync.Mutex

	// Result is returned for every Crawl call
	Result *domain.CrawlResult

	// Err, when set, fails every Crawl call
	Err error

	seeds []string
}

// NewMockCrawler creates a crawler returning the given pages
func NewMockCrawler(pages ...domain.Page) *MockCrawler {
	return &MockCrawler{
		Result: &domain.CrawlResult{Pages: pages, Visited: len(pages)},
	}
}

func (m *MockCrawler) Crawl(ctx context.Context, seed string) (*domain.CrawlResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seeds = append(m.seeds, seed)
	if m.Err != nil {
		return nil, m.Err
	}
	result := *m.Result
	result.Seed = seed
	return &result, nil
}

// Seeds returns every seed Crawl was called with
func (m *MockCrawler) Seeds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.seeds))
	copy(out, m.seeds)
	return out
}
