package driven

import (
	"context"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// Crawler acquires raw per-page text from a web graph starting at a seed
// URL. Sessions are bounded in depth, concurrency and page count by the
// implementation's configuration.
type Crawler interface {
	Crawl(ctx context.Context, seed string) (*domain.CrawlResult, error)
}
