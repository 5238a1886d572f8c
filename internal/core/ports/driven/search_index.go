package driven

import "context"

// SearchIndex is the external search-index service. Content is stored as
// independent text rows inside named partitions; the service owns
// relevance ranking. Consistency between a write and its visibility to
// queries is eventual.
type SearchIndex interface {
	// WriteRow persists one text row into a partition
	WriteRow(ctx context.Context, partition, content string) error

	// Query returns the top-K matching rows of a partition, best first
	Query(ctx context.Context, partition, query string, topK int) ([]string, error)

	// HealthCheck verifies the index service is available
	HealthCheck(ctx context.Context) error
}
