package driving

import (
	"context"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// MemoryService maintains the per-tenant conversational memory: a bounded
// turn buffer that is compacted into a summary when full.
type MemoryService interface {
	// RecordTurn appends a query/response pair to the tenant's buffer,
	// triggering summarization when the buffer reaches the compaction
	// threshold
	RecordTurn(ctx context.Context, tenantID, query, response string) error

	// ReadMemory returns the buffered turns plus the most recent
	// summary, if any
	ReadMemory(ctx context.Context, tenantID string) (domain.MemoryWindow, error)
}
