package driven

import (
	"context"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// MemoryStore persists per-tenant conversation-memory documents.
//
// Save enforces optimistic concurrency: the document's Version must match
// the stored one (0 for a new document) or the store returns
// domain.ErrMemoryConflict. On success the stored version is incremented;
// implementations update the passed document's Version accordingly.
type MemoryStore interface {
	// Get loads a tenant's memory document.
	// Returns domain.ErrNotFound if the tenant has none yet.
	Get(ctx context.Context, tenantID string) (*domain.Memory, error)

	// Save writes the document, failing with domain.ErrMemoryConflict
	// on a concurrent modification
	Save(ctx context.Context, memory *domain.Memory) error

	// Ping checks if the store backend is healthy
	Ping(ctx context.Context) error
}
