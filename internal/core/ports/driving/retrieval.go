package driving

import (
	"context"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// RetrievalService fans a query out over a tenant's partitions and
// aggregates whatever came back.
type RetrievalService interface {
	// Retrieve queries the common partition and the tenant's three
	// private partitions concurrently. A failed partition contributes
	// an empty result; the call itself only fails on invalid input.
	Retrieve(ctx context.Context, tenantID, query string) (*domain.RetrievalResult, error)
}
