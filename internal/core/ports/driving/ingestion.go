package driving

import (
	"context"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// IngestionService drives a content source through the chunker and into
// the tenant's partition for that source kind.
type IngestionService interface {
	// Ingest acquires text for the handle, chunks it and writes the
	// chunks into {tenant}_{kind}. Partial success is reported through
	// the result's written/failed counts, not as an error.
	Ingest(ctx context.Context, tenantID string, kind domain.SourceKind, handle string) (*domain.IngestResult, error)

	// EnqueueIngest schedules an ingestion to run on a background
	// worker and returns the queued task.
	EnqueueIngest(ctx context.Context, tenantID string, kind domain.SourceKind, handle string) (*domain.Task, error)

	// Close reclaims the write pool's goroutines. The service must not
	// be used after Close.
	Close()
}
