package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driving"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

// retrievalService fans a query out over a tenant's four partitions.
type retrievalService struct {
	index  driven.SearchIndex
	topK   int
	logger *slog.Logger
}

// NewRetrievalService creates a new RetrievalService.
func NewRetrievalService(index driven.SearchIndex, logger *slog.Logger) driving.RetrievalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &retrievalService{
		index:  index,
		topK:   domain.DefaultTopK,
		logger: logger,
	}
}

// Retrieve queries the common partition and the tenant's three private
// partitions concurrently. Per-partition results are appended in
// completion order and simply concatenated; a failed partition yields an
// empty result and is logged, never failing the call.
func (s *retrievalService) Retrieve(ctx context.Context, tenantID, query string) (*domain.RetrievalResult, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	if query == "" {
		return nil, domain.ErrInvalidInput
	}

	start := time.Now()
	partitions := domain.PartitionsFor(tenantID)

	result := &domain.RetrievalResult{Query: query}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, partition := range partitions {
		wg.Add(1)
		go func(partition string) {
			defer wg.Done()

			contents, err := s.index.Query(ctx, partition, query, s.topK)
			if err != nil {
				s.logger.Warn("partition query failed",
					"partition", partition,
					"error", err,
				)
				contents = nil
			}

			mu.Lock()
			result.Results = append(result.Results, domain.PartitionResult{
				Partition: partition,
				Contents:  contents,
			})
			mu.Unlock()
		}(partition)
	}
	wg.Wait()

	result.Took = time.Since(start)
	return result, nil
}
