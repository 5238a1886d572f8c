package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/custodia-labs/devrag-core/internal/chunker"
	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driving"
)

// Ensure ingestionService implements IngestionService
var _ driving.IngestionService = (*ingestionService)(nil)

// defaultWriteConcurrency bounds concurrent index writes per process.
const defaultWriteConcurrency = 8

// IngestionConfig holds dependencies for the ingestion coordinator.
type IngestionConfig struct {
	Index   driven.SearchIndex
	Crawler driven.Crawler

	// Sources maps non-web source kinds to their text adapters
	Sources map[domain.SourceKind]driven.TextSource

	// Queue backs EnqueueIngest; optional when only synchronous
	// ingestion is used
	Queue driven.TaskQueue

	// Chunker defaults to the standard 512/50 chunker when nil
	Chunker *chunker.Chunker

	// WriteConcurrency bounds the index-write worker pool
	WriteConcurrency int

	Logger *slog.Logger
}

// ingestionService drives a content source through the chunker and writes
// the chunks into the tenant's partition for that source kind.
type ingestionService struct {
	index   driven.SearchIndex
	crawler driven.Crawler
	sources map[domain.SourceKind]driven.TextSource
	queue   driven.TaskQueue
	chunker *chunker.Chunker
	pool    *ants.Pool
	logger  *slog.Logger
}

// NewIngestionService creates a new IngestionService with a shared
// bounded worker pool for index writes.
func NewIngestionService(cfg IngestionConfig) (driving.IngestionService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ch := cfg.Chunker
	if ch == nil {
		ch = chunker.Default()
	}
	concurrency := cfg.WriteConcurrency
	if concurrency <= 0 {
		concurrency = defaultWriteConcurrency
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("create write pool: %w", err)
	}

	return &ingestionService{
		index:   cfg.Index,
		crawler: cfg.Crawler,
		sources: cfg.Sources,
		queue:   cfg.Queue,
		chunker: ch,
		pool:    pool,
		logger:  logger,
	}, nil
}

// Ingest acquires the source text, chunks it and writes each chunk as an
// independent row. A single failed write is logged and counted; the rest
// of the batch proceeds. Re-ingesting the same source duplicates rows, so
// callers should avoid redundant submissions.
func (s *ingestionService) Ingest(ctx context.Context, tenantID string, kind domain.SourceKind, handle string) (*domain.IngestResult, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSourceKind, kind)
	}
	if handle == "" {
		return nil, domain.ErrInvalidInput
	}

	start := time.Now()

	text, source, err := s.acquireText(ctx, kind, handle)
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.Chunks(text, source)
	partition := domain.PartitionName(tenantID, kind)

	var written, failed atomic.Int64
	var wg sync.WaitGroup
	for _, chunk := range chunks {
		wg.Add(1)
		chunk := chunk
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.index.WriteRow(ctx, partition, chunk.Content); err != nil {
				failed.Add(1)
				s.logger.Warn("chunk write failed",
					"partition", partition,
					"source", chunk.Source,
					"error", err,
				)
				return
			}
			written.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			failed.Add(1)
			s.logger.Warn("chunk write not scheduled", "partition", partition, "error", submitErr)
		}
	}
	wg.Wait()

	result := &domain.IngestResult{
		TenantID:      tenantID,
		Kind:          kind,
		Partition:     partition,
		ChunksWritten: int(written.Load()),
		ChunksFailed:  int(failed.Load()),
		Took:          time.Since(start),
	}

	s.logger.Info("ingestion finished",
		"tenant", tenantID,
		"kind", kind,
		"partition", partition,
		"written", result.ChunksWritten,
		"failed", result.ChunksFailed,
		"took", result.Took,
	)
	return result, nil
}

// EnqueueIngest schedules an ingestion for a background worker.
func (s *ingestionService) EnqueueIngest(ctx context.Context, tenantID string, kind domain.SourceKind, handle string) (*domain.Task, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("%w: no task queue configured", domain.ErrInvalidInput)
	}

	task := domain.NewIngestTask(tenantID, kind, handle)
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue ingest task: %w", err)
	}

	s.logger.Info("ingestion queued", "task_id", task.ID, "tenant", tenantID, "kind", kind)
	return task, nil
}

// Close releases the shared write pool. Safe to call more than once.
func (s *ingestionService) Close() {
	s.pool.Release()
}

// acquireText resolves a source handle to raw text: a crawl session for
// web, the registered adapter otherwise.
func (s *ingestionService) acquireText(ctx context.Context, kind domain.SourceKind, handle string) (text, source string, err error) {
	if kind == domain.SourceKindWeb {
		result, err := s.crawler.Crawl(ctx, handle)
		if err != nil {
			return "", "", fmt.Errorf("crawl %s: %w", handle, err)
		}
		return result.Text(), handle, nil
	}

	src, ok := s.sources[kind]
	if !ok {
		return "", "", fmt.Errorf("%w: no adapter for %q", domain.ErrUnknownSourceKind, kind)
	}
	text, err = src.FetchText(ctx, handle)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s source: %w", kind, err)
	}
	return text, sourceLabel(kind, handle), nil
}

// sourceLabel keeps chunk source identifiers short: URLs pass through,
// raw pdf text is labelled by kind.
func sourceLabel(kind domain.SourceKind, handle string) string {
	if kind == domain.SourceKindPDF {
		return string(domain.SourceKindPDF)
	}
	return handle
}
