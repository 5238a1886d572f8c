package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driving"
)

// Ensure memoryService implements MemoryService
var _ driving.MemoryService = (*memoryService)(nil)

const (
	// memoryLockTTL caps how long a crashed holder can block a tenant
	memoryLockTTL = 10 * time.Second

	// memoryLockWait is the longest a RecordTurn call waits for the
	// per-tenant lock before giving up
	memoryLockWait = 5 * time.Second

	// memoryLockRetryInterval is the poll interval while waiting
	memoryLockRetryInterval = 50 * time.Millisecond

	// memorySaveRetries bounds optimistic-concurrency retries
	memorySaveRetries = 3
)

// memoryService maintains per-tenant conversation memory.
//
// The buffer-append-then-maybe-compact sequence is a read-modify-write on
// a shared document, so updates for one tenant are serialized through a
// per-tenant lock, with a version check on save as the second line of
// defense.
type memoryService struct {
	store     driven.MemoryStore
	generator driven.Generator
	lock      driven.TenantLock
	logger    *slog.Logger
}

// NewMemoryService creates a new MemoryService.
func NewMemoryService(
	store driven.MemoryStore,
	generator driven.Generator,
	lock driven.TenantLock,
	logger *slog.Logger,
) driving.MemoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &memoryService{
		store:     store,
		generator: generator,
		lock:      lock,
		logger:    logger,
	}
}

// RecordTurn appends a query/response pair to the tenant's buffer. When
// the buffer reaches the compaction threshold the buffered turns are
// summarized in one generation call, the summary is appended to the
// summary history and the buffer is cleared.
func (s *memoryService) RecordTurn(ctx context.Context, tenantID, query, response string) error {
	if tenantID == "" {
		return domain.ErrTenantRequired
	}
	if query == "" {
		return domain.ErrInvalidInput
	}

	lockName := "memory:" + tenantID
	lockToken, err := s.acquireLock(ctx, lockName)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), lockName, lockToken); err != nil {
			s.logger.Warn("failed to release memory lock", "tenant", tenantID, "error", err)
		}
	}()

	var lastErr error
	for attempt := 0; attempt < memorySaveRetries; attempt++ {
		memory, err := s.store.Get(ctx, tenantID)
		if errors.Is(err, domain.ErrNotFound) {
			memory = domain.NewMemory(tenantID)
		} else if err != nil {
			return fmt.Errorf("load memory for %s: %w", tenantID, err)
		}

		memory.Turns = append(memory.Turns, domain.Turn{
			Query:     query,
			Response:  response,
			CreatedAt: time.Now(),
		})

		if len(memory.Turns) >= domain.CompactionThreshold {
			if err := s.compact(ctx, memory); err != nil {
				// The turn is not saved; the next RecordTurn will
				// retry compaction with the same buffer.
				return err
			}
		}

		memory.UpdatedAt = time.Now()
		err = s.store.Save(ctx, memory)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrMemoryConflict) {
			return fmt.Errorf("save memory for %s: %w", tenantID, err)
		}
		lastErr = err
		s.logger.Warn("memory save conflict, retrying", "tenant", tenantID, "attempt", attempt+1)
	}
	return fmt.Errorf("record turn for %s: %w", tenantID, lastErr)
}

// compact summarizes the buffered turns and clears the buffer. Every
// summary is stored; only the latest is ever surfaced by ReadMemory.
func (s *memoryService) compact(ctx context.Context, memory *domain.Memory) error {
	summaryText, err := s.generator.Complete(ctx, summaryPrompt(memory.Turns))
	if err != nil {
		return fmt.Errorf("summarize conversation for %s: %w", memory.TenantID, err)
	}

	turns := make([]domain.Turn, len(memory.Turns))
	copy(turns, memory.Turns)

	memory.Summaries = append(memory.Summaries, domain.Summary{
		Text:          summaryText,
		OriginalTurns: turns,
		CreatedAt:     time.Now(),
	})
	memory.Turns = nil

	s.logger.Info("conversation compacted",
		"tenant", memory.TenantID,
		"turns", len(turns),
		"summaries", len(memory.Summaries),
	)
	return nil
}

// ReadMemory returns the buffered turns plus the most recent summary.
func (s *memoryService) ReadMemory(ctx context.Context, tenantID string) (domain.MemoryWindow, error) {
	if tenantID == "" {
		return domain.MemoryWindow{}, domain.ErrTenantRequired
	}

	memory, err := s.store.Get(ctx, tenantID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.MemoryWindow{}, nil
	}
	if err != nil {
		return domain.MemoryWindow{}, fmt.Errorf("load memory for %s: %w", tenantID, err)
	}
	return memory.Window(), nil
}

// acquireLock polls the per-tenant lock until acquired, the wait budget
// runs out, or the context is cancelled. It returns the release token.
func (s *memoryService) acquireLock(ctx context.Context, name string) (string, error) {
	deadline := time.Now().Add(memoryLockWait)
	for {
		token, err := s.lock.Acquire(ctx, name, memoryLockTTL)
		if err != nil {
			return "", fmt.Errorf("acquire lock %s: %w", name, err)
		}
		if token != "" {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w: %s", domain.ErrLockNotAcquired, name)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(memoryLockRetryInterval):
		}
	}
}
