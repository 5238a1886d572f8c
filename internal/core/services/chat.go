package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driving"
)

// Ensure chatService implements ChatService
var _ driving.ChatService = (*chatService)(nil)

// chatService composes retrieval and memory into one generation request.
type chatService struct {
	retrieval driving.RetrievalService
	memory    driving.MemoryService
	generator driven.Generator
	logger    *slog.Logger
}

// NewChatService creates a new ChatService.
func NewChatService(
	retrieval driving.RetrievalService,
	memory driving.MemoryService,
	generator driven.Generator,
	logger *slog.Logger,
) driving.ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &chatService{
		retrieval: retrieval,
		memory:    memory,
		generator: generator,
		logger:    logger,
	}
}

// Answer retrieves context, reads memory, generates a response and
// records the turn. Acquisition-side problems stay best-effort; only a
// generation failure reaches the caller.
func (s *chatService) Answer(ctx context.Context, tenantID, query string) (string, error) {
	if tenantID == "" {
		return "", domain.ErrTenantRequired
	}
	if query == "" {
		return "", domain.ErrInvalidInput
	}

	start := time.Now()

	retrieved, err := s.retrieval.Retrieve(ctx, tenantID, query)
	if err != nil {
		return "", err
	}

	window, err := s.memory.ReadMemory(ctx, tenantID)
	if err != nil {
		s.logger.Warn("memory read failed, answering without it", "tenant", tenantID, "error", err)
		window = domain.MemoryWindow{}
	}

	response, err := s.generator.Complete(ctx, answerPrompt(retrieved, window, query))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	// A lost turn degrades continuity, not this answer.
	if err := s.memory.RecordTurn(ctx, tenantID, query, response); err != nil {
		s.logger.Warn("failed to record turn", "tenant", tenantID, "error", err)
	}

	s.logger.Info("query answered",
		"tenant", tenantID,
		"retrieved", len(retrieved.Contents()),
		"took", time.Since(start),
	)
	return response, nil
}
