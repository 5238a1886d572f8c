package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven/mocks"
)

func newMemoryFixture() (*mocks.MockMemoryStore, *mocks.MockGenerator, *mocks.MockTenantLock, *memoryService) {
	store := mocks.NewMockMemoryStore()
	gen := mocks.NewMockGenerator("a concise summary")
	lock := mocks.NewMockTenantLock()
	svc := NewMemoryService(store, gen, lock, nil).(*memoryService)
	return store, gen, lock, svc
}

func TestRecordTurn_BuffersBelowThreshold(t *testing.T) {
	store, gen, _, svc := newMemoryFixture()
	ctx := context.Background()

	for i := 0; i < domain.CompactionThreshold-1; i++ {
		q := fmt.Sprintf("question %d", i)
		if err := svc.RecordTurn(ctx, "acme", q, "answer"); err != nil {
			t.Fatalf("RecordTurn %d: %v", i, err)
		}
	}

	mem, err := store.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(mem.Turns) != domain.CompactionThreshold-1 {
		t.Errorf("expected %d buffered turns, got %d", domain.CompactionThreshold-1, len(mem.Turns))
	}
	if len(mem.Summaries) != 0 {
		t.Errorf("expected no summaries yet, got %d", len(mem.Summaries))
	}
	if gen.CallCount() != 0 {
		t.Errorf("generator should not run below the threshold, got %d calls", gen.CallCount())
	}
}

func TestRecordTurn_CompactsAtThreshold(t *testing.T) {
	store, gen, _, svc := newMemoryFixture()
	ctx := context.Background()

	for i := 0; i < domain.CompactionThreshold; i++ {
		q := fmt.Sprintf("question %d", i)
		if err := svc.RecordTurn(ctx, "acme", q, fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("RecordTurn %d: %v", i, err)
		}
	}

	mem, err := store.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(mem.Turns) != 0 {
		t.Errorf("buffer should be empty after compaction, got %d turns", len(mem.Turns))
	}
	if len(mem.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(mem.Summaries))
	}

	summary := mem.Summaries[0]
	if summary.Text != "a concise summary" {
		t.Errorf("unexpected summary text %q", summary.Text)
	}
	if len(summary.OriginalTurns) != domain.CompactionThreshold {
		t.Errorf("summary should retain all %d source turns, got %d",
			domain.CompactionThreshold, len(summary.OriginalTurns))
	}

	if gen.CallCount() != 1 {
		t.Fatalf("expected exactly 1 summarization call, got %d", gen.CallCount())
	}
	prompt := gen.Prompts()[0]
	if !strings.Contains(prompt, "summarize the following conversations") {
		t.Errorf("summary prompt missing instruction: %q", prompt)
	}
	if !strings.Contains(prompt, "question 0") || !strings.Contains(prompt, "answer 4") {
		t.Errorf("summary prompt missing turns: %q", prompt)
	}
}

func TestRecordTurn_CompactionFailureLeavesBufferIntact(t *testing.T) {
	store, gen, _, svc := newMemoryFixture()
	ctx := context.Background()

	for i := 0; i < domain.CompactionThreshold-1; i++ {
		if err := svc.RecordTurn(ctx, "acme", fmt.Sprintf("q%d", i), "a"); err != nil {
			t.Fatalf("RecordTurn %d: %v", i, err)
		}
	}

	gen.Fail = true
	err := svc.RecordTurn(ctx, "acme", "final question", "final answer")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}

	// The failed turn is not persisted; the next turn retries compaction.
	mem, getErr := store.Get(ctx, "acme")
	if getErr != nil {
		t.Fatalf("Get: %v", getErr)
	}
	if len(mem.Turns) != domain.CompactionThreshold-1 {
		t.Errorf("buffer changed by failed compaction: %d turns", len(mem.Turns))
	}
	if len(mem.Summaries) != 0 {
		t.Errorf("failed compaction stored a summary")
	}

	gen.Fail = false
	if err := svc.RecordTurn(ctx, "acme", "final question", "final answer"); err != nil {
		t.Fatalf("retry after generator recovery: %v", err)
	}
	mem, _ = store.Get(ctx, "acme")
	if len(mem.Summaries) != 1 || len(mem.Turns) != 0 {
		t.Errorf("retry did not compact: %d summaries, %d turns", len(mem.Summaries), len(mem.Turns))
	}
}

func TestRecordTurn_RetriesOnSaveConflict(t *testing.T) {
	store, _, _, svc := newMemoryFixture()
	ctx := context.Background()

	store.ConflictsToInject = 2
	if err := svc.RecordTurn(ctx, "acme", "q", "a"); err != nil {
		t.Fatalf("RecordTurn should survive transient conflicts: %v", err)
	}

	mem, err := store.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(mem.Turns) != 1 {
		t.Errorf("expected 1 turn after conflict retries, got %d", len(mem.Turns))
	}
}

func TestRecordTurn_GivesUpAfterRepeatedConflicts(t *testing.T) {
	store, _, _, svc := newMemoryFixture()
	ctx := context.Background()

	store.ConflictsToInject = memorySaveRetries
	err := svc.RecordTurn(ctx, "acme", "q", "a")
	if !errors.Is(err, domain.ErrMemoryConflict) {
		t.Fatalf("expected ErrMemoryConflict after exhausted retries, got %v", err)
	}
}

func TestRecordTurn_ReleasesLock(t *testing.T) {
	_, _, lock, svc := newMemoryFixture()
	ctx := context.Background()

	if err := svc.RecordTurn(ctx, "acme", "q", "a"); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	if lock.Held("memory:acme") {
		t.Error("lock still held after RecordTurn returned")
	}
	if lock.Releases() != 1 {
		t.Errorf("expected 1 release, got %d", lock.Releases())
	}
}

func TestRecordTurn_FailsWhenLockHeldElsewhere(t *testing.T) {
	_, _, lock, svc := newMemoryFixture()
	ctx, cancel := context.WithTimeout(context.Background(), memoryLockRetryInterval*4)
	defer cancel()

	if token, _ := lock.Acquire(context.Background(), "memory:acme", memoryLockTTL); token == "" {
		t.Fatal("fixture could not pre-acquire lock")
	}

	err := svc.RecordTurn(ctx, "acme", "q", "a")
	if err == nil {
		t.Fatal("expected RecordTurn to fail while lock is held elsewhere")
	}
}

func TestReadMemory_EmptyForUnknownTenant(t *testing.T) {
	_, _, _, svc := newMemoryFixture()

	window, err := svc.ReadMemory(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if !window.Empty() {
		t.Errorf("expected empty window for unknown tenant, got %+v", window)
	}
}

func TestReadMemory_SurfacesOnlyLatestSummary(t *testing.T) {
	store, gen, _, svc := newMemoryFixture()
	ctx := context.Background()

	// Two full compaction cycles plus two trailing turns.
	round := 0
	gen.CompleteFunc = func(prompt string) (string, error) {
		round++
		return fmt.Sprintf("summary %d", round), nil
	}
	for i := 0; i < domain.CompactionThreshold*2+2; i++ {
		if err := svc.RecordTurn(ctx, "acme", fmt.Sprintf("q%d", i), "a"); err != nil {
			t.Fatalf("RecordTurn %d: %v", i, err)
		}
	}

	mem, _ := store.Get(ctx, "acme")
	if len(mem.Summaries) != 2 {
		t.Fatalf("expected 2 stored summaries, got %d", len(mem.Summaries))
	}

	window, err := svc.ReadMemory(ctx, "acme")
	if err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if window.LatestSummary == nil {
		t.Fatal("expected a summary in the window")
	}
	if window.LatestSummary.Text != "summary 2" {
		t.Errorf("expected latest summary surfaced, got %q", window.LatestSummary.Text)
	}
	if len(window.Turns) != 2 {
		t.Errorf("expected 2 buffered turns in window, got %d", len(window.Turns))
	}
}

func TestRecordTurn_ValidatesInput(t *testing.T) {
	_, _, _, svc := newMemoryFixture()
	ctx := context.Background()

	if err := svc.RecordTurn(ctx, "", "q", "a"); !errors.Is(err, domain.ErrTenantRequired) {
		t.Errorf("empty tenant: expected ErrTenantRequired, got %v", err)
	}
	if err := svc.RecordTurn(ctx, "acme", "", "a"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty query: expected ErrInvalidInput, got %v", err)
	}
}
