package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven/mocks"
)

type chatFixture struct {
	index  *mocks.MockSearchIndex
	store  *mocks.MockMemoryStore
	gen    *mocks.MockGenerator
	memGen *mocks.MockGenerator
	svc    *chatService
}

func newChatFixture() *chatFixture {
	index := mocks.NewMockSearchIndex()
	store := mocks.NewMockMemoryStore()
	gen := mocks.NewMockGenerator("the generated answer")
	memGen := mocks.NewMockGenerator("memory summary")

	retrieval := NewRetrievalService(index, nil)
	memory := NewMemoryService(store, memGen, mocks.NewMockTenantLock(), nil)
	svc := NewChatService(retrieval, memory, gen, nil).(*chatService)

	return &chatFixture{index: index, store: store, gen: gen, memGen: memGen, svc: svc}
}

func TestAnswer_PromptCarriesContextMemoryAndQuery(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	f.index.WriteRow(ctx, "acme_web", "gophers are burrowing rodents")
	if err := f.svc.memory.RecordTurn(ctx, "acme", "earlier question", "earlier answer"); err != nil {
		t.Fatalf("seed memory: %v", err)
	}

	answer, err := f.svc.Answer(ctx, "acme", "tell me about gophers")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "the generated answer" {
		t.Errorf("unexpected answer %q", answer)
	}

	prompts := f.gen.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected 1 generation call, got %d", len(prompts))
	}
	prompt := prompts[0]
	for _, want := range []string{
		"gophers are burrowing rodents",
		"earlier question",
		"earlier answer",
		"tell me about gophers",
		"### Contextual Information",
		"### Instructions",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnswer_RecordsTheTurn(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	if _, err := f.svc.Answer(ctx, "acme", "first question"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	mem, err := f.store.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(mem.Turns) != 1 {
		t.Fatalf("expected the turn to be recorded, got %d turns", len(mem.Turns))
	}
	if mem.Turns[0].Query != "first question" || mem.Turns[0].Response != "the generated answer" {
		t.Errorf("unexpected recorded turn %+v", mem.Turns[0])
	}
}

func TestAnswer_GenerationFailurePropagates(t *testing.T) {
	f := newChatFixture()
	f.gen.Fail = true

	_, err := f.svc.Answer(context.Background(), "acme", "question")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}

	// No turn is recorded for a failed generation.
	if _, err := f.store.Get(context.Background(), "acme"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected no memory document, got %v", err)
	}
}

func TestAnswer_EmptyRetrievalStillAnswers(t *testing.T) {
	f := newChatFixture()

	answer, err := f.svc.Answer(context.Background(), "acme", "anything at all")
	if err != nil {
		t.Fatalf("Answer with empty index: %v", err)
	}
	if answer == "" {
		t.Error("expected an answer despite empty retrieval")
	}
	if !strings.Contains(f.gen.Prompts()[0], "(no matching documents)") {
		t.Error("prompt should state that no documents matched")
	}
}

func TestAnswer_ValidatesInput(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	if _, err := f.svc.Answer(ctx, "", "q"); !errors.Is(err, domain.ErrTenantRequired) {
		t.Errorf("empty tenant: expected ErrTenantRequired, got %v", err)
	}
	if _, err := f.svc.Answer(ctx, "acme", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty query: expected ErrInvalidInput, got %v", err)
	}
}
