package services

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven/mocks"
)

func TestRetrieve_FansOutOverAllPartitions(t *testing.T) {
	index := mocks.NewMockSearchIndex()
	ctx := context.Background()

	index.WriteRow(ctx, "common", "shared fact about gophers")
	index.WriteRow(ctx, "acme_web", "gophers dig tunnels")
	index.WriteRow(ctx, "acme_github", "gopher repo readme")
	index.WriteRow(ctx, "acme_pdf", "gopher field guide")
	index.WriteRow(ctx, "other_web", "unrelated tenant gophers")

	svc := NewRetrievalService(index, nil)

	result, err := svc.Retrieve(ctx, "acme", "gopher")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(result.Results) != 4 {
		t.Fatalf("expected 4 partition results, got %d", len(result.Results))
	}

	byPartition := make(map[string][]string)
	for _, pr := range result.Results {
		byPartition[pr.Partition] = pr.Contents
	}
	for _, want := range []string{"common", "acme_web", "acme_github", "acme_pdf"} {
		if _, ok := byPartition[want]; !ok {
			t.Errorf("missing partition %q in results", want)
		}
	}
	if _, ok := byPartition["other_web"]; ok {
		t.Error("leaked another tenant's partition into results")
	}

	if got := len(result.Contents()); got != 4 {
		t.Errorf("expected 4 flattened contents, got %d", got)
	}
}

func TestRetrieve_FailedPartitionYieldsEmptyResult(t *testing.T) {
	index := mocks.NewMockSearchIndex()
	ctx := context.Background()

	index.WriteRow(ctx, "common", "shared gopher lore")
	index.WriteRow(ctx, "acme_web", "web gopher page")
	index.FailQueries["acme_github"] = true

	svc := NewRetrievalService(index, nil)

	result, err := svc.Retrieve(ctx, "acme", "gopher")
	if err != nil {
		t.Fatalf("Retrieve should not fail on a partition error: %v", err)
	}
	if len(result.Results) != 4 {
		t.Fatalf("expected all 4 partitions reported, got %d", len(result.Results))
	}

	for _, pr := range result.Results {
		if pr.Partition == "acme_github" && len(pr.Contents) != 0 {
			t.Errorf("failed partition should be empty, got %v", pr.Contents)
		}
	}
	if got := len(result.Contents()); got != 2 {
		t.Errorf("expected 2 contents from healthy partitions, got %d", got)
	}
}

func TestRetrieve_ValidatesInput(t *testing.T) {
	svc := NewRetrievalService(mocks.NewMockSearchIndex(), nil)
	ctx := context.Background()

	if _, err := svc.Retrieve(ctx, "", "query"); !errors.Is(err, domain.ErrTenantRequired) {
		t.Errorf("empty tenant: expected ErrTenantRequired, got %v", err)
	}
	if _, err := svc.Retrieve(ctx, "acme", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty query: expected ErrInvalidInput, got %v", err)
	}
}
