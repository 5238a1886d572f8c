package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

func setupTestQueue(t *testing.T) (*Queue, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	queue, err := NewQueue(client, "test-worker")
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}

	return queue, func() {
		client.Close()
		mr.Close()
	}
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewIngestTask("acme", domain.SourceKindWeb, "https://docs.example.com")
	if err := queue.Enqueue(ctx, task); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, err := queue.DequeueWithTimeout(ctx, 0)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID {
		t.Errorf("expected task %s, got %s", task.ID, got.ID)
	}
	if got.TenantID != "acme" || got.Kind != domain.SourceKindWeb {
		t.Errorf("task fields lost in transit: %+v", got)
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("expected processing status, got %q", got.Status)
	}
}

func TestQueue_DequeueEmpty(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()

	got, err := queue.DequeueWithTimeout(context.Background(), 0)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if got != nil {
		t.Errorf("expected no task, got %+v", got)
	}
}

func TestQueue_FIFOOrder(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	first := domain.NewIngestTask("acme", domain.SourceKindWeb, "https://a.example.com")
	second := domain.NewIngestTask("acme", domain.SourceKindGithub, "https://github.com/a/b")
	for _, task := range []*domain.Task{first, second} {
		if err := queue.Enqueue(ctx, task); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	got, _ := queue.DequeueWithTimeout(ctx, 0)
	if got == nil || got.ID != first.ID {
		t.Errorf("expected first task, got %+v", got)
	}
	got, _ = queue.DequeueWithTimeout(ctx, 0)
	if got == nil || got.ID != second.ID {
		t.Errorf("expected second task, got %+v", got)
	}
}

func TestQueue_Ack(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewIngestTask("acme", domain.SourceKindWeb, "https://docs.example.com")
	queue.Enqueue(ctx, task)
	got, _ := queue.DequeueWithTimeout(ctx, 0)
	if got == nil {
		t.Fatal("expected a task")
	}

	if err := queue.Ack(ctx, got.ID); err != nil {
		t.Fatalf("Ack: %v", err)
	}

	stored, err := queue.getTask(ctx, got.ID)
	if err != nil {
		t.Fatalf("getTask: %v", err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed status, got %q", stored.Status)
	}

	// Nothing left to dequeue
	if again, _ := queue.DequeueWithTimeout(ctx, 0); again != nil {
		t.Errorf("acked task dequeued again: %+v", again)
	}
}

func TestQueue_NackRequeuesUntilBudgetExhausted(t *testing.T) {
	queue, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewIngestTask("acme", domain.SourceKindWeb, "https://docs.example.com")
	queue.Enqueue(ctx, task)

	for attempt := 1; attempt < task.MaxAttempts; attempt++ {
		got, _ := queue.DequeueWithTimeout(ctx, 0)
		if got == nil {
			t.Fatalf("attempt %d: expected a task", attempt)
		}
		if err := queue.Nack(ctx, got.ID, "index unavailable"); err != nil {
			t.Fatalf("Nack: %v", err)
		}
	}

	// Last attempt exhausts the budget
	got, _ := queue.DequeueWithTimeout(ctx, 0)
	if got == nil {
		t.Fatal("expected requeued task")
	}
	if got.Attempts != task.MaxAttempts-1 {
		t.Errorf("expected %d recorded attempts, got %d", task.MaxAttempts-1, got.Attempts)
	}
	if err := queue.Nack(ctx, got.ID, "index unavailable"); err != nil {
		t.Fatalf("final Nack: %v", err)
	}

	stored, _ := queue.getTask(ctx, got.ID)
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed status, got %q", stored.Status)
	}
	if stored.Error != "index unavailable" {
		t.Errorf("expected failure reason recorded, got %q", stored.Error)
	}
	if again, _ := queue.DequeueWithTimeout(ctx, 0); again != nil {
		t.Errorf("failed task requeued: %+v", again)
	}
}
