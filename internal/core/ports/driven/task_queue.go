package driven

import (
	"context"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
)

// TaskQueue hands ingestion tasks from the API to background workers.
type TaskQueue interface {
	// Enqueue adds a task to the queue for processing
	Enqueue(ctx context.Context, task *domain.Task) error

	// DequeueWithTimeout retrieves the next task, waiting up to timeout
	// seconds. Returns nil, nil when no task became available.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack acknowledges successful completion of a task
	Ack(ctx context.Context, taskID string) error

	// Nack indicates processing failed; the task is re-queued until its
	// retry budget is exhausted, then marked failed
	Nack(ctx context.Context, taskID string, reason string) error

	// Ping checks if the queue backend is healthy
	Ping(ctx context.Context) error

	// Close cleans up resources
	Close() error
}
