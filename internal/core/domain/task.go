package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// TaskStatus represents the current state of a background task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task is a background ingestion job processed by workers.
// The UI enqueues one per submitted source; a worker runs the ingestion
// coordinator for it.
type Task struct {
	// ID is the unique identifier for this task
	ID string `json:"id"`

	// TenantID owns the partition the content is ingested into
	TenantID string `json:"tenant_id"`

	// Kind selects the content source (web, github, pdf)
	Kind SourceKind `json:"kind"`

	// Handle is the source handle: seed URL for web, repo URL for
	// github, pre-extracted text for pdf
	Handle string `json:"handle"`

	// Status is the current state of the task
	Status TaskStatus `json:"status"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts is the maximum retry count before giving up
	MaxAttempts int `json:"max_attempts"`

	// Error contains the last error message if failed
	Error string `json:"error,omitempty"`

	// CreatedAt is when the task was enqueued
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the task was last modified
	UpdatedAt time.Time `json:"updated_at"`
}

// NewIngestTask creates a pending ingestion task with default retry limits.
func NewIngestTask(tenantID string, kind SourceKind, handle string) *Task {
	now := time.Now()
	return &Task{
		ID:          GenerateID(),
		TenantID:    tenantID,
		Kind:        kind,
		Handle:      handle,
		Status:      TaskStatusPending,
		MaxAttempts: 3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the task has everything a worker needs.
func (t *Task) Validate() error {
	if t.TenantID == "" {
		return ErrTenantRequired
	}
	if !t.Kind.Valid() {
		return ErrUnknownSourceKind
	}
	if t.Handle == "" {
		return ErrInvalidInput
	}
	return nil
}
