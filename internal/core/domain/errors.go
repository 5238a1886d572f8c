package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrTenantRequired indicates a tenant id was missing from the request
	ErrTenantRequired = errors.New("tenant required")

	// ErrUnknownSourceKind indicates an unsupported content source kind
	ErrUnknownSourceKind = errors.New("unknown source kind")

	// ErrFetch indicates a page fetch failed during a crawl.
	// Recovered per-URL; a crawl session never aborts on it.
	ErrFetch = errors.New("fetch failed")

	// ErrParse indicates malformed content that could not be processed.
	// Recovered per-item.
	ErrParse = errors.New("parse failed")

	// ErrIndexWrite indicates a single chunk failed to persist to the
	// search index. Isolated and counted, never aborts a batch.
	ErrIndexWrite = errors.New("index write failed")

	// ErrIndexQuery indicates a partition query failed. The partition
	// yields an empty result; the overall retrieval still succeeds.
	ErrIndexQuery = errors.New("index query failed")

	// ErrGeneration indicates the external completion call failed.
	// This is the only pipeline error that propagates to the caller.
	ErrGeneration = errors.New("generation failed")

	// ErrMemoryConflict indicates a concurrent update to a tenant's
	// memory document was detected (version mismatch on save)
	ErrMemoryConflict = errors.New("memory document conflict")

	// ErrLockNotAcquired indicates the per-tenant lock could not be
	// obtained within the allowed time
	ErrLockNotAcquired = errors.New("lock not acquired")
)
