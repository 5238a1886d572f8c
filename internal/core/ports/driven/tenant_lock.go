package driven

import (
	"context"
	"time"
)

// TenantLock serializes read-modify-write sequences on a tenant's memory
// document. Concurrent chat requests for the same tenant without it can
// lose turns or double-trigger compaction.
type TenantLock interface {
	// Acquire attempts to take a named lock with the given TTL. On
	// success it returns an opaque release token; when the lock is
	// already held elsewhere the token is empty and err is nil.
	Acquire(ctx context.Context, name string, ttl time.Duration) (string, error)

	// Release releases a named lock using the token Acquire returned.
	// A stale token (the lock expired and was re-acquired by someone
	// else) is a no-op, so a slow holder can never free another
	// holder's lock.
	Release(ctx context.Context, name, token string) error

	// Ping checks if the lock backend is healthy
	Ping(ctx context.Context) error
}
