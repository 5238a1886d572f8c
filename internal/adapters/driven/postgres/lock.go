package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TenantLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements TenantLock using PostgreSQL advisory locks.
//
// Advisory locks are session-scoped, so Acquire pins a dedicated
// connection from the pool and Release unlocks on that same connection
// before returning it. Running lock and unlock through the pooled
// handle instead would let them land on different sessions, leaving
// the lock stranded on an idle connection.
//
// IMPORTANT LIMITATIONS:
// - The TTL parameter is ignored (advisory locks don't expire)
// - If the pinned connection is lost, the lock is released by the server
// - Each held lock occupies one pool connection until released
//
// For multi-instance deployments, Redis locks are recommended. This is
// provided as a fallback when Redis is unavailable.
type AdvisoryLock struct {
	db *DB

	mu   sync.Mutex
	held map[string]*heldLock
}

// heldLock ties an acquisition to its pinned session.
type heldLock struct {
	conn  *sql.Conn
	token string
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{
		db:   db,
		held: make(map[string]*heldLock),
	}
}

// hashLockName converts a string lock name to a 64-bit integer for PostgreSQL advisory locks.
// Uses FNV-1a hash for consistent, well-distributed values.
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("devrag:lock:" + name))
	return int64(h.Sum64())
}

// newLockToken creates a per-acquisition release token.
func newLockToken() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Acquire attempts to acquire a named advisory lock on a dedicated
// connection. Uses pg_try_advisory_lock which returns immediately
// without blocking. Returns the release token when acquired, or an
// empty token if the lock is held elsewhere.
//
// Note: The TTL parameter is ignored - PostgreSQL advisory locks don't have TTL.
// The lock is held until explicitly released or the pinned connection closes.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	lockID := hashLockName(name)

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("pin connection for lock %s: %w", name, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Close()
		return "", err
	}
	if !acquired {
		conn.Close()
		return "", nil
	}

	token := newLockToken()
	l.mu.Lock()
	l.held[name] = &heldLock{conn: conn, token: token}
	l.mu.Unlock()
	return token, nil
}

// Release unlocks a named advisory lock on the connection it was
// acquired on and returns that connection to the pool. An unknown or
// stale token is a no-op.
func (l *AdvisoryLock) Release(ctx context.Context, name, token string) error {
	l.mu.Lock()
	h, ok := l.held[name]
	if !ok || h.token != token {
		l.mu.Unlock()
		return nil
	}
	delete(l.held, name)
	l.mu.Unlock()

	// Closing the connection would release the lock anyway; the
	// explicit unlock keeps the session reusable by the pool.
	defer h.conn.Close()

	var released bool
	if err := h.conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockName(name)).Scan(&released); err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	if !released {
		return fmt.Errorf("release lock %s: not held by its session", name)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
