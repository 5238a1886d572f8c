// Package redis implements the MemoryStore and TenantLock ports on
// Redis. One instance serves all tenants; per-tenant isolation comes
// from key naming.
package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TenantLock = (*Lock)(nil)

const lockPrefix = "devrag:lock:"

// Lock implements TenantLock using Redis SETNX with TTL.
//
// Each Acquire stores a fresh token as the lock value, so Release only
// deletes the holder's own acquisition. If the TTL expires mid-critical
// section and another goroutine takes the lock, the first holder's
// Release sees a foreign token and leaves the lock alone.
type Lock struct {
	client  *redis.Client
	ownerID string
}

// NewLock creates a new Redis-backed tenant lock.
// The owner ID is automatically generated to uniquely identify this instance.
func NewLock(client *redis.Client) *Lock {
	return &Lock{
		client:  client,
		ownerID: generateOwnerID(),
	}
}

// generateOwnerID creates a unique identifier for this lock holder.
// Format: hostname:pid:random
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(randomBytes))
}

// newToken creates a per-acquisition release token. The owner ID prefix
// identifies the process when inspecting lock keys by hand.
func (l *Lock) newToken() string {
	randomBytes := make([]byte, 8)
	_, _ = rand.Read(randomBytes)
	return l.ownerID + ":" + hex.EncodeToString(randomBytes)
}

// Acquire attempts to acquire a named lock with the given TTL.
// Uses Redis SETNX (SET if Not eXists) for atomic lock acquisition.
// Returns the release token when acquired, or an empty token if the
// lock is already held.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	key := lockPrefix + name
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// releaseScript is a Lua script for safe lock release.
// It only deletes the lock if the stored token matches, preventing
// release of a lock re-acquired by another holder after expiry.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release releases a named lock if the token still owns it.
// Uses a Lua script to atomically check ownership and delete.
// Safe to call even if the lock is not held or has expired.
func (l *Lock) Release(ctx context.Context, name, token string) error {
	key := lockPrefix + name
	_, err := releaseScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Ping checks if the Redis backend is healthy.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID returns the unique identifier for this lock instance.
func (l *Lock) OwnerID() string {
	return l.ownerID
}
