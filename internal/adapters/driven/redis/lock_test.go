package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestNewLock(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)

	if lock == nil {
		t.Fatal("expected non-nil lock")
	}
	if lock.ownerID == "" {
		t.Error("expected non-empty owner ID")
	}
}

func TestLock_OwnerID_Unique(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client)
	lock2 := NewLock(client)

	if lock1.OwnerID() == lock2.OwnerID() {
		t.Errorf("expected unique owner IDs, got same: %s", lock1.OwnerID())
	}
}

func TestLock_Acquire_Success(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)
	ctx := context.Background()

	token, err := lock.Acquire(ctx, "memory:acme", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Error("expected to acquire lock")
	}
}

func TestLock_Acquire_AlreadyHeld(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	token, err := lock1.Acquire(ctx, "memory:acme", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Error("expected first lock to acquire")
	}

	token, err = lock2.Acquire(ctx, "memory:acme", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Error("expected second lock to fail acquisition")
	}
}

func TestLock_DifferentNamesIndependent(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)
	ctx := context.Background()

	for _, name := range []string{"memory:acme", "memory:globex"} {
		token, err := lock.Acquire(ctx, name, 10*time.Second)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", name, err)
		}
		if token == "" {
			t.Errorf("expected to acquire %s", name)
		}
	}
}

func TestLock_Release(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	token, err := lock1.Acquire(ctx, "memory:acme", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := lock1.Release(ctx, "memory:acme", token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err = lock2.Acquire(ctx, "memory:acme", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Error("expected lock to be acquirable after release")
	}
}

func TestLock_Release_WrongToken(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	if _, err := lock1.Acquire(ctx, "memory:acme", 10*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A release with a foreign token is a no-op
	if err := lock2.Release(ctx, "memory:acme", "not-the-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := lock2.Acquire(ctx, "memory:acme", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Error("expected lock to remain held by the owner")
	}
}

func TestLock_Release_NotHeld(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)

	if err := lock.Release(context.Background(), "memory:never-acquired", "any-token"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLock_StaleTokenCannotReleaseNewHolder(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lock := NewLock(client)
	ctx := context.Background()

	// First acquisition expires while its holder is still working.
	staleToken, err := lock.Acquire(ctx, "memory:acme", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if staleToken == "" {
		t.Fatal("expected first acquisition to succeed")
	}
	mr.FastForward(100 * time.Millisecond)

	// Second acquisition from the same process takes over.
	freshToken, err := lock.Acquire(ctx, "memory:acme", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if freshToken == "" {
		t.Fatal("expected re-acquisition after expiry")
	}
	if freshToken == staleToken {
		t.Fatal("tokens must be unique per acquisition")
	}

	// The slow first holder finally releases; the second holder's
	// lock must survive.
	if err := lock.Release(ctx, "memory:acme", staleToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := client.Get(ctx, lockPrefix+"memory:acme").Result()
	if err != nil {
		t.Fatalf("lock key missing after stale release: %v", err)
	}
	if value != freshToken {
		t.Errorf("expected lock still owned by the fresh token, got %q", value)
	}
}
