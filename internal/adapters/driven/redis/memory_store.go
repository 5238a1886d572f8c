package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MemoryStore = (*MemoryStore)(nil)

const memoryPrefix = "devrag:memory:"

// MemoryStore implements driven.MemoryStore using Redis.
// Each tenant's memory lives in one hash: the serialized document in the
// "doc" field and the write version in the "version" field. Saves go
// through a version-checked Lua script, so a stale writer fails instead
// of overwriting a concurrent update.
type MemoryStore struct {
	client *redis.Client
}

// NewMemoryStore creates a new Redis-backed MemoryStore
func NewMemoryStore(client *redis.Client) *MemoryStore {
	return &MemoryStore{client: client}
}

// Get retrieves a tenant's memory document
func (s *MemoryStore) Get(ctx context.Context, tenantID string) (*domain.Memory, error) {
	key := memoryPrefix + tenantID
	fields, err := s.client.HMGet(ctx, key, "doc", "version").Result()
	if err != nil {
		return nil, fmt.Errorf("get memory %s: %w", tenantID, err)
	}
	if fields[0] == nil {
		return nil, domain.ErrNotFound
	}

	var memory domain.Memory
	if err := json.Unmarshal([]byte(fields[0].(string)), &memory); err != nil {
		return nil, fmt.Errorf("unmarshal memory %s: %w", tenantID, err)
	}

	// The hash field is authoritative for the version
	if raw, ok := fields[1].(string); ok {
		version, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse memory version %s: %w", tenantID, err)
		}
		memory.Version = version
	}
	return &memory, nil
}

// saveScript writes the document only when the stored version still
// matches the one the caller loaded. A missing hash counts as version 0.
var saveScript = redis.NewScript(`
	local current = redis.call("hget", KEYS[1], "version")
	if not current then current = "0" end
	if current ~= ARGV[1] then
		return 0
	end
	redis.call("hset", KEYS[1], "doc", ARGV[2], "version", ARGV[3])
	return 1
`)

// Save persists a tenant's memory document. Returns
// domain.ErrMemoryConflict when another writer got there first; on
// success the in-memory version is advanced to the stored one.
func (s *MemoryStore) Save(ctx context.Context, memory *domain.Memory) error {
	key := memoryPrefix + memory.TenantID
	expected := memory.Version
	next := expected + 1

	doc, err := json.Marshal(memory)
	if err != nil {
		return fmt.Errorf("marshal memory %s: %w", memory.TenantID, err)
	}

	result, err := saveScript.Run(ctx, s.client, []string{key},
		strconv.FormatInt(expected, 10),
		string(doc),
		strconv.FormatInt(next, 10),
	).Result()
	if err != nil {
		return fmt.Errorf("save memory %s: %w", memory.TenantID, err)
	}
	if result.(int64) == 0 {
		return fmt.Errorf("%w: tenant %s at version %d", domain.ErrMemoryConflict, memory.TenantID, expected)
	}

	memory.Version = next
	return nil
}

// Ping checks if the Redis backend is healthy.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
