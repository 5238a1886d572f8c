package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MemoryStore = (*MemoryStore)(nil)

// MemoryStore implements driven.MemoryStore on the tenant_memory table.
// Saves are guarded by a version column: an UPDATE that matches zero rows
// means another writer advanced the document first.
type MemoryStore struct {
	db *DB
}

// NewMemoryStore creates a new PostgreSQL-backed MemoryStore
func NewMemoryStore(db *DB) *MemoryStore {
	return &MemoryStore{db: db}
}

// Get retrieves a tenant's memory document
func (s *MemoryStore) Get(ctx context.Context, tenantID string) (*domain.Memory, error) {
	var (
		doc     []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT doc, version FROM tenant_memory WHERE tenant_id = $1",
		tenantID,
	).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get memory %s: %w", tenantID, err)
	}

	var memory domain.Memory
	if err := json.Unmarshal(doc, &memory); err != nil {
		return nil, fmt.Errorf("unmarshal memory %s: %w", tenantID, err)
	}
	// The column is authoritative for the version
	memory.Version = version
	return &memory, nil
}

// Save persists a tenant's memory document. A new tenant inserts at
// version 1; an existing document only updates when the caller still
// holds the stored version. Returns domain.ErrMemoryConflict otherwise.
func (s *MemoryStore) Save(ctx context.Context, memory *domain.Memory) error {
	doc, err := json.Marshal(memory)
	if err != nil {
		return fmt.Errorf("marshal memory %s: %w", memory.TenantID, err)
	}

	expected := memory.Version
	next := expected + 1

	var result sql.Result
	if expected == 0 {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO tenant_memory (tenant_id, doc, version, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (tenant_id) DO NOTHING`,
			memory.TenantID, doc, next,
		)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE tenant_memory
			SET doc = $2, version = $3, updated_at = now()
			WHERE tenant_id = $1 AND version = $4`,
			memory.TenantID, doc, next, expected,
		)
	}
	if err != nil {
		return fmt.Errorf("save memory %s: %w", memory.TenantID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save memory %s: %w", memory.TenantID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: tenant %s at version %d", domain.ErrMemoryConflict, memory.TenantID, expected)
	}

	memory.Version = next
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
