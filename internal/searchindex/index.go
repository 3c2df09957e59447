// Package searchindex provides the pluggable vector index collaborator used
// by the record store. Implementations must keep workspaces isolated from
// one another.
package searchindex

import (
	"context"

	"github.com/ledgermind/ledgermind/internal/model"
)

// Index provides vector search and index maintenance for memory records.
type Index interface {
	// EnsureWorkspace creates the workspace partition if it does not exist.
	EnsureWorkspace(ctx context.Context, workspaceID string) error
	// HasWorkspace reports whether the workspace exists in the persisted store.
	HasWorkspace(ctx context.Context, workspaceID string) (bool, error)

	// Upsert inserts records, overwriting any record with the same id.
	Upsert(ctx context.Context, workspaceID string, records []model.MemoryRecord) error
	// Search returns at most topK records ranked by similarity to query.
	Search(ctx context.Context, workspaceID, query string, topK int) ([]model.SearchHit, error)
	// Delete removes records by id; missing ids are ignored.
	Delete(ctx context.Context, workspaceID string, ids []string) error
	// List returns every record in the workspace.
	List(ctx context.Context, workspaceID string) ([]model.MemoryRecord, error)
}

// HealthPinger is optionally implemented by an Index to expose specialized
// health check logic. Returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
