// Package memsvc is the memory service façade used by agents and the
// reflection engine. The façade never returns errors: failures are absorbed
// into zero values ("" / false / empty slice) and reported through the
// structured log, so a memory outage degrades an agent instead of crashing it.
package memsvc

import (
	"context"

	"github.com/ledgermind/ledgermind/internal/model"
)

// DefaultTopK is the search result count when the caller passes none.
const DefaultTopK = 5

// Service is the agent-facing memory API. One workspace per agent id.
type Service interface {
	// Add stores content for the agent and returns the new logical memory id,
	// or "" when the input is invalid or the store fails.
	Add(ctx context.Context, agentID, content string, metadata map[string]interface{}) string

	// Update replaces the content and metadata of an existing memory,
	// keeping its id. Returns false when the memory does not exist or the
	// store fails.
	Update(ctx context.Context, agentID, memoryID, content string, metadata map[string]interface{}) bool

	// Delete removes one logical memory and all of its chunks. Returns false
	// when the memory does not exist or the store fails.
	Delete(ctx context.Context, agentID, memoryID string) bool

	// DeleteAll clears the agent's workspace. An absent or already empty
	// workspace counts as success.
	DeleteAll(ctx context.Context, agentID string) bool

	// Search returns up to topK records ranked by similarity to query.
	// topK <= 0 selects DefaultTopK. Blank queries yield an empty result.
	Search(ctx context.Context, agentID, query string, topK int) []model.SearchHit

	// GetAll returns every record in the agent's workspace in creation order.
	GetAll(ctx context.Context, agentID string) []model.MemoryRecord

	// Export snapshots the agent's workspace to a JSONL file and returns its
	// path, or "" on failure.
	Export(ctx context.Context, agentID string) string
}
