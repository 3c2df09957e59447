// Package recordstore is the persistence boundary for memory records. It
// resolves workspaces through the registry, delegates to the search index,
// and wraps every failure in a StoreError naming the operation.
package recordstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/registry"
)

// Store persists and retrieves memory records per workspace. It performs no
// retries; failures surface to the immediate caller.
type Store struct {
	reg       *registry.Registry
	exportDir string
	log       zerolog.Logger
}

// New creates a Store on top of reg. exportDir receives JSONL snapshots and
// may be empty to disable exports.
func New(reg *registry.Registry, exportDir string, log zerolog.Logger) *Store {
	return &Store{reg: reg, exportDir: exportDir, log: log}
}

// Insert writes records into the workspace, creating it on first use.
// An existing record with the same id is overwritten.
func (s *Store) Insert(ctx context.Context, workspaceID string, records []model.MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	idx, err := s.reg.GetOrCreate(ctx, workspaceID)
	if err != nil {
		return model.NewStoreError("insert", workspaceID, err)
	}
	if err := idx.Upsert(ctx, workspaceID, records); err != nil {
		return model.NewStoreError("insert", workspaceID, err)
	}
	return nil
}

// Search returns up to topK records ranked by similarity. A blank query or
// an absent workspace yields an empty result, not an error.
func (s *Store) Search(ctx context.Context, workspaceID, query string, topK int) ([]model.SearchHit, error) {
	if strings.TrimSpace(query) == "" || topK <= 0 {
		return nil, nil
	}
	idx, err := s.reg.GetOrCreate(ctx, workspaceID)
	if err != nil {
		return nil, model.NewStoreError("search", workspaceID, err)
	}
	hits, err := idx.Search(ctx, workspaceID, query, topK)
	if err != nil {
		return nil, model.NewStoreError("search", workspaceID, err)
	}
	return hits, nil
}

// Delete removes the given record ids. Ids not present are ignored.
func (s *Store) Delete(ctx context.Context, workspaceID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	idx, err := s.reg.GetOrCreate(ctx, workspaceID)
	if err != nil {
		return model.NewStoreError("delete", workspaceID, err)
	}
	if err := idx.Delete(ctx, workspaceID, ids); err != nil {
		return model.NewStoreError("delete", workspaceID, err)
	}
	return nil
}

// List returns every record in the workspace in creation order. An absent
// workspace yields an empty slice.
func (s *Store) List(ctx context.Context, workspaceID string) ([]model.MemoryRecord, error) {
	idx, err := s.reg.GetOrCreate(ctx, workspaceID)
	if err != nil {
		return nil, model.NewStoreError("list", workspaceID, err)
	}
	records, err := idx.List(ctx, workspaceID)
	if err != nil {
		return nil, model.NewStoreError("list", workspaceID, err)
	}
	return records, nil
}

// ExistsWorkspace reports whether the workspace has been created, without
// creating it.
func (s *Store) ExistsWorkspace(ctx context.Context, workspaceID string) (bool, error) {
	ok, err := s.reg.Has(ctx, workspaceID)
	if err != nil {
		return false, model.NewStoreError("exists", workspaceID, err)
	}
	return ok, nil
}

// Exists reports whether a record with the given id is present.
func (s *Store) Exists(ctx context.Context, workspaceID, id string) (bool, error) {
	records, err := s.List(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Export writes a JSONL snapshot of the workspace to the export directory
// and returns the file path. The snapshot format matches what the registry
// imports on recovery.
func (s *Store) Export(ctx context.Context, workspaceID string) (string, error) {
	if s.exportDir == "" {
		return "", model.NewStoreError("export", workspaceID, os.ErrNotExist)
	}
	records, err := s.List(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", model.NewStoreError("export", workspaceID, err)
	}

	path := filepath.Join(s.exportDir, workspaceID+".jsonl")
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", model.NewStoreError("export", workspaceID, err)
	}
	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return "", model.NewStoreError("export", workspaceID, err)
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", model.NewStoreError("export", workspaceID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", model.NewStoreError("export", workspaceID, err)
	}
	s.log.Info().Str("workspace", workspaceID).Int("records", len(records)).Str("path", path).Msg("exported workspace snapshot")
	return path, nil
}
