// Package registry guards the single shared index instance per physical
// store directory. Concurrent independent connections to the same persisted
// store corrupt it, so every component reaches the index through a Registry.
package registry

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/searchindex"
)

// OpenFunc builds the underlying index. It is invoked at most once per
// Registry lifetime (again after Reset).
type OpenFunc func() (searchindex.Index, error)

// Registry lazily opens the shared index and tracks which workspaces are
// known to exist. The mutex covers only the open/create/import path; lookups
// of known workspaces take the read lock.
type Registry struct {
	mu        sync.RWMutex
	open      OpenFunc
	exportDir string
	log       zerolog.Logger

	idx   searchindex.Index
	known map[string]struct{}
}

// New creates a Registry. exportDir holds legacy per-workspace JSONL
// exports; it may be empty to disable the recovery path.
func New(open OpenFunc, exportDir string, log zerolog.Logger) *Registry {
	return &Registry{open: open, exportDir: exportDir, log: log}
}

// GetOrCreate returns the shared index, creating the workspace on first
// access. Safe for concurrent use: the creation path is mutually excluded,
// so two racing callers for the same workspace id produce exactly one
// underlying workspace.
func (r *Registry) GetOrCreate(ctx context.Context, workspaceID string) (searchindex.Index, error) {
	if workspaceID == "" {
		return nil, model.NewValidationError("workspaceID", "workspace id is required")
	}

	r.mu.RLock()
	if r.idx != nil {
		if _, ok := r.known[workspaceID]; ok {
			idx := r.idx
			r.mu.RUnlock()
			return idx, nil
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.idx == nil {
		idx, err := r.open()
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		r.idx = idx
		r.known = make(map[string]struct{})
	}

	// Double-check after acquiring the write lock.
	if _, ok := r.known[workspaceID]; ok {
		return r.idx, nil
	}

	exists, err := r.idx.HasWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		imported, err := r.importLegacy(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		if !imported {
			if err := r.idx.EnsureWorkspace(ctx, workspaceID); err != nil {
				return nil, err
			}
		}
	}

	r.known[workspaceID] = struct{}{}
	return r.idx, nil
}

// Has reports whether the workspace already exists in the persisted store.
// Unlike GetOrCreate it never creates the workspace as a side effect.
func (r *Registry) Has(ctx context.Context, workspaceID string) (bool, error) {
	if workspaceID == "" {
		return false, nil
	}

	r.mu.RLock()
	if r.idx != nil {
		if _, ok := r.known[workspaceID]; ok {
			r.mu.RUnlock()
			return true, nil
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idx == nil {
		idx, err := r.open()
		if err != nil {
			return false, fmt.Errorf("open index: %w", err)
		}
		r.idx = idx
		r.known = make(map[string]struct{})
	}
	return r.idx.HasWorkspace(ctx, workspaceID)
}

// Reset discards the shared index so a subsequent GetOrCreate rebuilds it.
// Primarily for tests; must not be called while operations are in flight.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idx = nil
	r.known = nil
}

// importLegacy loads a plain-file JSONL export of the workspace into the
// primary store, once. Subsequent access prefers the primary store.
func (r *Registry) importLegacy(ctx context.Context, workspaceID string) (bool, error) {
	if r.exportDir == "" {
		return false, nil
	}
	path := filepath.Join(r.exportDir, workspaceID+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()

	var records []model.MemoryRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.MemoryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			r.log.Warn().Err(err).Str("workspace", workspaceID).Msg("skipping malformed export line")
			continue
		}
		rec.WorkspaceID = workspaceID
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}

	if err := r.idx.EnsureWorkspace(ctx, workspaceID); err != nil {
		return false, err
	}
	if err := r.idx.Upsert(ctx, workspaceID, records); err != nil {
		return false, err
	}
	r.log.Info().Str("workspace", workspaceID).Int("records", len(records)).Msg("imported legacy workspace export")
	return true, nil
}
