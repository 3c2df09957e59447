package memsvc

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/chunker"
	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/recordstore"
)

// DirectService implements Service against the local record store. Oversized
// content is chunked before insertion; update and delete operate on the whole
// chunk group of a logical memory.
type DirectService struct {
	store *recordstore.Store
	log   zerolog.Logger
}

// NewDirect creates a Service backed by the given record store.
func NewDirect(store *recordstore.Store, log zerolog.Logger) *DirectService {
	return &DirectService{store: store, log: log}
}

func (s *DirectService) Add(ctx context.Context, agentID, content string, metadata map[string]interface{}) string {
	if strings.TrimSpace(agentID) == "" {
		s.log.Warn().Msg("memory add rejected: empty agent id")
		return ""
	}
	if strings.TrimSpace(content) == "" {
		s.log.Warn().Str("agent", agentID).Msg("memory add rejected: empty content")
		return ""
	}

	id := uuid.New().String()
	records := chunkRecords(agentID, id, content, metadata, time.Now().UTC())
	if err := s.store.Insert(ctx, agentID, records); err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("memory add failed")
		return ""
	}
	s.log.Debug().Str("agent", agentID).Str("memory", id).Int("chunks", len(records)).Msg("memory added")
	return id
}

func (s *DirectService) Update(ctx context.Context, agentID, memoryID, content string, metadata map[string]interface{}) bool {
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(memoryID) == "" {
		s.log.Warn().Str("agent", agentID).Str("memory", memoryID).Msg("memory update rejected: missing id")
		return false
	}
	if strings.TrimSpace(content) == "" {
		s.log.Warn().Str("agent", agentID).Str("memory", memoryID).Msg("memory update rejected: empty content")
		return false
	}

	group, found, err := s.groupIDs(ctx, agentID, memoryID)
	if err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Str("memory", memoryID).Msg("memory update failed")
		return false
	}
	if !found {
		s.log.Warn().Str("agent", agentID).Str("memory", memoryID).Msg("memory update rejected: not found")
		return false
	}

	// Remove every chunk of the old version first so shrinking content never
	// leaves orphaned trailing chunks behind.
	if err := s.store.Delete(ctx, agentID, group); err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Str("memory", memoryID).Msg("memory update failed")
		return false
	}
	records := chunkRecords(agentID, memoryID, content, metadata, time.Now().UTC())
	if err := s.store.Insert(ctx, agentID, records); err != nil {
		// The old chunks are already gone; the memory is now partially written.
		s.log.Error().Err(model.NewPartialChunkFailure(memoryID, err)).Str("agent", agentID).Msg("memory update failed after delete")
		return false
	}
	s.log.Debug().Str("agent", agentID).Str("memory", memoryID).Int("chunks", len(records)).Msg("memory updated")
	return true
}

func (s *DirectService) Delete(ctx context.Context, agentID, memoryID string) bool {
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(memoryID) == "" {
		s.log.Warn().Str("agent", agentID).Str("memory", memoryID).Msg("memory delete rejected: missing id")
		return false
	}

	group, found, err := s.groupIDs(ctx, agentID, memoryID)
	if err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Str("memory", memoryID).Msg("memory delete failed")
		return false
	}
	if !found {
		s.log.Warn().Str("agent", agentID).Str("memory", memoryID).Msg("memory delete rejected: not found")
		return false
	}
	if err := s.store.Delete(ctx, agentID, group); err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Str("memory", memoryID).Msg("memory delete failed")
		return false
	}
	return true
}

func (s *DirectService) DeleteAll(ctx context.Context, agentID string) bool {
	if strings.TrimSpace(agentID) == "" {
		s.log.Warn().Msg("memory delete_all rejected: empty agent id")
		return false
	}

	records, err := s.store.List(ctx, agentID)
	if err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("memory delete_all failed")
		return false
	}
	if len(records) == 0 {
		return true
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if err := s.store.Delete(ctx, agentID, ids); err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("memory delete_all failed")
		return false
	}
	s.log.Info().Str("agent", agentID).Int("records", len(ids)).Msg("workspace cleared")
	return true
}

func (s *DirectService) Search(ctx context.Context, agentID, query string, topK int) []model.SearchHit {
	if strings.TrimSpace(agentID) == "" {
		return nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	hits, err := s.store.Search(ctx, agentID, chunker.Truncate(query), topK)
	if err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("memory search failed")
		return nil
	}
	return hits
}

func (s *DirectService) GetAll(ctx context.Context, agentID string) []model.MemoryRecord {
	if strings.TrimSpace(agentID) == "" {
		return nil
	}
	records, err := s.store.List(ctx, agentID)
	if err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("memory get_all failed")
		return nil
	}
	return records
}

func (s *DirectService) Export(ctx context.Context, agentID string) string {
	if strings.TrimSpace(agentID) == "" {
		return ""
	}
	path, err := s.store.Export(ctx, agentID)
	if err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("memory export failed")
		return ""
	}
	return path
}

// groupIDs resolves the physical record ids making up one logical memory:
// the lead record plus any trailing chunks tied to it by group id.
func (s *DirectService) groupIDs(ctx context.Context, agentID, memoryID string) ([]string, bool, error) {
	records, err := s.store.List(ctx, agentID)
	if err != nil {
		return nil, false, err
	}
	var ids []string
	found := false
	for _, r := range records {
		if r.ID == memoryID {
			found = true
			ids = append(ids, r.ID)
			continue
		}
		if chunker.GroupOf(r.Metadata) == memoryID {
			ids = append(ids, r.ID)
		}
	}
	return ids, found, nil
}

func chunkRecords(agentID, id, content string, metadata map[string]interface{}, now time.Time) []model.MemoryRecord {
	chunks := chunker.Split(id, content, metadata)
	records := make([]model.MemoryRecord, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, model.MemoryRecord{
			ID:          c.ID,
			WorkspaceID: agentID,
			Content:     c.Content,
			Metadata:    c.Metadata,
			CreatedAt:   now,
		})
	}
	return records
}
