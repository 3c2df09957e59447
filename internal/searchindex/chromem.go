package searchindex

import (
	"context"
	"runtime"
	"sort"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github.com/ledgermind/ledgermind/internal/embeddings"
	"github.com/ledgermind/ledgermind/internal/model"
)

// listProbe is the query text used to enumerate a whole collection.
// chromem has no document listing API; querying with nResults equal to the
// collection size returns every document, ranking aside.
const listProbe = "workspace enumeration probe"

// ChromemIndex is an Index backed by chromem-go, a pure Go embedded vector
// database. One collection per workspace; one persisted store per directory.
type ChromemIndex struct {
	db    *chromem.DB
	embed embeddings.Provider
}

// NewChromemIndex opens (or creates) a persistent chromem store at dir. An
// empty dir yields an in-memory store, used by tests.
func NewChromemIndex(dir string, embed embeddings.Provider) (*ChromemIndex, error) {
	if dir == "" {
		return &ChromemIndex{db: chromem.NewDB(), embed: embed}, nil
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, err
	}
	return &ChromemIndex{db: db, embed: embed}, nil
}

func (x *ChromemIndex) embedFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return x.embed.Embed(ctx, text)
	}
}

func collectionName(workspaceID string) string { return "ws-" + workspaceID }

func (x *ChromemIndex) EnsureWorkspace(ctx context.Context, workspaceID string) error {
	_, err := x.db.GetOrCreateCollection(collectionName(workspaceID), nil, x.embedFunc())
	return err
}

func (x *ChromemIndex) HasWorkspace(ctx context.Context, workspaceID string) (bool, error) {
	return x.db.GetCollection(collectionName(workspaceID), x.embedFunc()) != nil, nil
}

func (x *ChromemIndex) Upsert(ctx context.Context, workspaceID string, records []model.MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	col, err := x.db.GetOrCreateCollection(collectionName(workspaceID), nil, x.embedFunc())
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, chromem.Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: encodeMeta(r.Metadata, r.CreatedAt),
		})
	}
	return col.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (x *ChromemIndex) Search(ctx context.Context, workspaceID, query string, topK int) ([]model.SearchHit, error) {
	col := x.db.GetCollection(collectionName(workspaceID), x.embedFunc())
	if col == nil {
		return nil, nil
	}
	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}

	results, err := col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, err
	}

	hits := make([]model.SearchHit, 0, len(results))
	for _, r := range results {
		meta, _ := decodeMeta(r.Metadata)
		hits = append(hits, model.SearchHit{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: meta,
			Score:    float64(r.Similarity),
		})
	}
	return hits, nil
}

func (x *ChromemIndex) Delete(ctx context.Context, workspaceID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	col := x.db.GetCollection(collectionName(workspaceID), x.embedFunc())
	if col == nil {
		return nil
	}
	return col.Delete(ctx, nil, nil, ids...)
}

func (x *ChromemIndex) List(ctx context.Context, workspaceID string) ([]model.MemoryRecord, error) {
	col := x.db.GetCollection(collectionName(workspaceID), x.embedFunc())
	if col == nil {
		return nil, nil
	}
	n := col.Count()
	if n == 0 {
		return nil, nil
	}

	results, err := col.Query(ctx, listProbe, n, nil, nil)
	if err != nil {
		return nil, err
	}

	records := make([]model.MemoryRecord, 0, len(results))
	for _, r := range results {
		meta, createdAt := decodeMeta(r.Metadata)
		records = append(records, model.MemoryRecord{
			ID:          r.ID,
			WorkspaceID: workspaceID,
			Content:     r.Content,
			Metadata:    meta,
			CreatedAt:   createdAt,
		})
	}
	// Similarity order against the probe is meaningless; return insertion-time order.
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// HealthPing verifies the embedder is reachable; chromem itself is in-process.
func (x *ChromemIndex) HealthPing(ctx context.Context) error {
	if p, ok := x.embed.(interface{ HealthPing(context.Context) error }); ok {
		return p.HealthPing(ctx)
	}
	if _, err := x.embed.Embed(ctx, "ping"); err != nil {
		log.Warn().Err(err).Msg("embedder ping failed")
		return err
	}
	return nil
}
