package searchindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
	filters "github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	gql "github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/ledgermind/ledgermind/internal/embeddings"
	"github.com/ledgermind/ledgermind/internal/model"
)

const chunkClass = "MemoryChunk"

// listLimit bounds workspace enumeration against a remote index.
const listLimit = 10000

// WeaviateIndex is an Index backed by a remote Weaviate instance. Workspace
// isolation is by property filter rather than physical partition; record ids
// map deterministically onto Weaviate object UUIDs.
type WeaviateIndex struct {
	client  *weaviate.Client
	embed   embeddings.Provider
	baseURL string // host:port without scheme
}

// NewWeaviateIndex constructs an Index backed by Weaviate at baseURL
// (host:port, without scheme) and ensures the chunk class exists.
func NewWeaviateIndex(ctx context.Context, baseURL string, embed embeddings.Provider) (*WeaviateIndex, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	w := &WeaviateIndex{client: cl, embed: embed, baseURL: baseURL}
	if err := w.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *WeaviateIndex) ensureSchema(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if ex, err := w.client.Schema().ClassGetter().WithClassName(chunkClass).Do(cctx); err == nil && ex != nil {
		return nil
	}
	cls := &models.Class{
		Class:      chunkClass,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "recordId", DataType: []string{"text"}},
			{Name: "workspaceId", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "meta", DataType: []string{"text"}},
			{Name: "createdAt", DataType: []string{"date"}},
		},
	}
	if err := w.client.Schema().ClassCreator().WithClass(cls).Do(cctx); err != nil {
		return fmt.Errorf("create class %s: %w", chunkClass, err)
	}
	return nil
}

// objectID derives a stable Weaviate object UUID from workspace and record id,
// making Upsert idempotent per record id.
func objectID(workspaceID, recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(workspaceID+"/"+recordID)).String()
}

func (w *WeaviateIndex) EnsureWorkspace(ctx context.Context, workspaceID string) error {
	// Workspaces are property-scoped; the class is the only physical artifact.
	return nil
}

func (w *WeaviateIndex) HasWorkspace(ctx context.Context, workspaceID string) (bool, error) {
	recs, err := w.List(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	return len(recs) > 0, nil
}

func (w *WeaviateIndex) Upsert(ctx context.Context, workspaceID string, records []model.MemoryRecord) error {
	for _, r := range records {
		vec, err := w.embed.Embed(ctx, r.Content)
		if err != nil {
			return err
		}
		oid := objectID(workspaceID, r.ID)

		metaJSON := ""
		if len(r.Metadata) > 0 {
			if b, err := json.Marshal(r.Metadata); err == nil {
				metaJSON = string(b)
			}
		}
		props := map[string]interface{}{
			"recordId":    r.ID,
			"workspaceId": workspaceID,
			"content":     r.Content,
			"meta":        metaJSON,
			"createdAt":   r.CreatedAt.UTC().Format(time.RFC3339),
		}

		// Insert-with-same-id is an overwrite, so clear any prior object first.
		_ = w.client.Data().Deleter().WithClassName(chunkClass).WithID(oid).Do(ctx)
		if _, err := w.client.Data().Creator().
			WithClassName(chunkClass).
			WithID(oid).
			WithProperties(props).
			WithVector(vec).
			Do(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (w *WeaviateIndex) Search(ctx context.Context, workspaceID, query string, topK int) ([]model.SearchHit, error) {
	vec, err := w.embed.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hy := (&gql.HybridArgumentBuilder{}).
		WithQuery(query).
		WithVector(vec).
		WithProperties([]string{"content"})

	where := filters.Where().WithPath([]string{"workspaceId"}).WithOperator(filters.Equal).WithValueText(workspaceID)

	resp, err := w.client.GraphQL().Get().
		WithClassName(chunkClass).
		WithWhere(where).
		WithHybrid(hy).
		WithLimit(topK).
		WithFields(
			gql.Field{Name: "recordId"},
			gql.Field{Name: "content"},
			gql.Field{Name: "meta"},
			gql.Field{Name: "_additional", Fields: []gql.Field{{Name: "score"}}},
		).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	raw := extractObjects(resp.Data)
	hits := make([]model.SearchHit, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		var score float64
		if add, ok := m["_additional"].(map[string]interface{}); ok {
			switch v := add["score"].(type) {
			case float64:
				score = v
			case string:
				score, _ = strconv.ParseFloat(v, 64)
			}
		}
		hits = append(hits, model.SearchHit{
			ID:       safeString(m["recordId"]),
			Content:  safeString(m["content"]),
			Metadata: parseMetaJSON(safeString(m["meta"])),
			Score:    score,
		})
	}
	return hits, nil
}

func (w *WeaviateIndex) Delete(ctx context.Context, workspaceID string, ids []string) error {
	for _, id := range ids {
		if id == "" {
			continue
		}
		// Missing ids are ignored by contract.
		_ = w.client.Data().Deleter().WithClassName(chunkClass).WithID(objectID(workspaceID, id)).Do(ctx)
	}
	return nil
}

func (w *WeaviateIndex) List(ctx context.Context, workspaceID string) ([]model.MemoryRecord, error) {
	where := filters.Where().WithPath([]string{"workspaceId"}).WithOperator(filters.Equal).WithValueText(workspaceID)

	resp, err := w.client.GraphQL().Get().
		WithClassName(chunkClass).
		WithWhere(where).
		WithLimit(listLimit).
		WithFields(
			gql.Field{Name: "recordId"},
			gql.Field{Name: "content"},
			gql.Field{Name: "meta"},
			gql.Field{Name: "createdAt"},
		).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate graphql: %s", formatGraphQLErrors(resp.Errors))
	}

	raw := extractObjects(resp.Data)
	records := make([]model.MemoryRecord, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		ts, _ := time.Parse(time.RFC3339, safeString(m["createdAt"]))
		records = append(records, model.MemoryRecord{
			ID:          safeString(m["recordId"]),
			WorkspaceID: workspaceID,
			Content:     safeString(m["content"]),
			Metadata:    parseMetaJSON(safeString(m["meta"])),
			CreatedAt:   ts,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// HealthPing calls GET http://<baseURL>/v1/meta and expects 200 OK.
func (w *WeaviateIndex) HealthPing(ctx context.Context) error {
	if w == nil || w.baseURL == "" {
		return fmt.Errorf("weaviate baseURL missing")
	}
	url := w.baseURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/meta", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weaviate status %d", resp.StatusCode)
	}
	return nil
}

func extractObjects(data map[string]models.JSONObject) []interface{} {
	getData, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	arr, ok := getData[chunkClass].([]interface{})
	if !ok {
		if getData[chunkClass] != nil {
			log.Warn().Interface("value", getData[chunkClass]).Msg("weaviate Get payload is not an array")
		}
		return nil
	}
	return arr
}

func safeString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func parseMetaJSON(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var meta map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	return meta
}

// formatGraphQLErrors returns a compact string with messages extracted for logging.
func formatGraphQLErrors(errs interface{}) string {
	if b, err := json.Marshal(errs); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", errs)
}
