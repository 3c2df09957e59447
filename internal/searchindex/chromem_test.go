package searchindex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgermind/ledgermind/internal/embeddings/mock"
	"github.com/ledgermind/ledgermind/internal/model"
)

func newIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	idx, err := NewChromemIndex("", mock.New())
	require.NoError(t, err)
	return idx
}

func TestUpsertSearchDelete(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	recs := []model.MemoryRecord{
		{ID: "r1", Content: "oil inventories drew down sharply", Metadata: map[string]interface{}{"ticker": "XOM"}, CreatedAt: now},
		{ID: "r2", Content: "refinery margins compressed", CreatedAt: now.Add(time.Second)},
	}
	require.NoError(t, idx.Upsert(ctx, "energy", recs))

	hits, err := idx.Search(ctx, "energy", "oil inventories drew down sharply", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.Equal(t, "r1", hits[0].ID)
	require.Equal(t, "XOM", hits[0].Metadata["ticker"])

	require.NoError(t, idx.Delete(ctx, "energy", []string{"r1"}))
	all, err := idx.List(ctx, "energy")
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "r2", all[0].ID)
}

func TestSearchAbsentWorkspace(t *testing.T) {
	idx := newIndex(t)
	hits, err := idx.Search(context.Background(), "nobody", "anything", 5)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSearchClampsTopK(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	require.NoError(t, idx.Upsert(ctx, "ws", []model.MemoryRecord{
		{ID: "only", Content: "single entry", CreatedAt: time.Now().UTC()},
	}))
	hits, err := idx.Search(ctx, "ws", "single entry", 50)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestListPreservesCreationOrderAndMetadata(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, idx.Upsert(ctx, "ws", []model.MemoryRecord{
		{ID: "b", Content: "second", Metadata: map[string]interface{}{"n": "two"}, CreatedAt: base.Add(time.Minute)},
		{ID: "a", Content: "first", Metadata: map[string]interface{}{"n": "one"}, CreatedAt: base},
	}))

	recs, err := idx.List(ctx, "ws")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "a", recs[0].ID)
	require.Equal(t, "one", recs[0].Metadata["n"])
	require.True(t, recs[0].CreatedAt.Equal(base))
}

func TestWorkspaceLifecycle(t *testing.T) {
	ctx := context.Background()
	idx := newIndex(t)

	ok, err := idx.HasWorkspace(ctx, "ws")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, idx.EnsureWorkspace(ctx, "ws"))
	ok, err = idx.HasWorkspace(ctx, "ws")
	require.NoError(t, err)
	require.True(t, ok)

	recs, err := idx.List(ctx, "ws")
	require.NoError(t, err)
	require.Empty(t, recs)
}
