package recordstore

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/embeddings/mock"
	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/registry"
	"github.com/ledgermind/ledgermind/internal/searchindex"
)

func newTestStore(t *testing.T, exportDir string) *Store {
	t.Helper()
	reg := registry.New(func() (searchindex.Index, error) {
		return searchindex.NewChromemIndex("", mock.New())
	}, "", zerolog.Nop())
	return New(reg, exportDir, zerolog.Nop())
}

func TestInsertAndSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "")

	rec := model.MemoryRecord{
		ID:        "m1",
		Content:   "AAPL earnings beat expectations in Q3",
		Metadata:  map[string]interface{}{"ticker": "AAPL"},
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Insert(ctx, "trader", []model.MemoryRecord{rec}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hits, err := store.Search(ctx, "trader", "AAPL earnings beat expectations in Q3", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].ID != "m1" || hits[0].Content != rec.Content {
		t.Fatalf("unexpected hit: %+v", hits[0])
	}
	if hits[0].Metadata["ticker"] != "AAPL" {
		t.Fatalf("metadata did not round-trip: %+v", hits[0].Metadata)
	}
}

func TestSearchBlankQueryReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "")

	for _, q := range []string{"", "   ", "\t\n"} {
		hits, err := store.Search(ctx, "trader", q, 5)
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(hits) != 0 {
			t.Fatalf("Search(%q): expected no hits, got %d", q, len(hits))
		}
	}
}

func TestSearchAbsentWorkspaceReturnsEmpty(t *testing.T) {
	store := newTestStore(t, "")
	hits, err := store.Search(context.Background(), "nobody", "anything", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestDeleteAndExists(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "")

	recs := []model.MemoryRecord{
		{ID: "a", Content: "keep this", CreatedAt: time.Now().UTC()},
		{ID: "b", Content: "drop this", CreatedAt: time.Now().UTC()},
	}
	if err := store.Insert(ctx, "trader", recs); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := store.Delete(ctx, "trader", []string{"b", "never-existed"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	ok, err := store.Exists(ctx, "trader", "a")
	if err != nil || !ok {
		t.Fatalf("Exists(a): ok=%v err=%v", ok, err)
	}
	ok, err = store.Exists(ctx, "trader", "b")
	if err != nil || ok {
		t.Fatalf("Exists(b): ok=%v err=%v", ok, err)
	}
}

func TestExistsWorkspace(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "")

	ok, err := store.ExistsWorkspace(ctx, "trader")
	if err != nil {
		t.Fatalf("ExistsWorkspace: %v", err)
	}
	if ok {
		t.Fatal("workspace should not exist before first insert")
	}

	if err := store.Insert(ctx, "trader", []model.MemoryRecord{
		{ID: "m", Content: "note", CreatedAt: time.Now().UTC()},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	ok, err = store.ExistsWorkspace(ctx, "trader")
	if err != nil || !ok {
		t.Fatalf("ExistsWorkspace after insert: ok=%v err=%v", ok, err)
	}
}

func TestListOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, "")

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recs := []model.MemoryRecord{
		{ID: "later", Content: "second note", CreatedAt: base.Add(time.Hour)},
		{ID: "earlier", Content: "first note", CreatedAt: base},
	}
	if err := store.Insert(ctx, "trader", recs); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.List(ctx, "trader")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != "earlier" || got[1].ID != "later" {
		t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestExportWritesJSONLSnapshot(t *testing.T) {
	ctx := context.Background()
	exportDir := t.TempDir()
	store := newTestStore(t, exportDir)

	if err := store.Insert(ctx, "trader", []model.MemoryRecord{
		{ID: "x", Content: "one", CreatedAt: time.Now().UTC()},
		{ID: "y", Content: "two", CreatedAt: time.Now().UTC()},
	}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	path, err := store.Export(ctx, "trader")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if path != filepath.Join(exportDir, "trader.jsonl") {
		t.Fatalf("unexpected export path %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if len(sc.Bytes()) > 0 {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 snapshot lines, got %d", lines)
	}
}

func TestFailuresCarryStoreError(t *testing.T) {
	reg := registry.New(func() (searchindex.Index, error) {
		return nil, os.ErrPermission
	}, "", zerolog.Nop())
	store := New(reg, "", zerolog.Nop())

	err := store.Insert(context.Background(), "trader", []model.MemoryRecord{{ID: "m", Content: "c"}})
	if !model.IsStoreError(err) {
		t.Fatalf("expected store error, got %v", err)
	}
}
