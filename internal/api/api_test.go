package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/audit"
	"github.com/ledgermind/ledgermind/internal/embeddings/mock"
	"github.com/ledgermind/ledgermind/internal/memsvc"
	"github.com/ledgermind/ledgermind/internal/recordstore"
	"github.com/ledgermind/ledgermind/internal/reflection"
	"github.com/ledgermind/ledgermind/internal/registry"
	"github.com/ledgermind/ledgermind/internal/searchindex"
	"github.com/ledgermind/ledgermind/internal/signalstore/sqlite"
	"github.com/ledgermind/ledgermind/internal/tools"
)

type scriptedOracle struct {
	reply string
}

func (s *scriptedOracle) Decide(_ context.Context, _ string) (string, error) {
	return s.reply, nil
}

func newTestServer(t *testing.T, orcReply string) *httptest.Server {
	t.Helper()
	log := zerolog.Nop()

	reg := registry.New(func() (searchindex.Index, error) {
		return searchindex.NewChromemIndex("", mock.New())
	}, "", log)
	trail := audit.NewLog(t.TempDir(), "operations", log)
	svc := memsvc.NewAudited(memsvc.NewDirect(recordstore.New(reg, t.TempDir(), log), log), trail)

	signals, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(func() { _ = signals.Close() })

	toolReg := tools.NewRegistry()
	tools.RegisterMemoryTools(toolReg, svc)
	engine := reflection.NewEngine(svc, signals, &scriptedOracle{reply: orcReply}, toolReg, trail, log, reflection.Options{
		PortfolioManagerID: "portfolio_manager",
		OracleTimeout:      5 * time.Second,
		Parallelism:        2,
	})

	router := NewRouter(
		NewMemoryHandler(svc),
		NewReflectionHandler(engine, signals, trail),
		NewHealthHandler(nil),
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var payload map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func TestMemoryLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, `{"reflection_summary":"n/a","need_tool":false}`)

	resp, payload := doJSON(t, "POST", srv.URL+"/api/agents/trader/memories", map[string]interface{}{
		"content":  "rate cut priced in by December",
		"metadata": map[string]interface{}{"topic": "macro"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status %d", resp.StatusCode)
	}
	memoryID, _ := payload["memoryId"].(string)
	if memoryID == "" {
		t.Fatal("no memoryId in response")
	}

	resp, payload = doJSON(t, "POST", srv.URL+"/api/agents/trader/search", map[string]interface{}{
		"query": "rate cut priced in by December",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status %d", resp.StatusCode)
	}
	if count, _ := payload["count"].(float64); count != 1 {
		t.Fatalf("search count %v", payload["count"])
	}

	resp, _ = doJSON(t, "PUT", srv.URL+"/api/agents/trader/memories/"+memoryID, map[string]interface{}{
		"content": "rate cut pushed to Q1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/agents/trader/memories/"+memoryID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "DELETE", srv.URL+"/api/agents/trader/memories/"+memoryID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status %d", resp.StatusCode)
	}
}

func TestAddRejectsBlankContent(t *testing.T) {
	srv := newTestServer(t, `{"reflection_summary":"n/a","need_tool":false}`)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/agents/trader/memories", map[string]interface{}{
		"content": "   ",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteAllOnFreshWorkspace(t *testing.T) {
	srv := newTestServer(t, `{"reflection_summary":"n/a","need_tool":false}`)

	resp, _ := doJSON(t, "DELETE", srv.URL+"/api/agents/never-seen/memories", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestReflectionEndToEnd(t *testing.T) {
	reply := `{"reflection_summary":"bad call on X","need_tool":true,"selected_tool":{"tool_name":"add_memory","parameters":{"agent_id":"sentiment_analyst","content":"avoid overconfidence on X"},"reason":"missed reversal"}}`
	srv := newTestServer(t, reply)

	resp, _ := doJSON(t, "POST", srv.URL+"/api/signals", map[string]interface{}{
		"signals": []map[string]interface{}{{
			"agentId": "sentiment_analyst", "date": "2025-07-15", "ticker": "X",
			"action": "bullish", "confidence": 0.9,
		}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signals status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "POST", srv.URL+"/api/returns", map[string]interface{}{
		"returns": []map[string]interface{}{{"date": "2025-07-15", "ticker": "X", "return": -0.03}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("returns status %d", resp.StatusCode)
	}

	resp, payload := doJSON(t, "POST", srv.URL+"/api/reflection", map[string]string{
		"date": "2025-07-15",
		"mode": "individual_review",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reflection status %d: %v", resp.StatusCode, payload)
	}
	results, _ := payload["results"].([]interface{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %v", payload["results"])
	}
	r, _ := results[0].(map[string]interface{})
	if r["status"] != "success" || r["mutated"] != true {
		t.Fatalf("unexpected result: %v", r)
	}

	resp, payload = doJSON(t, "GET", srv.URL+"/api/agents/sentiment_analyst/memories", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", resp.StatusCode)
	}
	if count, _ := payload["count"].(float64); count != 1 {
		t.Fatalf("expected the reflection mutation to land, got %v", payload)
	}

	today := time.Now().UTC().Format("2006-01-02")
	resp, payload = doJSON(t, "GET", srv.URL+"/api/audit/"+today, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("audit status %d", resp.StatusCode)
	}
	if count, _ := payload["count"].(float64); count < 2 {
		t.Fatalf("expected façade and reflection audit entries, got %v", payload["count"])
	}
}

func TestReflectionRejectsBadMode(t *testing.T) {
	srv := newTestServer(t, `{"reflection_summary":"n/a","need_tool":false}`)
	resp, _ := doJSON(t, "POST", srv.URL+"/api/reflection", map[string]string{
		"date": "2025-07-15",
		"mode": "committee",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, `{"reflection_summary":"n/a","need_tool":false}`)
	resp, payload := doJSON(t, "GET", srv.URL+"/api/health", nil)
	if resp.StatusCode != http.StatusOK || payload["status"] != "healthy" {
		t.Fatalf("health %d %v", resp.StatusCode, payload)
	}
}
