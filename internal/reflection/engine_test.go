package reflection

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/embeddings/mock"
	"github.com/ledgermind/ledgermind/internal/memsvc"
	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/recordstore"
	"github.com/ledgermind/ledgermind/internal/registry"
	"github.com/ledgermind/ledgermind/internal/searchindex"
	"github.com/ledgermind/ledgermind/internal/signalstore/sqlite"
	"github.com/ledgermind/ledgermind/internal/tools"
)

const testDate = "2025-07-15"

type fakeOracle struct {
	fn func(prompt string) (string, error)
}

func (f *fakeOracle) Decide(_ context.Context, prompt string) (string, error) {
	return f.fn(prompt)
}

type captureSink struct {
	entries []model.AuditEntry
}

func (c *captureSink) Record(_ context.Context, e model.AuditEntry) {
	c.entries = append(c.entries, e)
}

type fixture struct {
	engine  *Engine
	memory  memsvc.Service
	signals *sqlite.Store
	audit   *captureSink
}

func newFixture(t *testing.T, orc *fakeOracle, opts Options) *fixture {
	t.Helper()
	idxReg := registry.New(func() (searchindex.Index, error) {
		return searchindex.NewChromemIndex("", mock.New())
	}, "", zerolog.Nop())
	svc := memsvc.NewDirect(recordstore.New(idxReg, "", zerolog.Nop()), zerolog.Nop())

	sigs, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sigs.Close() })

	reg := tools.NewRegistry()
	tools.RegisterMemoryTools(reg, svc)

	sink := &captureSink{}
	if opts.PortfolioManagerID == "" {
		opts.PortfolioManagerID = "portfolio_manager"
	}
	if opts.OracleTimeout == 0 {
		opts.OracleTimeout = 5 * time.Second
	}
	return &fixture{
		engine:  NewEngine(svc, sigs, orc, reg, sink, zerolog.Nop(), opts),
		memory:  svc,
		signals: sigs,
		audit:   sink,
	}
}

func seedSignal(t *testing.T, f *fixture, agentID, ticker, action string, ret float64) {
	t.Helper()
	ctx := context.Background()
	if err := f.signals.SaveSignal(ctx, model.Signal{
		AgentID: agentID, Date: testDate, Ticker: ticker, Action: action, Confidence: 0.8,
	}); err != nil {
		t.Fatal(err)
	}
	if err := f.signals.SaveReturn(ctx, model.TickerReturn{Date: testDate, Ticker: ticker, Return: ret}); err != nil {
		t.Fatal(err)
	}
}

func decisionJSON(tool, agentID, content string) string {
	return fmt.Sprintf(`{"reflection_summary":"reviewed","need_tool":true,"selected_tool":{"tool_name":%q,"parameters":{"agent_id":%q,"content":%q},"reason":"outcome driven"}}`,
		tool, agentID, content)
}

func TestIndividualReviewExecutesAuthorizedMutation(t *testing.T) {
	ctx := context.Background()
	orc := &fakeOracle{fn: func(prompt string) (string, error) {
		return "Review complete.\n```json\n" + decisionJSON("add_memory", "sentiment_analyst", "bullish call on X confirmed") + "\n```", nil
	}}
	f := newFixture(t, orc, Options{})
	seedSignal(t, f, "sentiment_analyst", "X", "bullish", 0.012)

	results, err := f.engine.Run(ctx, testDate, ModeIndividual)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Status != model.ReflectionStatusSuccess || !r.Mutated || r.Tool != "add_memory" {
		t.Fatalf("unexpected result: %+v", r)
	}

	recs := f.memory.GetAll(ctx, "sentiment_analyst")
	if len(recs) != 1 || recs[0].Content != "bullish call on X confirmed" {
		t.Fatalf("mutation not applied: %+v", recs)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].OperationType != "reflection_mutation" {
		t.Fatalf("expected one mutation audit entry, got %+v", f.audit.entries)
	}
}

func TestCrossAgentMutationRejected(t *testing.T) {
	ctx := context.Background()
	orc := &fakeOracle{fn: func(prompt string) (string, error) {
		return decisionJSON("add_memory", "risk_manager", "planted note"), nil
	}}
	f := newFixture(t, orc, Options{})
	seedSignal(t, f, "sentiment_analyst", "X", "bearish", 0.012)

	results, err := f.engine.Run(ctx, testDate, ModeIndividual)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := results[0]
	if r.Status != model.ReflectionStatusSuccess || r.Mutated {
		t.Fatalf("rejected mutation must not count as executed: %+v", r)
	}

	if recs := f.memory.GetAll(ctx, "risk_manager"); len(recs) != 0 {
		t.Fatalf("cross-agent mutation was executed: %+v", recs)
	}
	if recs := f.memory.GetAll(ctx, "sentiment_analyst"); len(recs) != 0 {
		t.Fatalf("rejected mutation was redirected: %+v", recs)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].OperationType != "reflection_rejected" {
		t.Fatalf("expected a rejection audit entry, got %+v", f.audit.entries)
	}
}

func TestOracleFailureDegradesToNoMutation(t *testing.T) {
	orc := &fakeOracle{fn: func(prompt string) (string, error) {
		return "", fmt.Errorf("upstream 529")
	}}
	f := newFixture(t, orc, Options{})
	seedSignal(t, f, "sentiment_analyst", "X", "bullish", 0.012)

	results, err := f.engine.Run(context.Background(), testDate, ModeIndividual)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := results[0]
	if r.Status != model.ReflectionStatusSuccess || r.Mutated {
		t.Fatalf("oracle failure must degrade, not fail the agent: %+v", r)
	}
	if !strings.Contains(r.Summary, "oracle unavailable") {
		t.Fatalf("summary should carry the degradation reason, got %q", r.Summary)
	}
}

func TestUnparseableOracleOutputFallsBack(t *testing.T) {
	raw := "I have thoughts but no structure."
	orc := &fakeOracle{fn: func(prompt string) (string, error) { return raw, nil }}
	f := newFixture(t, orc, Options{})
	seedSignal(t, f, "sentiment_analyst", "X", "neutral", 0.001)

	results, err := f.engine.Run(context.Background(), testDate, ModeIndividual)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Summary != raw {
		t.Fatalf("fallback summary should be the raw text, got %q", results[0].Summary)
	}
	if results[0].Mutated {
		t.Fatal("fallback must not mutate")
	}
}

func TestAgentFailureDoesNotAbortPeers(t *testing.T) {
	orc := &fakeOracle{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, `"doomed"`) {
			panic("oracle client corrupted")
		}
		return `{"reflection_summary":"fine","need_tool":false}`, nil
	}}
	f := newFixture(t, orc, Options{Parallelism: 2})
	seedSignal(t, f, "doomed", "X", "bullish", 0.012)
	seedSignal(t, f, "steady", "Y", "bearish", -0.02)

	results, err := f.engine.Run(context.Background(), testDate, ModeIndividual)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected results for both agents, got %d", len(results))
	}
	byAgent := map[string]model.ReflectionResult{}
	for _, r := range results {
		byAgent[r.AgentID] = r
	}
	if byAgent["doomed"].Status != model.ReflectionStatusFailed {
		t.Fatalf("doomed agent should fail: %+v", byAgent["doomed"])
	}
	if byAgent["steady"].Status != model.ReflectionStatusSuccess {
		t.Fatalf("steady agent should succeed: %+v", byAgent["steady"])
	}
}

func TestManagerDailyDecisionsAreRecorded(t *testing.T) {
	ctx := context.Background()
	orc := &fakeOracle{fn: func(prompt string) (string, error) {
		return `{"reflection_summary":"nothing to change","need_tool":false}`, nil
	}}
	f := newFixture(t, orc, Options{})
	seedSignal(t, f, "portfolio_manager", "AAPL", "buy", 0.015)
	seedSignal(t, f, "portfolio_manager", "NVDA", "hold", 0.001)

	if _, err := f.engine.Run(ctx, testDate, ModeIndividual); err != nil {
		t.Fatalf("Run: %v", err)
	}

	recs := f.memory.GetAll(ctx, "portfolio_manager")
	if len(recs) != 2 {
		t.Fatalf("expected 2 daily decision memories, got %d", len(recs))
	}
	for _, r := range recs {
		if r.Metadata["type"] != "daily_decision" || r.Metadata["date"] != testDate {
			t.Fatalf("missing daily decision tags: %+v", r.Metadata)
		}
	}
}

func TestCentralReviewCoversAgentUnion(t *testing.T) {
	ctx := context.Background()
	orc := &fakeOracle{fn: func(prompt string) (string, error) {
		// The central reviewer may target any agent reviewed that day.
		return decisionJSON("add_memory", "sentiment_analyst", "central note for the analyst"), nil
	}}
	f := newFixture(t, orc, Options{})
	seedSignal(t, f, "sentiment_analyst", "X", "bullish", 0.012)
	seedSignal(t, f, "risk_manager", "X", "neutral", 0.012)

	results, err := f.engine.Run(ctx, testDate, ModeCentral)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("central review yields one result, got %d", len(results))
	}
	if results[0].AgentID != "portfolio_manager" || !results[0].Mutated {
		t.Fatalf("unexpected central result: %+v", results[0])
	}
	if recs := f.memory.GetAll(ctx, "sentiment_analyst"); len(recs) != 1 {
		t.Fatalf("central mutation not applied: %+v", recs)
	}
}

func TestRunValidatesInput(t *testing.T) {
	orc := &fakeOracle{fn: func(prompt string) (string, error) { return "", nil }}
	f := newFixture(t, orc, Options{})

	if _, err := f.engine.Run(context.Background(), "15/07/2025", ModeIndividual); !model.IsValidationError(err) {
		t.Fatalf("expected validation error for bad date, got %v", err)
	}
	if _, err := f.engine.Run(context.Background(), testDate, "committee_review"); !model.IsValidationError(err) {
		t.Fatalf("expected validation error for bad mode, got %v", err)
	}
}
