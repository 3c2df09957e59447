// Package reflection implements the policy layer that revises agent memory
// after each trading day. It evaluates realized outcomes, consults the
// decision oracle, enforces that an agent only mutates its own memory, and
// executes at most one tool call per review.
package reflection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/memsvc"
	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/oracle"
	"github.com/ledgermind/ledgermind/internal/signalstore"
	"github.com/ledgermind/ledgermind/internal/tools"
)

// Review modes.
const (
	ModeCentral    = "central_review"
	ModeIndividual = "individual_review"
)

// memoryContextLimit caps how many existing memory entries are shown to the
// oracle per review.
const memoryContextLimit = 20

// Options tunes the engine.
type Options struct {
	// PortfolioManagerID is the agent id holding the portfolio-manager role.
	PortfolioManagerID string
	// OracleTimeout bounds one oracle round-trip. Zero means 60s.
	OracleTimeout time.Duration
	// Parallelism bounds concurrent per-agent reviews. Zero means 1.
	Parallelism int
}

// Engine runs reflection batches. One Engine instance is safe for concurrent
// Run calls; the workspace registry underneath is the only shared state.
type Engine struct {
	memory  memsvc.Service
	signals signalstore.Store
	oracle  oracle.Oracle
	tools   *tools.Registry
	audit   memsvc.Recorder
	log     zerolog.Logger
	opts    Options
}

// NewEngine wires an Engine. audit may be nil to disable the trail.
func NewEngine(memory memsvc.Service, signals signalstore.Store, orc oracle.Oracle, reg *tools.Registry, audit memsvc.Recorder, log zerolog.Logger, opts Options) *Engine {
	if opts.OracleTimeout <= 0 {
		opts.OracleTimeout = 60 * time.Second
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	return &Engine{memory: memory, signals: signals, oracle: orc, tools: reg, audit: audit, log: log, opts: opts}
}

// Run executes one reflection batch for a trading day. It always returns one
// result per reviewed agent; a failing agent is reported as failed alongside
// its successful peers.
func (e *Engine) Run(ctx context.Context, date, mode string) ([]model.ReflectionResult, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, model.NewValidationError("date", fmt.Sprintf("want YYYY-MM-DD, got %q", date))
	}

	daySignals, err := e.signals.SignalsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	returns, err := e.signals.ReturnsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	trades, err := e.signals.TradesForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	agents := agentUnion(daySignals)
	if len(trades) > 0 && !contains(agents, e.opts.PortfolioManagerID) {
		agents = append(agents, e.opts.PortfolioManagerID)
		sort.Strings(agents)
	}
	allowed := make(map[string]bool, len(agents))
	for _, a := range agents {
		allowed[a] = true
	}

	switch mode {
	case ModeCentral:
		// One decision over the union of all agents' signals, issued under
		// the portfolio manager's identity.
		res := e.reviewOne(ctx, e.opts.PortfolioManagerID, date, mode, daySignals, returns, trades, allowed)
		return []model.ReflectionResult{res}, nil
	case ModeIndividual:
		return e.runIndividual(ctx, date, agents, daySignals, returns, trades), nil
	default:
		return nil, model.NewValidationError("mode", fmt.Sprintf("unknown review mode %q", mode))
	}
}

func (e *Engine) runIndividual(ctx context.Context, date string, agents []string, daySignals []model.Signal, returns []model.TickerReturn, trades []model.Trade) []model.ReflectionResult {
	results := make([]model.ReflectionResult, len(agents))
	sem := make(chan struct{}, e.opts.Parallelism)
	var wg sync.WaitGroup
	for i, agentID := range agents {
		wg.Add(1)
		go func(i int, agentID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			own := make([]model.Signal, 0, len(daySignals))
			for _, s := range daySignals {
				if s.AgentID == agentID {
					own = append(own, s)
				}
			}
			var ownTrades []model.Trade
			if agentID == e.opts.PortfolioManagerID {
				ownTrades = trades
			}
			results[i] = e.reviewOne(ctx, agentID, date, ModeIndividual, own, returns, ownTrades, map[string]bool{agentID: true})
		}(i, agentID)
	}
	wg.Wait()
	return results
}

// reviewOne runs the Record, Evaluate, Decide, Authorize, Execute sequence
// for one review subject. Panics are contained here so one agent cannot
// abort the batch.
func (e *Engine) reviewOne(ctx context.Context, agentID, date, mode string, signals []model.Signal, returns []model.TickerReturn, trades []model.Trade, allowed map[string]bool) (result model.ReflectionResult) {
	result = model.ReflectionResult{AgentID: agentID, Status: model.ReflectionStatusSuccess}
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().Str("agent", agentID).Str("date", date).Interface("panic", rec).Msg("reflection review panicked")
			result = model.ReflectionResult{
				AgentID: agentID,
				Status:  model.ReflectionStatusFailed,
				Error:   fmt.Sprintf("review panicked: %v", rec),
			}
		}
	}()

	// The Record step belongs to individual reviews only; a central review
	// starts at Evaluate.
	if mode == ModeIndividual && agentID == e.opts.PortfolioManagerID {
		e.recordManagerDecisions(ctx, agentID, date, signals)
	}

	rc := reviewContext{
		AgentID: agentID,
		Date:    date,
		Signals: scoreSignals(signals, returns),
		Trades:  trades,
	}
	if mems := e.memory.GetAll(ctx, agentID); len(mems) > memoryContextLimit {
		rc.Memories = mems[len(mems)-memoryContextLimit:]
	} else {
		rc.Memories = mems
	}

	decision := e.decide(ctx, agentID, renderPrompt(rc, e.tools.Names()))
	result.Summary = decision.ReflectionSummary

	if !decision.NeedTool || decision.SelectedTool == nil {
		return result
	}

	target := toolTarget(decision.SelectedTool.Parameters)
	if !allowed[target] {
		authErr := model.AuthorizationError{AgentID: target, TargetID: agentID}
		e.log.Warn().Str("agent", agentID).Str("target", target).Str("tool", decision.SelectedTool.ToolName).
			Msg("cross-agent mutation rejected")
		e.record(ctx, model.AuditEntry{
			AgentID:       agentID,
			OperationType: "reflection_rejected",
			ToolName:      decision.SelectedTool.ToolName,
			Args:          decision.SelectedTool.Parameters,
			Result:        authErr.Error(),
			Context:       mode,
		})
		return result
	}

	res := e.tools.Call(ctx, decision.SelectedTool.ToolName, decision.SelectedTool.Parameters)
	e.record(ctx, model.AuditEntry{
		AgentID:       agentID,
		OperationType: "reflection_mutation",
		ToolName:      decision.SelectedTool.ToolName,
		Args:          decision.SelectedTool.Parameters,
		Result:        res.Status,
		Context:       mode,
	})

	result.Tool = decision.SelectedTool.ToolName
	if res.Status != tools.StatusOK {
		result.Status = model.ReflectionStatusFailed
		result.Error = res.Error
		return result
	}
	result.Mutated = true
	return result
}

// recordManagerDecisions persists the portfolio manager's daily decisions as
// memory entries. Always an add, never conditional.
func (e *Engine) recordManagerDecisions(ctx context.Context, agentID, date string, signals []model.Signal) {
	for _, s := range signals {
		content := fmt.Sprintf("Decision on %s for %s: %s (confidence %.2f). %s",
			date, s.Ticker, s.Action, s.Confidence, s.Reasoning)
		id := e.memory.Add(ctx, agentID, content, map[string]interface{}{
			"type":       "daily_decision",
			"date":       date,
			"ticker":     s.Ticker,
			"action":     s.Action,
			"confidence": s.Confidence,
		})
		if id == "" {
			e.log.Warn().Str("agent", agentID).Str("ticker", s.Ticker).Msg("failed to persist daily decision")
		}
	}
}

// decide runs the oracle under its timeout. Transport errors and timeouts
// degrade to a no-mutation decision, identical to a parse failure.
func (e *Engine) decide(ctx context.Context, agentID, prompt string) oracle.Decision {
	octx, cancel := context.WithTimeout(ctx, e.opts.OracleTimeout)
	defer cancel()

	raw, err := e.oracle.Decide(octx, prompt)
	if err != nil {
		e.log.Warn().Err(err).Str("agent", agentID).Msg("oracle call failed, skipping mutation")
		return oracle.Decision{ReflectionSummary: fmt.Sprintf("oracle unavailable: %v", err)}
	}
	decision, err := oracle.ExtractDecision(raw)
	if err != nil {
		e.log.Warn().Err(err).Str("agent", agentID).Msg("oracle output unparseable, skipping mutation")
	}
	return decision
}

func (e *Engine) record(ctx context.Context, entry model.AuditEntry) {
	if e.audit != nil {
		e.audit.Record(ctx, entry)
	}
}

// toolTarget extracts the agent identity embedded in tool parameters. Both
// parameter spellings are accepted; absence yields "".
func toolTarget(params map[string]interface{}) string {
	if s, ok := params["agent_id"].(string); ok && s != "" {
		return s
	}
	if s, ok := params["analyst_id"].(string); ok && s != "" {
		return s
	}
	return ""
}

func agentUnion(signals []model.Signal) []string {
	seen := make(map[string]bool)
	var agents []string
	for _, s := range signals {
		if !seen[s.AgentID] {
			seen[s.AgentID] = true
			agents = append(agents, s.AgentID)
		}
	}
	sort.Strings(agents)
	return agents
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
