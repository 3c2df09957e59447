package reflection

import (
	"fmt"
	"strings"

	"github.com/ledgermind/ledgermind/internal/model"
)

// reviewContext is everything the oracle sees about one review subject:
// the day's signals scored against realized returns, plus portfolio trades
// when the subject manages the book.
type reviewContext struct {
	AgentID  string
	Date     string
	Signals  []scoredSignal
	Trades   []model.Trade
	Memories []model.MemoryRecord
}

type scoredSignal struct {
	Signal    model.Signal
	Return    float64
	HasReturn bool
	Correct   bool
}

func scoreSignals(signals []model.Signal, returns []model.TickerReturn) []scoredSignal {
	byTicker := make(map[string]float64, len(returns))
	for _, r := range returns {
		byTicker[r.Ticker] = r.Return
	}
	out := make([]scoredSignal, 0, len(signals))
	for _, s := range signals {
		ret, ok := byTicker[s.Ticker]
		out = append(out, scoredSignal{
			Signal:    s,
			Return:    ret,
			HasReturn: ok,
			Correct:   ok && EvaluateSignal(s.Action, ret),
		})
	}
	return out
}

// renderPrompt builds the textual review request. The oracle's reply is free
// text expected to contain one JSON object with reflection_summary,
// need_tool, and, when need_tool is true, selected_tool.
func renderPrompt(rc reviewContext, toolNames []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are reviewing the trading day %s for agent %q.\n\n", rc.Date, rc.AgentID)

	if len(rc.Signals) == 0 {
		b.WriteString("The agent issued no signals that day.\n")
	} else {
		b.WriteString("Signals and outcomes:\n")
		for _, s := range rc.Signals {
			verdict := "no realized return available"
			if s.HasReturn {
				verdict = fmt.Sprintf("realized return %+.4f, call was %s", s.Return, correctness(s.Correct))
			}
			fmt.Fprintf(&b, "- agent %s: %s on %s (confidence %.2f): %s\n",
				s.Signal.AgentID, s.Signal.Action, s.Signal.Ticker, s.Signal.Confidence, verdict)
			if s.Signal.Reasoning != "" {
				fmt.Fprintf(&b, "  reasoning: %s\n", s.Signal.Reasoning)
			}
		}
	}

	if len(rc.Trades) > 0 {
		b.WriteString("\nExecuted trades:\n")
		for _, t := range rc.Trades {
			fmt.Fprintf(&b, "- %s %.2f %s at %.2f\n", t.Action, t.Quantity, t.Ticker, t.Price)
		}
	}

	if len(rc.Memories) > 0 {
		b.WriteString("\nCurrent memory entries (id: content):\n")
		for _, m := range rc.Memories {
			fmt.Fprintf(&b, "- %s: %s\n", m.ID, snippet(m.Content, 200))
		}
	}

	b.WriteString("\nDecide whether the agent's long-term memory should change based on these outcomes.\n")
	fmt.Fprintf(&b, "Available tools: %s.\n", strings.Join(toolNames, ", "))
	fmt.Fprintf(&b, "Tool parameters must include agent_id (%q for this review).\n", rc.AgentID)
	b.WriteString("Reply with a single JSON object: " +
		`{"reflection_summary": string, "need_tool": bool, "selected_tool": {"tool_name": string, "parameters": object, "reason": string}}` +
		". Omit selected_tool when need_tool is false.\n")

	return b.String()
}

func correctness(ok bool) string {
	if ok {
		return "correct"
	}
	return "incorrect"
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
