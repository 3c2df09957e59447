package model

import "time"

// MemoryRecord is one physically stored unit of agent memory. Oversized
// content is split into several records that share a chunk group (see the
// chunker package); the first record's ID doubles as the logical memory id.
type MemoryRecord struct {
	ID          string                 `json:"id"`
	WorkspaceID string                 `json:"workspaceId"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// SearchHit is a similarity-ranked record returned from the index.
// Matches rank per chunk, not per logical memory.
type SearchHit struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Score    float64                `json:"score"`
}

// Signal is one agent's stance on a ticker for a trading day.
type Signal struct {
	AgentID    string  `json:"agentId"`
	Date       string  `json:"date"` // YYYY-MM-DD
	Ticker     string  `json:"ticker"`
	Action     string  `json:"action"` // bullish/bearish/neutral or buy/sell/hold
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// TickerReturn is the realized return of a ticker over a trading day,
// expressed as a fraction (0.012 == +1.2%).
type TickerReturn struct {
	Date   string  `json:"date"`
	Ticker string  `json:"ticker"`
	Return float64 `json:"return"`
}

// Trade is an executed portfolio action for a trading day.
type Trade struct {
	Date     string  `json:"date"`
	Ticker   string  `json:"ticker"`
	Action   string  `json:"action"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// ReflectionDecision is the validated outcome of one review: whether the
// reviewed agent's memory should be mutated, and how.
type ReflectionDecision struct {
	AgentID        string `json:"agentId"`
	Date           string `json:"date"`
	NeedMutation   bool   `json:"needMutation"`
	Operation      string `json:"operation,omitempty"` // add | update | delete
	TargetMemoryID string `json:"targetMemoryId,omitempty"`
	NewContent     string `json:"newContent,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// ReflectionResult is the per-agent outcome of a reflection batch. One
// agent's failure never suppresses the results of its peers.
type ReflectionResult struct {
	AgentID string `json:"agentId"`
	Status  string `json:"status"` // success | failed
	Summary string `json:"summary,omitempty"`
	Mutated bool   `json:"mutated"`
	Tool    string `json:"tool,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuditEntry records one mutating operation. Entries are append-only and
// never rewritten.
type AuditEntry struct {
	EntryID       string                 `json:"entryId"`
	Timestamp     time.Time              `json:"timestamp"`
	AgentID       string                 `json:"agentId"`
	OperationType string                 `json:"operationType"`
	ToolName      string                 `json:"toolName,omitempty"`
	Args          map[string]interface{} `json:"args,omitempty"`
	Result        string                 `json:"result,omitempty"`
	Context       string                 `json:"context,omitempty"`
}

const (
	ReflectionStatusSuccess = "success"
	ReflectionStatusFailed  = "failed"
)
