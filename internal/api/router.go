package api

import (
	"github.com/gorilla/mux"

	"github.com/ledgermind/ledgermind/internal/api/recovery"
)

// NewRouter wires HTTP routes to handlers.
func NewRouter(memory *MemoryHandler, refl *ReflectionHandler, health *HealthHandler) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Memory façade
	root.HandleFunc("/api/agents/{agentId}/memories", memory.AddMemory).Methods("POST")
	root.HandleFunc("/api/agents/{agentId}/memories", memory.ListMemories).Methods("GET")
	root.HandleFunc("/api/agents/{agentId}/memories", memory.DeleteAllMemories).Methods("DELETE")
	root.HandleFunc("/api/agents/{agentId}/memories/{memoryId}", memory.UpdateMemory).Methods("PUT")
	root.HandleFunc("/api/agents/{agentId}/memories/{memoryId}", memory.DeleteMemory).Methods("DELETE")
	root.HandleFunc("/api/agents/{agentId}/search", memory.SearchMemories).Methods("POST")
	root.HandleFunc("/api/agents/{agentId}/export", memory.ExportMemories).Methods("POST")

	// Reflection and daily trading context
	root.HandleFunc("/api/reflection", refl.RunReflection).Methods("POST")
	root.HandleFunc("/api/signals", refl.IngestSignals).Methods("POST")
	root.HandleFunc("/api/returns", refl.IngestReturns).Methods("POST")
	root.HandleFunc("/api/trades", refl.IngestTrades).Methods("POST")
	root.HandleFunc("/api/audit/{date}", refl.GetAuditTrail).Methods("GET")

	// Health
	root.HandleFunc("/api/health", health.CheckHealth).Methods("GET")

	return root
}
