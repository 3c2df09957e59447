package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ledgermind/ledgermind/internal/api/respond"
	"github.com/ledgermind/ledgermind/internal/memsvc"
)

// MemoryHandler exposes the memory service façade over HTTP. The façade
// reports failures as zero values, so handlers translate those into 4xx
// responses without a separate error path.
type MemoryHandler struct {
	svc memsvc.Service
}

func NewMemoryHandler(svc memsvc.Service) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

// AddMemory POST /api/agents/{agentId}/memories
func (h *MemoryHandler) AddMemory(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentId"]
	var req struct {
		Content  string                 `json:"content"`
		Metadata map[string]interface{} `json:"metadata,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	id := h.svc.Add(r.Context(), agentID, req.Content, req.Metadata)
	if id == "" {
		respond.WriteBadRequest(w, "memory rejected")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]string{"memoryId": id})
}

// ListMemories GET /api/agents/{agentId}/memories
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentId"]
	records := h.svc.GetAll(r.Context(), agentID)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"agentId":  agentID,
		"count":    len(records),
		"memories": records,
	})
}

// UpdateMemory PUT /api/agents/{agentId}/memories/{memoryId}
func (h *MemoryHandler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Content  string                 `json:"content"`
		Metadata map[string]interface{} `json:"metadata,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	if !h.svc.Update(r.Context(), vars["agentId"], vars["memoryId"], req.Content, req.Metadata) {
		respond.WriteNotFound(w, "memory not found or update rejected")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"memoryId": vars["memoryId"]})
}

// DeleteMemory DELETE /api/agents/{agentId}/memories/{memoryId}
func (h *MemoryHandler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !h.svc.Delete(r.Context(), vars["agentId"], vars["memoryId"]) {
		respond.WriteNotFound(w, "memory not found")
		return
	}
	respond.WriteNoContent(w)
}

// DeleteAllMemories DELETE /api/agents/{agentId}/memories
func (h *MemoryHandler) DeleteAllMemories(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentId"]
	if !h.svc.DeleteAll(r.Context(), agentID) {
		respond.WriteInternalError(w, "failed to clear workspace")
		return
	}
	respond.WriteNoContent(w)
}

// SearchMemories POST /api/agents/{agentId}/search
func (h *MemoryHandler) SearchMemories(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentId"]
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"topK,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	hits := h.svc.Search(r.Context(), agentID, req.Query, req.TopK)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"agentId": agentID,
		"count":   len(hits),
		"results": hits,
	})
}

// ExportMemories POST /api/agents/{agentId}/export
func (h *MemoryHandler) ExportMemories(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["agentId"]
	path := h.svc.Export(r.Context(), agentID)
	if path == "" {
		respond.WriteInternalError(w, "export failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"path": path})
}
