package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ledgermind/ledgermind/internal/api/respond"
	"github.com/ledgermind/ledgermind/internal/audit"
	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/reflection"
	"github.com/ledgermind/ledgermind/internal/signalstore"
)

// ReflectionHandler runs reflection batches and ingests the daily trading
// context they evaluate.
type ReflectionHandler struct {
	engine  *reflection.Engine
	signals signalstore.Store
	trail   *audit.Log
}

func NewReflectionHandler(engine *reflection.Engine, signals signalstore.Store, trail *audit.Log) *ReflectionHandler {
	return &ReflectionHandler{engine: engine, signals: signals, trail: trail}
}

// RunReflection POST /api/reflection
func (h *ReflectionHandler) RunReflection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	results, err := h.engine.Run(r.Context(), req.Date, req.Mode)
	if err != nil {
		if model.IsValidationError(err) {
			respond.WriteBadRequest(w, err.Error())
			return
		}
		respond.WriteInternalError(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"date":    req.Date,
		"mode":    req.Mode,
		"results": results,
	})
}

// IngestSignals POST /api/signals
func (h *ReflectionHandler) IngestSignals(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Signals []model.Signal `json:"signals"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	for _, s := range req.Signals {
		if s.AgentID == "" || s.Date == "" || s.Ticker == "" {
			respond.WriteBadRequest(w, "signal requires agentId, date and ticker")
			return
		}
		if err := h.signals.SaveSignal(r.Context(), s); err != nil {
			respond.WriteInternalError(w, err.Error())
			return
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"saved": len(req.Signals)})
}

// IngestReturns POST /api/returns
func (h *ReflectionHandler) IngestReturns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Returns []model.TickerReturn `json:"returns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	for _, ret := range req.Returns {
		if ret.Date == "" || ret.Ticker == "" {
			respond.WriteBadRequest(w, "return requires date and ticker")
			return
		}
		if err := h.signals.SaveReturn(r.Context(), ret); err != nil {
			respond.WriteInternalError(w, err.Error())
			return
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"saved": len(req.Returns)})
}

// IngestTrades POST /api/trades
func (h *ReflectionHandler) IngestTrades(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Trades []model.Trade `json:"trades"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	for _, t := range req.Trades {
		if t.Date == "" || t.Ticker == "" {
			respond.WriteBadRequest(w, "trade requires date and ticker")
			return
		}
		if err := h.signals.SaveTrade(r.Context(), t); err != nil {
			respond.WriteInternalError(w, err.Error())
			return
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]int{"saved": len(req.Trades)})
}

// GetAuditTrail GET /api/audit/{date}
func (h *ReflectionHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	entries, err := h.trail.ReadDay(date)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"date":    date,
		"count":   len(entries),
		"entries": entries,
	})
}
