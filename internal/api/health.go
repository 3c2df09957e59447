package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ledgermind/ledgermind/internal/api/respond"
)

// HealthHandler reports service liveness. The ping probes the index and its
// embedder; a nil ping means nothing to probe and always healthy.
type HealthHandler struct {
	ping func(ctx context.Context) error
}

func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// CheckHealth GET /api/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"reason": err.Error(),
			})
			return
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
