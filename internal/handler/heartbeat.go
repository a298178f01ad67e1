package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"gp-captain-panel/internal/service"
	"gp-captain-panel/pkg/response"
)

// HeartbeatHandler receives liveness pings from running agents.
type HeartbeatHandler struct {
	presenceService *service.PresenceService
}

// NewHeartbeatHandler creates a new heartbeat handler.
func NewHeartbeatHandler(presenceService *service.PresenceService) *HeartbeatHandler {
	return &HeartbeatHandler{presenceService: presenceService}
}

type heartbeatRequest struct {
	Account  string `json:"account"`
	ClientID string `json:"clientId"`
}

// Heartbeat handles POST /api/heartbeat.
func (h *HeartbeatHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Raw(w, http.StatusBadRequest, map[string]interface{}{
			"ok":    false,
			"error": "invalid JSON body",
		})
		return
	}
	defer r.Body.Close()

	account := strings.TrimSpace(req.Account)
	clientID := strings.TrimSpace(req.ClientID)
	if account == "" || clientID == "" {
		response.Raw(w, http.StatusBadRequest, map[string]interface{}{
			"ok":    false,
			"error": "missing account or clientId",
		})
		return
	}

	now, err := h.presenceService.Ping(r.Context(), account, clientID)
	if err != nil {
		response.Raw(w, http.StatusInternalServerError, map[string]interface{}{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	response.Raw(w, http.StatusOK, map[string]interface{}{
		"ok":  true,
		"now": now.Format(time.RFC3339),
	})
}
