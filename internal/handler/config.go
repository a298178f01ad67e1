package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"gp-captain-panel/internal/model"
	"gp-captain-panel/internal/service"
	"gp-captain-panel/pkg/apierror"
	"gp-captain-panel/pkg/response"
)

// ConfigHandler handles the per-account configuration endpoints consumed
// by the dashboard UI and the userscript.
type ConfigHandler struct {
	configService *service.ConfigService
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(configService *service.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// getConfigResponse is the fixed wire shape of GET /api/get-config.
type getConfigResponse struct {
	Success bool             `json:"success"`
	Config  *model.BotConfig `json:"config"`
	IsNew   bool             `json:"isNew,omitempty"`
}

// GetConfig handles GET /api/get-config?account=<key>.
// A missing file is not an error: the compiled-in default is returned
// with isNew so the UI can tell the account was never saved.
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	account := strings.TrimSpace(r.URL.Query().Get("account"))
	if account == "" {
		response.Error(w, apierror.BadRequest("account is required"))
		return
	}

	cfg, isNew, err := h.configService.Get(r.Context(), account)
	if err != nil {
		response.Error(w, apierror.InternalError(err.Error()))
		return
	}

	response.Raw(w, http.StatusOK, getConfigResponse{
		Success: true,
		Config:  cfg,
		IsNew:   isNew,
	})
}

// saveConfigRequest is the body of POST /api/save-config. Config is kept
// raw so missing keys merge over the defaults rather than zeroing out.
type saveConfigRequest struct {
	Account string          `json:"account"`
	Config  json.RawMessage `json:"config"`
}

// SaveConfig handles POST /api/save-config.
func (h *ConfigHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	var req saveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	account := strings.TrimSpace(req.Account)
	if account == "" {
		response.Error(w, apierror.BadRequest("missing account id"))
		return
	}
	if len(req.Config) == 0 {
		response.Error(w, apierror.BadRequest("missing config data"))
		return
	}

	cfg, err := model.MergeDefaults(req.Config)
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid config payload"))
		return
	}

	if err := h.configService.Save(r.Context(), account, cfg); err != nil {
		response.Error(w, err)
		return
	}

	response.Raw(w, http.StatusOK, map[string]interface{}{"success": true})
}
