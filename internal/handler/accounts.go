package handler

import (
	"net/http"

	"gp-captain-panel/internal/model"
	"gp-captain-panel/internal/service"
	"gp-captain-panel/pkg/response"
)

// AccountsHandler serves the aggregated account listing.
type AccountsHandler struct {
	accountService *service.AccountService
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(accountService *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accountService: accountService}
}

type listAccountsResponse struct {
	OK       bool                   `json:"ok"`
	Accounts []model.AccountSummary `json:"accounts"`
}

// ListAccounts handles GET /api/list-accounts.
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context())
	if err != nil {
		response.Raw(w, http.StatusInternalServerError, map[string]interface{}{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	if accounts == nil {
		accounts = []model.AccountSummary{}
	}
	response.Raw(w, http.StatusOK, listAccountsResponse{OK: true, Accounts: accounts})
}
