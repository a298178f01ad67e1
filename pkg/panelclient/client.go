// Package panelclient is the HTTP client for the panel API, used by the
// automation agent and usable standalone.
package panelclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"gp-captain-panel/internal/model"
)

// Client talks to one panel server.
type Client struct {
	http *resty.Client
}

// New creates a client for the panel at baseURL.
func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{http: c}
}

type getConfigResponse struct {
	Success bool            `json:"success"`
	Config  json.RawMessage `json:"config"`
	IsNew   bool            `json:"isNew"`
	Error   json.RawMessage `json:"error"`
}

// GetConfig fetches the account's configuration. isNew reports that the
// account has never been saved and the default was synthesized.
func (c *Client) GetConfig(ctx context.Context, account string) (*model.BotConfig, bool, error) {
	var out getConfigResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("account", account).
		// cache buster, same as the userscript
		SetQueryParam("t", strconv.FormatInt(time.Now().UnixMilli(), 10)).
		SetResult(&out).
		Get("/api/get-config")
	if err != nil {
		return nil, false, fmt.Errorf("get-config: %w", err)
	}
	if resp.IsError() || !out.Success {
		return nil, false, fmt.Errorf("get-config: status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	cfg, err := model.MergeDefaults(out.Config)
	if err != nil {
		return nil, false, fmt.Errorf("get-config: %w", err)
	}
	return cfg, out.IsNew, nil
}

// SaveConfig persists the account's configuration.
func (c *Client) SaveConfig(ctx context.Context, account string, cfg *model.BotConfig) error {
	var out struct {
		Success bool `json:"success"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"account": account, "config": cfg}).
		SetResult(&out).
		Post("/api/save-config")
	if err != nil {
		return fmt.Errorf("save-config: %w", err)
	}
	if resp.IsError() || !out.Success {
		return fmt.Errorf("save-config: status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

// Heartbeat reports (account, clientID) as alive and returns the server
// time the ping was recorded at.
func (c *Client) Heartbeat(ctx context.Context, account, clientID string) (time.Time, error) {
	var out struct {
		OK  bool   `json:"ok"`
		Now string `json:"now"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"account": account, "clientId": clientID}).
		SetResult(&out).
		Post("/api/heartbeat")
	if err != nil {
		return time.Time{}, fmt.Errorf("heartbeat: %w", err)
	}
	if resp.IsError() || !out.OK {
		return time.Time{}, fmt.Errorf("heartbeat: status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	now, err := time.Parse(time.RFC3339, out.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("heartbeat: bad timestamp %q: %w", out.Now, err)
	}
	return now, nil
}

// ListAccounts returns the aggregated account listing.
func (c *Client) ListAccounts(ctx context.Context) ([]model.AccountSummary, error) {
	var out struct {
		OK       bool                   `json:"ok"`
		Accounts []model.AccountSummary `json:"accounts"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/list-accounts")
	if err != nil {
		return nil, fmt.Errorf("list-accounts: %w", err)
	}
	if resp.IsError() || !out.OK {
		return nil, fmt.Errorf("list-accounts: status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return out.Accounts, nil
}
