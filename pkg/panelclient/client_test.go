package panelclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gp-captain-panel/internal/model"
)

func TestGetConfigMergesPartialPayload(t *testing.T) {
	var gotAccount, gotBuster string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/get-config", r.URL.Path)
		gotAccount = r.URL.Query().Get("account")
		gotBuster = r.URL.Query().Get("t")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"config":{"farm":{"interval_min":300}},"isNew":false}`))
	}))
	defer srv.Close()

	cfg, isNew, err := New(srv.URL).GetConfig(context.Background(), "br14_alpha")
	require.NoError(t, err)
	assert.Equal(t, "br14_alpha", gotAccount)
	assert.NotEmpty(t, gotBuster, "cache buster must be sent")
	assert.False(t, isNew)
	assert.Equal(t, 300, cfg.Farm.IntervalMin)
	assert.Equal(t, 637, cfg.Farm.IntervalMax, "unsent key keeps the default")
}

func TestGetConfigNewAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"config":{},"isNew":true}`))
	}))
	defer srv.Close()

	_, isNew, err := New(srv.URL).GetConfig(context.Background(), "br14_nobody")
	require.NoError(t, err)
	assert.True(t, isNew)
}

func TestGetConfigServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":{"code":"INTERNAL_ERROR","message":"boom"}}`))
	}))
	defer srv.Close()

	_, _, err := New(srv.URL).GetConfig(context.Background(), "br14_alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSaveConfigSendsAccountAndConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/save-config", r.URL.Path)
		var body struct {
			Account string          `json:"account"`
			Config  json.RawMessage `json:"config"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "br14_alpha", body.Account)
		assert.NotEmpty(t, body.Config)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	err := New(srv.URL).SaveConfig(context.Background(), "br14_alpha", model.DefaultConfig())
	require.NoError(t, err)
}

func TestHeartbeatParsesServerTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/heartbeat", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "br14_alpha", body["account"])
		assert.Equal(t, "client_1", body["clientId"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"now":"2025-06-01T12:00:00Z"}`))
	}))
	defer srv.Close()

	now, err := New(srv.URL).Heartbeat(context.Background(), "br14_alpha", "client_1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), now)
}

func TestHeartbeatRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error":"missing account or clientId"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Heartbeat(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing account or clientId")
}

func TestListAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/list-accounts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"accounts":[
			{"account":"br14_alpha","enabled":true,"farmEnabled":true,"intervalMin":300,"intervalMax":400,"online":true,"lastSeen":"2025-06-01T12:00:00Z"},
			{"account":"br14_beta","enabled":false,"farmEnabled":false,"online":false}
		]}`))
	}))
	defer srv.Close()

	accounts, err := New(srv.URL).ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	alpha := accounts[0]
	assert.Equal(t, "br14_alpha", alpha.Account)
	assert.True(t, alpha.Online)
	require.NotNil(t, alpha.IntervalMin)
	assert.Equal(t, 300, *alpha.IntervalMin)
	require.NotNil(t, alpha.LastSeen)

	beta := accounts[1]
	assert.False(t, beta.Online)
	assert.Nil(t, beta.IntervalMin)
	assert.Nil(t, beta.LastSeen)
}
