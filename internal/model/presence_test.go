package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlineStoreStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := OnlineStore{}

	online, lastSeen := store.Status("br14_player", now)
	assert.False(t, online)
	assert.Nil(t, lastSeen)

	store.Touch("br14_player", "client_a", now.Add(-30*time.Second))
	online, lastSeen = store.Status("br14_player", now)
	assert.True(t, online)
	require.NotNil(t, lastSeen)
	assert.Equal(t, now.Add(-30*time.Second), *lastSeen)
}

func TestOnlineStoreStatusWindowBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := OnlineStore{}

	// exactly at the window edge still counts as online
	store.Touch("acct", "c1", now.Add(-OnlineWindow))
	online, _ := store.Status("acct", now)
	assert.True(t, online)

	// one second past the window is offline, but lastSeen is still reported
	store = OnlineStore{}
	store.Touch("acct", "c1", now.Add(-OnlineWindow-time.Second))
	online, lastSeen := store.Status("acct", now)
	assert.False(t, online)
	require.NotNil(t, lastSeen)
}

func TestOnlineStoreStatusMultipleInstallations(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := OnlineStore{}

	// one stale profile, one fresh: account is online, lastSeen is the max
	store.Touch("acct", "laptop", now.Add(-10*time.Minute))
	store.Touch("acct", "desktop", now.Add(-45*time.Second))

	online, lastSeen := store.Status("acct", now)
	assert.True(t, online)
	require.NotNil(t, lastSeen)
	assert.Equal(t, now.Add(-45*time.Second), *lastSeen)
}
