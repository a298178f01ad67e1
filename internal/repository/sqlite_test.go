package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gp-captain-panel/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteConfigStore {
	store, err := NewSQLiteConfigStore(filepath.Join(t.TempDir(), "panel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteConfigStoreMissingReturnsDefaults(t *testing.T) {
	store := newTestSQLiteStore(t)

	cfg, isNew, err := store.Get(context.Background(), "br14_unknown")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestSQLiteConfigStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	cfg := model.DefaultConfig()
	cfg.Enabled = false
	cfg.Farm.IntervalMin = 420
	cfg.Farm.IntervalMax = 480
	require.NoError(t, store.Put(ctx, "br14_alpha", cfg))

	got, isNew, err := store.Get(ctx, "br14_alpha")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.False(t, got.Enabled)
	assert.Equal(t, 420, got.Farm.IntervalMin)
	assert.Equal(t, 480, got.Farm.IntervalMax)

	// overwrite bumps the revision without conflicting for a serial writer
	cfg.Farm.IntervalMin = 500
	require.NoError(t, store.Put(ctx, "br14_alpha", cfg))

	got, _, err = store.Get(ctx, "br14_alpha")
	require.NoError(t, err)
	assert.Equal(t, 500, got.Farm.IntervalMin)
}

func TestSQLiteConfigStoreList(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, account := range []string{"de99_zeta", "br14_alpha"} {
		require.NoError(t, store.Put(ctx, account, model.DefaultConfig()))
	}

	accounts, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"br14_alpha", "de99_zeta"}, accounts)
}
