package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"gp-captain-panel/internal/model"
)

// MemoryConfigStore is a map-backed ConfigStore for development and tests.
type MemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[string][]byte
}

// NewMemoryConfigStore creates an empty in-memory config store.
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{configs: make(map[string][]byte)}
}

// Get implements ConfigStore.
func (s *MemoryConfigStore) Get(ctx context.Context, account string) (*model.BotConfig, bool, error) {
	s.mu.RLock()
	raw, ok := s.configs[account]
	s.mu.RUnlock()

	if !ok {
		return model.DefaultConfig(), true, nil
	}
	cfg, err := model.MergeDefaults(raw)
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// Put implements ConfigStore. A single mutex serializes writers, so there
// is no revision token to conflict on.
func (s *MemoryConfigStore) Put(ctx context.Context, account string, cfg *model.BotConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.configs[account] = data
	s.mu.Unlock()
	return nil
}

// List implements ConfigStore.
func (s *MemoryConfigStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]string, 0, len(s.configs))
	for account := range s.configs {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts, nil
}

// Close implements ConfigStore.
func (s *MemoryConfigStore) Close() error { return nil }

// MemoryPresenceStore is a map-backed PresenceStore for development and
// tests.
type MemoryPresenceStore struct {
	mu    sync.RWMutex
	store model.OnlineStore
}

// NewMemoryPresenceStore creates an empty in-memory presence store.
func NewMemoryPresenceStore() *MemoryPresenceStore {
	return &MemoryPresenceStore{store: model.OnlineStore{}}
}

// Ping implements PresenceStore.
func (s *MemoryPresenceStore) Ping(ctx context.Context, account, clientID string, seen time.Time) error {
	s.mu.Lock()
	s.store.Touch(account, clientID, seen)
	s.mu.Unlock()
	return nil
}

// All implements PresenceStore. Returns a deep copy so callers can walk
// the map without holding the lock.
func (s *MemoryPresenceStore) All(ctx context.Context) (model.OnlineStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(model.OnlineStore, len(s.store))
	for account, clients := range s.store {
		cp := make(map[string]model.PresenceRecord, len(clients))
		for id, rec := range clients {
			cp[id] = rec
		}
		out[account] = cp
	}
	return out, nil
}

// Close implements PresenceStore.
func (s *MemoryPresenceStore) Close() error { return nil }
