package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gp-captain-panel/internal/model"
	"gp-captain-panel/internal/repository"
)

// Listing fetch pacing. Small concurrent batches with a pause between
// them keep the GitHub Contents API rate limiter happy.
const (
	listBatchSize  = 4
	listBatchDelay = 150 * time.Millisecond
)

// AccountService produces the aggregated per-account listing: stored
// configuration reconciled against the presence map.
type AccountService struct {
	configs  repository.ConfigStore
	presence *PresenceService
	log      zerolog.Logger
	now      func() time.Time
	sleep    func(time.Duration)
}

// NewAccountService creates a new account listing service.
// Returns nil if either dependency is nil.
func NewAccountService(configs repository.ConfigStore, presence *PresenceService, log zerolog.Logger) *AccountService {
	if configs == nil || presence == nil {
		return nil
	}
	return &AccountService{
		configs:  configs,
		presence: presence,
		log:      log.With().Str("component", "account_service").Logger(),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// fetchConfigs loads every listed account's config in bounded batches.
// A single account's failure is logged and skipped; the batch continues.
func (s *AccountService) fetchConfigs(ctx context.Context, keys []string) map[string]*model.BotConfig {
	out := make(map[string]*model.BotConfig, len(keys))
	var mu sync.Mutex

	for start := 0; start < len(keys); start += listBatchSize {
		end := start + listBatchSize
		if end > len(keys) {
			end = len(keys)
		}

		var wg sync.WaitGroup
		for _, account := range keys[start:end] {
			wg.Add(1)
			go func(account string) {
				defer wg.Done()
				cfg, _, err := s.configs.Get(ctx, account)
				if err != nil {
					s.log.Warn().Err(err).Str("account", account).Msg("skipping account in listing")
					return
				}
				mu.Lock()
				out[account] = cfg
				mu.Unlock()
			}(account)
		}
		wg.Wait()

		if end < len(keys) {
			s.sleep(listBatchDelay)
		}
	}
	return out
}

// ListAccounts returns one summary per account known to either the
// config directory or the presence map. Accounts that only ever sent
// heartbeats appear with null config fields; accounts that never ran the
// bot appear offline.
func (s *AccountService) ListAccounts(ctx context.Context) ([]model.AccountSummary, error) {
	keys, err := s.configs.List(ctx)
	if err != nil {
		return nil, err
	}

	configs := s.fetchConfigs(ctx, keys)

	online, err := s.presence.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Union of keys: heartbeats can exist before any saved config and
	// vice versa.
	seen := make(map[string]struct{}, len(configs)+len(online))
	union := make([]string, 0, len(configs)+len(online))
	for account := range configs {
		seen[account] = struct{}{}
		union = append(union, account)
	}
	for account := range online {
		if _, ok := seen[account]; !ok {
			union = append(union, account)
		}
	}
	sort.Strings(union)

	now := s.now().UTC()
	summaries := make([]model.AccountSummary, 0, len(union))
	for _, account := range union {
		summary := model.AccountSummary{Account: account}

		if cfg := configs[account]; cfg != nil {
			summary.Enabled = cfg.Enabled
			summary.FarmEnabled = cfg.Farm.Enabled
			intervalMin, intervalMax := cfg.Farm.IntervalMin, cfg.Farm.IntervalMax
			summary.IntervalMin = &intervalMin
			summary.IntervalMax = &intervalMax
			if cfg.UpdatedAt != "" {
				updatedAt := cfg.UpdatedAt
				summary.UpdatedAt = &updatedAt
			}
		}

		isOnline, lastSeen := online.Status(account, now)
		summary.Online = isOnline
		if lastSeen != nil {
			ls := lastSeen.UTC().Format(time.RFC3339)
			summary.LastSeen = &ls
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}
