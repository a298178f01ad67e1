package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"gp-captain-panel/internal/model"
	"gp-captain-panel/internal/repository"
)

// PresenceService tracks which accounts are online via heartbeat pings.
type PresenceService struct {
	store repository.PresenceStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewPresenceService creates a new presence service.
// Returns nil if store is nil (required dependency).
func NewPresenceService(store repository.PresenceStore, log zerolog.Logger) *PresenceService {
	if store == nil {
		return nil
	}
	return &PresenceService{
		store: store,
		log:   log.With().Str("component", "presence_service").Logger(),
		now:   time.Now,
	}
}

// Ping records a heartbeat for (account, clientID) at server time and
// returns that time. Client clocks are never trusted.
func (s *PresenceService) Ping(ctx context.Context, account, clientID string) (time.Time, error) {
	now := s.now().UTC()
	if err := s.store.Ping(ctx, account, clientID, now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// Snapshot returns the full presence map.
func (s *PresenceService) Snapshot(ctx context.Context) (model.OnlineStore, error) {
	return s.store.All(ctx)
}

// IsOnline reports whether the account has pinged within
// model.OnlineWindow, and its most recent last-seen timestamp.
func (s *PresenceService) IsOnline(ctx context.Context, account string) (bool, *time.Time, error) {
	store, err := s.store.All(ctx)
	if err != nil {
		return false, nil, err
	}
	online, lastSeen := store.Status(account, s.now().UTC())
	return online, lastSeen, nil
}
