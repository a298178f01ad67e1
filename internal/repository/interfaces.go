package repository

import (
	"context"
	"errors"
	"time"

	"gp-captain-panel/internal/model"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the revision token supplied on a write was
	// stale: the resource changed since it was read.
	ErrConflict = errors.New("revision conflict")
)

// ConfigStore defines per-account configuration access.
type ConfigStore interface {
	// Get returns the stored configuration merged over the compiled-in
	// default. A missing account yields the default and isNew=true, not
	// an error.
	Get(ctx context.Context, account string) (cfg *model.BotConfig, isNew bool, err error)

	// Put persists the configuration, guarded by the backend's revision
	// token. Returns ErrConflict when the resource changed since it was
	// last read.
	Put(ctx context.Context, account string, cfg *model.BotConfig) error

	// List returns the account keys that have a stored configuration.
	List(ctx context.Context) ([]string, error)

	// Close closes the store connection.
	Close() error
}

// PresenceStore defines heartbeat persistence.
type PresenceStore interface {
	// Ping upserts the last-seen timestamp for (account, clientID).
	Ping(ctx context.Context, account, clientID string, seen time.Time) error

	// All returns the full presence map.
	All(ctx context.Context) (model.OnlineStore, error)

	// Close closes the store connection.
	Close() error
}
