package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"gp-captain-panel/internal/model"
	"gp-captain-panel/internal/repository"
	"gp-captain-panel/pkg/apierror"
)

// ConfigService handles per-account configuration business logic.
type ConfigService struct {
	store repository.ConfigStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewConfigService creates a new config service.
// Returns nil if store is nil (required dependency).
func NewConfigService(store repository.ConfigStore, log zerolog.Logger) *ConfigService {
	if store == nil {
		return nil
	}
	return &ConfigService{
		store: store,
		log:   log.With().Str("component", "config_service").Logger(),
		now:   time.Now,
	}
}

// Get returns the account's configuration, synthesizing the default when
// no file exists yet (isNew=true). The synthesized default is ephemeral:
// nothing is persisted until an explicit save.
func (s *ConfigService) Get(ctx context.Context, account string) (*model.BotConfig, bool, error) {
	return s.store.Get(ctx, account)
}

// Save validates the configuration, stamps updated_at and persists it.
// Validation failures and revision conflicts come back as API errors the
// handler can return directly.
func (s *ConfigService) Save(ctx context.Context, account string, cfg *model.BotConfig) error {
	if fieldErrs := cfg.Validate(); len(fieldErrs) > 0 {
		details := make([]apierror.FieldError, len(fieldErrs))
		for i, fe := range fieldErrs {
			details[i] = apierror.FieldError{Field: fe.Field, Message: fe.Message}
		}
		return apierror.ValidationError("invalid configuration", details...)
	}

	cfg.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	if err := s.store.Put(ctx, account, cfg); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return apierror.Conflict("configuration changed since it was loaded; reload and try again")
		}
		s.log.Error().Err(err).Str("account", account).Msg("save failed")
		return err
	}

	s.log.Info().Str("account", account).Msg("config saved")
	return nil
}
