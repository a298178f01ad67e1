package model

import "strings"

// FieldError describes a single validation failure on a config field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks the range and required-field rules that must hold
// before a configuration may be saved. Returns nil when valid.
func (c *BotConfig) Validate() []FieldError {
	var errs []FieldError

	if c.Farm.IntervalMin < 1 {
		errs = append(errs, FieldError{Field: "farm.interval_min", Message: "must be at least 1 second"})
	}
	if c.Farm.IntervalMax < c.Farm.IntervalMin {
		errs = append(errs, FieldError{Field: "farm.interval_max", Message: "must be greater than or equal to interval_min"})
	}

	if c.Market.MaxStoragePercent < 1 || c.Market.MaxStoragePercent > 100 {
		errs = append(errs, FieldError{Field: "market.max_storage_percent", Message: "must be between 1 and 100"})
	}
	if c.Market.MaxSendPerTrip < 1 {
		errs = append(errs, FieldError{Field: "market.max_send_per_trip", Message: "must be at least 1"})
	}
	if c.Market.CheckInterval < 1 {
		errs = append(errs, FieldError{Field: "market.check_interval", Message: "must be at least 1 second"})
	}
	if c.Market.DelayBetweenTrips < 0 {
		errs = append(errs, FieldError{Field: "market.delay_between_trips", Message: "must not be negative"})
	}
	if c.Market.Enabled && strings.TrimSpace(c.Market.TargetTownID) == "" {
		errs = append(errs, FieldError{Field: "market.target_town_id", Message: "required when market is enabled"})
	}

	return errs
}
