package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FarmConfig controls the automated barbarian-village collection cycle.
type FarmConfig struct {
	Enabled       bool `json:"enabled"`
	IntervalMin   int  `json:"interval_min"`
	IntervalMax   int  `json:"interval_max"`
	ShuffleCities bool `json:"shuffle_cities"`
}

// MarketConfig controls the automated resource-sending feature.
type MarketConfig struct {
	Enabled           bool   `json:"enabled"`
	TargetTownID      string `json:"target_town_id"`
	SendWood          bool   `json:"send_wood"`
	SendStone         bool   `json:"send_stone"`
	SendSilver        bool   `json:"send_silver"`
	MaxStoragePercent int    `json:"max_storage_percent"`
	MaxSendPerTrip    int    `json:"max_send_per_trip"`
	CheckInterval     int    `json:"check_interval"`
	DelayBetweenTrips int    `json:"delay_between_trips"`
	SplitEqually      bool   `json:"split_equally"`
}

// BotConfig is the per-account configuration persisted as one JSON file.
// UpdatedAt is stamped on every save; it is never set by clients.
type BotConfig struct {
	Enabled   bool         `json:"enabled"`
	FarmLevel string       `json:"farm_level,omitempty"`
	Farm      FarmConfig   `json:"farm"`
	Market    MarketConfig `json:"market"`
	UpdatedAt string       `json:"updated_at,omitempty"`
}

// DefaultConfig returns the compiled-in configuration used for accounts
// that have never been saved.
func DefaultConfig() *BotConfig {
	return &BotConfig{
		Enabled:   true,
		FarmLevel: "nivel2",
		Farm: FarmConfig{
			Enabled:       true,
			IntervalMin:   600,
			IntervalMax:   637,
			ShuffleCities: true,
		},
		Market: MarketConfig{
			Enabled:           false,
			TargetTownID:      "",
			SendWood:          true,
			SendStone:         true,
			SendSilver:        true,
			MaxStoragePercent: 100,
			MaxSendPerTrip:    5000,
			CheckInterval:     300,
			DelayBetweenTrips: 120,
			SplitEqually:      true,
		},
	}
}

// MergeDefaults decodes raw JSON over a copy of the default configuration,
// so keys missing from the stored file keep their default values. Nested
// farm/market records merge per field the same way.
func MergeDefaults(raw []byte) (*BotConfig, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %w", err)
	}
	return cfg, nil
}

// ExtractJSONObject trims leading and trailing non-JSON bytes from a
// decoded payload, keeping the substring between the first '{' and the
// last '}'. Returns nil if no object is found.
func ExtractJSONObject(b []byte) []byte {
	start := bytes.IndexByte(b, '{')
	end := bytes.LastIndexByte(b, '}')
	if start < 0 || end < start {
		return nil
	}
	return b[start : end+1]
}
