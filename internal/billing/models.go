package billing

import (
	"time"

	"leadmarket-platform/internal/pricing"
)

// Settings is the platform billing configuration. A single row; admin-managed.
// Amounts are expressed in minor units (e.g., cents) using int64.
type Settings struct {
	// MinDurationSeconds is the call qualification threshold (inclusive).
	MinDurationSeconds int `json:"min_duration_seconds" db:"min_duration_seconds"`

	// BasePriceMinor is the fallback lead/call price when no pricing rule matches.
	BasePriceMinor int64 `json:"base_price_minor" db:"base_price_minor"`

	SurgeMultiplier     float64 `json:"surge_multiplier" db:"surge_multiplier"`
	ExclusiveMultiplier float64 `json:"exclusive_multiplier" db:"exclusive_multiplier"`

	// AutoBillEnabled: qualified calls are billed immediately; otherwise they
	// accumulate as pending for manual review.
	AutoBillEnabled bool `json:"auto_bill_enabled" db:"auto_bill_enabled"`

	// DisputeWindowHours bounds how long after billing a dispute may be opened.
	DisputeWindowHours int `json:"dispute_window_hours" db:"dispute_window_hours"`

	// Computed prices are clamped into [MinPriceMinor, MaxPriceMinor].
	MinPriceMinor int64 `json:"min_price_minor" db:"min_price_minor"`
	MaxPriceMinor int64 `json:"max_price_minor" db:"max_price_minor"`

	// PauseWhenBalanceZero: providers with an empty wallet are skipped during
	// lead routing.
	PauseWhenBalanceZero bool `json:"pause_when_balance_zero" db:"pause_when_balance_zero"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultSettings returns the platform defaults.
func DefaultSettings() Settings {
	return Settings{
		MinDurationSeconds:   90,
		BasePriceMinor:       2500,
		SurgeMultiplier:      1.5,
		ExclusiveMultiplier:  3.0,
		AutoBillEnabled:      true,
		DisputeWindowHours:   72,
		MinPriceMinor:        2500,
		MaxPriceMinor:        12000,
		PauseWhenBalanceZero: true,
	}
}

// Fallback maps settings onto the resolver's no-match pricing.
func (s Settings) Fallback() pricing.Fallback {
	return pricing.Fallback{
		BaseMinor:           s.BasePriceMinor,
		SurgeMultiplier:     s.SurgeMultiplier,
		ExclusiveMultiplier: s.ExclusiveMultiplier,
	}
}

// DisputeWindow returns the window as a duration.
func (s Settings) DisputeWindow() time.Duration {
	return time.Duration(s.DisputeWindowHours) * time.Hour
}
