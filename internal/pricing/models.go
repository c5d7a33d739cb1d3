package pricing

import "time"

// Pricing rules are platform-scoped and admin-managed.
// Amounts are expressed in minor units (e.g., cents) using int64.

// Rule is a conditional pricing rule. Every non-nil constraint must be
// satisfied by a lead for the rule to match; unset constraints are wildcards.
type Rule struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name,omitempty" db:"name"`

	// Match constraints. Empty string / nil means "any".
	ServiceID    string `json:"service_id,omitempty" db:"service_id"`
	Region       string `json:"region,omitempty" db:"region"`
	City         string `json:"city,omitempty" db:"city"`
	PostalCode   string `json:"postal_code,omitempty" db:"postal_code"`
	Timing       Timing `json:"timing,omitempty" db:"timing"`
	BudgetMin    *int64 `json:"budget_min_minor,omitempty" db:"budget_min_minor"`
	BudgetMax    *int64 `json:"budget_max_minor,omitempty" db:"budget_max_minor"`
	PropertyType string `json:"property_type,omitempty" db:"property_type"`

	// IsExclusive constrains matching: when set, only exclusive leads match.
	IsExclusive bool `json:"is_exclusive" db:"is_exclusive"`

	BasePriceMinor      int64   `json:"base_price_minor" db:"base_price_minor"`
	SurgeMultiplier     float64 `json:"surge_multiplier" db:"surge_multiplier"`
	ExclusiveMultiplier float64 `json:"exclusive_multiplier" db:"exclusive_multiplier"`

	// Priority: higher is evaluated first. Ties break on lower id.
	Priority int  `json:"priority" db:"priority"`
	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Timing string

const (
	TimingASAP      Timing = "asap"
	TimingWithin24h Timing = "within_24h"
	TimingWithinWeek Timing = "within_week"
	TimingFlexible  Timing = "flexible"
	TimingScheduled Timing = "scheduled"
)

func ValidTiming(t Timing) bool {
	switch t {
	case TimingASAP, TimingWithin24h, TimingWithinWeek, TimingFlexible, TimingScheduled:
		return true
	default:
		return false
	}
}

// LeadAttributes is the read-only lead view the resolver prices against.
type LeadAttributes struct {
	ServiceID    string
	Region       string
	City         string
	PostalCode   string
	Timing       Timing
	BudgetMin    *int64
	BudgetMax    *int64
	PropertyType string
	IsExclusive  bool
}
