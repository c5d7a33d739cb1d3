package leads

import (
	"time"

	"leadmarket-platform/internal/pricing"
)

// LeadRequest is a consumer job request submitted through the public intake.
//
// Lifecycle:
//   new -> routing -> routed -> partial -> closed
//   new -> spam | duplicate
//   new/routing/routed -> expired
//
// partial means at least one sale slot is taken; closed means all slots are
// taken (or the lead aged out after a partial sale).
type LeadRequest struct {
	ID string `json:"id" db:"id"`

	ServiceID string `json:"service_id" db:"service_id"`

	Region     string   `json:"region,omitempty" db:"region"`
	City       string   `json:"city,omitempty" db:"city"`
	PostalCode string   `json:"postal_code,omitempty" db:"postal_code"`
	Lat        *float64 `json:"lat,omitempty" db:"lat"`
	Lng        *float64 `json:"lng,omitempty" db:"lng"`

	ContactName  string `json:"contact_name,omitempty" db:"contact_name"`
	ContactEmail string `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone string `json:"contact_phone,omitempty" db:"contact_phone"`

	Title       string `json:"title,omitempty" db:"title"`
	Description string `json:"description,omitempty" db:"description"`

	BudgetMinMinor *int64 `json:"budget_min_minor,omitempty" db:"budget_min_minor"`
	BudgetMaxMinor *int64 `json:"budget_max_minor,omitempty" db:"budget_max_minor"`

	Timing       pricing.Timing `json:"timing,omitempty" db:"timing"`
	PropertyType string         `json:"property_type,omitempty" db:"property_type"`

	// IsExclusive leads are sold to exactly one provider at the exclusive
	// price; shared leads are sold up to MaxSoldCount times.
	IsExclusive bool `json:"is_exclusive" db:"is_exclusive"`

	Source   string `json:"source,omitempty" db:"source"`
	SourceIP string `json:"-" db:"source_ip"`

	QualityScore int    `json:"quality_score" db:"quality_score"`
	Status       Status `json:"status" db:"status"`

	// PriceMinor is the resolved sale price, fixed at intake time.
	PriceMinor int64 `json:"price_minor" db:"price_minor"`
	// RuleID is the pricing rule that produced PriceMinor, 0 for fallback.
	RuleID int64 `json:"rule_id,omitempty" db:"rule_id"`

	MaxSoldCount     int `json:"max_sold_count" db:"max_sold_count"`
	CurrentSoldCount int `json:"current_sold_count" db:"current_sold_count"`

	RoutedAt  *time.Time `json:"routed_at,omitempty" db:"routed_at"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusNew       Status = "new"
	StatusRouting   Status = "routing"
	StatusRouted    Status = "routed"
	StatusPartial   Status = "partial"
	StatusClosed    Status = "closed"
	StatusExpired   Status = "expired"
	StatusSpam      Status = "spam"
	StatusDuplicate Status = "duplicate"
)

// IsSellable reports whether slots on this lead can still be claimed.
func (s Status) IsSellable() bool {
	return s == StatusRouted || s == StatusPartial
}

// IsRoutable reports whether the lead can enter routing.
func (s Status) IsRoutable() bool {
	return s == StatusNew || s == StatusRouting
}

const (
	// SharedMaxSoldCount is how many providers a non-exclusive lead is sold to.
	SharedMaxSoldCount = 3

	// IntakeTTL is how long an unsold lead stays routable before expiry.
	IntakeTTL = 72 * time.Hour

	// OfferTTL is how long a provider has to act on an offered match.
	OfferTTL = 24 * time.Hour
)
