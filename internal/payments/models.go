package payments

import "time"

// CreditPackage is a purchasable wallet top-up bundle. Buying a package
// credits CreditsMinor plus BonusMinor (as a separate bonus transaction).
type CreditPackage struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	PriceMinor   int64  `json:"price_minor" db:"price_minor"`
	CreditsMinor int64  `json:"credits_minor" db:"credits_minor"`
	BonusMinor   int64  `json:"bonus_minor" db:"bonus_minor"`
	IsActive     bool   `json:"is_active" db:"is_active"`
	SortOrder    int    `json:"sort_order" db:"sort_order"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PromoCode discounts a purchase or grants extra credits.
type PromoCode struct {
	ID   string    `json:"id" db:"id"`
	Code string    `json:"code" db:"code"`
	Type PromoType `json:"type" db:"type"`

	// Value meaning depends on Type: percent (0..100), fixed discount in
	// minor units, or bonus credits in minor units.
	Value int64 `json:"value" db:"value"`

	MinPurchaseMinor int64 `json:"min_purchase_minor" db:"min_purchase_minor"`
	MaxUses          int   `json:"max_uses" db:"max_uses"`
	UsedCount        int   `json:"used_count" db:"used_count"`

	ValidFrom  time.Time `json:"valid_from" db:"valid_from"`
	ValidUntil time.Time `json:"valid_until" db:"valid_until"`
	IsActive   bool      `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type PromoType string

const (
	PromoPercent PromoType = "percent"
	PromoFixed   PromoType = "fixed"
	PromoCredits PromoType = "credits"
)

// Payment is one checkout attempt. Confirmed exactly once by the payment
// provider webhook; wallet credits are idempotent on the payment id.
type Payment struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`
	PackageID string `json:"package_id" db:"package_id"`

	PromoCodeID string `json:"promo_code_id,omitempty" db:"promo_code_id"`

	// AmountMinor is what the customer pays after discounts.
	AmountMinor int64 `json:"amount_minor" db:"amount_minor"`
	// CreditsMinor and BonusMinor are what the wallet receives on confirmation.
	CreditsMinor int64 `json:"credits_minor" db:"credits_minor"`
	BonusMinor   int64 `json:"bonus_minor" db:"bonus_minor"`

	Status PaymentStatus `json:"status" db:"status"`

	CheckoutSessionID string `json:"checkout_session_id,omitempty" db:"checkout_session_id"`

	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)
