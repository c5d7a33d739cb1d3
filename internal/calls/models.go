package calls

import "time"

// CallLog represents a tracked inbound call attributed to a provider company.
//
// Multi-tenant invariant: CompanyID is required on every row.
//
// Provider-specific identifiers are kept in ProviderCallID; business logic
// stays provider-agnostic.
//
// Money invariant reminder: billing charges reference the call via the wallet
// ledger (reference_id) rather than mutating money fields here; this row only
// caches the outcome (billing_status, billing_price_minor, charge txn id).
type CallLog struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`

	ServiceID  string `json:"service_id,omitempty" db:"service_id"`
	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`

	CallerNumber   string `json:"caller_number" db:"caller_number"`
	TrackingNumber string `json:"tracking_number" db:"tracking_number"`

	// DurationSeconds is the call duration in seconds.
	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// Caller location, used for pricing rule resolution.
	Region     string `json:"region,omitempty" db:"region"`
	City       string `json:"city,omitempty" db:"city"`
	PostalCode string `json:"postal_code,omitempty" db:"postal_code"`

	BillingStatus     BillingStatus `json:"billing_status" db:"billing_status"`
	BillingPriceMinor int64         `json:"billing_price_minor" db:"billing_price_minor"`

	// ChargeTransactionID links to the wallet charge once billed.
	ChargeTransactionID string     `json:"charge_transaction_id,omitempty" db:"charge_transaction_id"`
	BilledAt            *time.Time `json:"billed_at,omitempty" db:"billed_at"`

	// DisputeLockedAt is stamped by the sweep once the dispute window closes.
	DisputeLockedAt *time.Time `json:"dispute_locked_at,omitempty" db:"dispute_locked_at"`

	ProviderCallID string    `json:"provider_call_id,omitempty" db:"provider_call_id"`
	OccurredAt     time.Time `json:"occurred_at" db:"occurred_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type BillingStatus string

const (
	BillingStatusPending  BillingStatus = "pending"
	BillingStatusBilled   BillingStatus = "billed"
	BillingStatusDisputed BillingStatus = "disputed"
	BillingStatusRefunded BillingStatus = "refunded"
	BillingStatusWaived   BillingStatus = "waived"
)

func ValidBillingStatus(s BillingStatus) bool {
	switch s {
	case BillingStatusPending, BillingStatusBilled, BillingStatusDisputed, BillingStatusRefunded, BillingStatusWaived:
		return true
	default:
		return false
	}
}
