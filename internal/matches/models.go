package matches

import "time"

// Match links a routed lead to a provider company.
//
// Lifecycle:
//   offered -> viewed -> accepted -> {won, lost}
//   offered/viewed -> declined | expired
//   accepted (charged) -> refunded
//
// Money invariant: accepting debits the wallet exactly once (idempotency key
// derived from the match id); a refund references that charge and never
// exceeds it.
type Match struct {
	ID        string `json:"id" db:"id"`
	LeadID    string `json:"lead_id" db:"lead_id"`
	CompanyID string `json:"company_id" db:"company_id"`

	Status Status `json:"status" db:"status"`

	// LeadPriceMinor is the price quoted at offer time and charged on accept.
	LeadPriceMinor int64 `json:"lead_price_minor" db:"lead_price_minor"`

	ChargeTransactionID string `json:"charge_transaction_id,omitempty" db:"charge_transaction_id"`
	RefundTransactionID string `json:"refund_transaction_id,omitempty" db:"refund_transaction_id"`

	OfferedAt  time.Time  `json:"offered_at" db:"offered_at"`
	ViewedAt   *time.Time `json:"viewed_at,omitempty" db:"viewed_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`

	// ResponseTimeMinutes is offered_at -> accepted_at, for provider analytics.
	ResponseTimeMinutes int `json:"response_time_minutes,omitempty" db:"response_time_minutes"`

	QuoteAmountMinor int64  `json:"quote_amount_minor,omitempty" db:"quote_amount_minor"`
	QuoteMessage     string `json:"quote_message,omitempty" db:"quote_message"`

	WonValueMinor int64  `json:"won_value_minor,omitempty" db:"won_value_minor"`
	LostReason    string `json:"lost_reason,omitempty" db:"lost_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusOffered  Status = "offered"
	StatusViewed   Status = "viewed"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
	StatusWon      Status = "won"
	StatusLost     Status = "lost"
	StatusRefunded Status = "refunded"
)

// CanAccept reports whether a match in this status may still be accepted.
func (s Status) CanAccept() bool {
	return s == StatusOffered || s == StatusViewed
}

// IsOpenOffer reports whether the offer is still awaiting a provider decision.
func (s Status) IsOpenOffer() bool {
	return s == StatusOffered || s == StatusViewed
}
