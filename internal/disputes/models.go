package disputes

import "time"

// Dispute is a contractor-initiated challenge against a billed call.
//
// State machine:
//   pending -> under_review -> {approved, rejected, partial_refund}
//   pending ------------------^
// The right-hand states are terminal.
type Dispute struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`
	CallLogID string `json:"call_log_id" db:"call_log_id"`

	Type   DisputeType `json:"type" db:"type"`
	Status Status      `json:"status" db:"status"`

	Reason string `json:"reason,omitempty" db:"reason"`

	// RefundAmountMinor is set when resolution issues a refund.
	RefundAmountMinor   int64  `json:"refund_amount_minor,omitempty" db:"refund_amount_minor"`
	RefundTransactionID string `json:"refund_transaction_id,omitempty" db:"refund_transaction_id"`

	ResolvedBy      string     `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolutionNotes string     `json:"resolution_notes,omitempty" db:"resolution_notes"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type DisputeType string

const (
	DisputeTypeWrongNumber   DisputeType = "wrong_number"
	DisputeTypeNotInterested DisputeType = "not_interested"
	DisputeTypeSpam          DisputeType = "spam"
	DisputeTypePoorQuality   DisputeType = "poor_quality"
	DisputeTypeDuplicate     DisputeType = "duplicate"
	DisputeTypeOther         DisputeType = "other"
)

func ValidDisputeType(t DisputeType) bool {
	switch t {
	case DisputeTypeWrongNumber, DisputeTypeNotInterested, DisputeTypeSpam,
		DisputeTypePoorQuality, DisputeTypeDuplicate, DisputeTypeOther:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending       Status = "pending"
	StatusUnderReview   Status = "under_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusPartialRefund Status = "partial_refund"
)

// IsTerminal reports whether a dispute can no longer change state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusPartialRefund:
		return true
	default:
		return false
	}
}

// IsOutcome reports whether s is a valid resolution target.
func (s Status) IsOutcome() bool {
	return s.IsTerminal()
}
