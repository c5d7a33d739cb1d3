package reporting

import "time"

// Range is a half-open reporting window [From, To).
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r Range) Valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

type BillingSummaryRequest struct {
	CompanyID string `json:"company_id"`
	Range     Range  `json:"range"`
}

// BillingSummary aggregates a company's pay-per-call billing over a window.
type BillingSummary struct {
	CompanyID string `json:"company_id"`
	Range     Range  `json:"range"`

	TotalCalls     int `json:"total_calls"`
	QualifiedCalls int `json:"qualified_calls"`
	BilledCalls    int `json:"billed_calls"`
	DisputedCalls  int `json:"disputed_calls"`
	RefundedCalls  int `json:"refunded_calls"`
	WaivedCalls    int `json:"waived_calls"`

	BilledAmountMinor   int64 `json:"billed_amount_minor"`
	RefundedAmountMinor int64 `json:"refunded_amount_minor"`

	DisputesOpened   int `json:"disputes_opened"`
	DisputesApproved int `json:"disputes_approved"`
	DisputesRejected int `json:"disputes_rejected"`

	WalletBalanceMinor int64 `json:"wallet_balance_minor"`
}

type LeadStatsRequest struct {
	Range     Range  `json:"range"`
	ServiceID string `json:"service_id,omitempty"`
}

// LeadStats aggregates marketplace performance over a window.
type LeadStats struct {
	Range     Range  `json:"range"`
	ServiceID string `json:"service_id,omitempty"`

	TotalLeads     int            `json:"total_leads"`
	ByStatus       map[string]int `json:"by_status"`
	SpamLeads      int            `json:"spam_leads"`
	DuplicateLeads int            `json:"duplicate_leads"`

	OffersSent     int `json:"offers_sent"`
	OffersAccepted int `json:"offers_accepted"`
	OffersDeclined int `json:"offers_declined"`
	OffersExpired  int `json:"offers_expired"`

	// AcceptanceRate is accepted (or later) offers over all sent, 0..1.
	AcceptanceRate float64 `json:"acceptance_rate"`

	RevenueMinor int64 `json:"revenue_minor"`
}
