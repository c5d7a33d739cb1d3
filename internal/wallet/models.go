package wallet

import "time"

// Wallet models are tenant-scoped (company_id required everywhere).
// Amounts are expressed in minor units (e.g., cents) using int64.

// Wallet is the per-company balance row.
// Invariant: BalanceMinor must only change together with an appended Transaction
// carrying matching before/after snapshots.
type Wallet struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`
	Currency  string `json:"currency" db:"currency"`

	BalanceMinor int64 `json:"balance_minor" db:"balance_minor"`

	// Lifetime counters are derived alongside the ledger, never edited directly.
	LifetimePurchasedMinor int64 `json:"lifetime_purchased_minor" db:"lifetime_purchased_minor"`
	LifetimeSpentMinor     int64 `json:"lifetime_spent_minor" db:"lifetime_spent_minor"`

	Status WalletStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type WalletStatus string

const (
	WalletStatusActive   WalletStatus = "active"
	WalletStatusDisabled WalletStatus = "disabled"
)

// Transaction is an immutable append-only ledger entry.
//
// Multi-tenant invariant: company_id required.
// Money invariant: any balance change MUST have a corresponding entry, and the
// entry records the balance before and after it was applied.
type Transaction struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`
	WalletID  string `json:"wallet_id" db:"wallet_id"`

	// Type categorizes the entry. Keep stable.
	Type TransactionType `json:"type" db:"type"`

	// AmountMinor is the signed amount in minor units.
	// Credits are positive, debits are negative.
	AmountMinor int64  `json:"amount_minor" db:"amount_minor"`
	Currency    string `json:"currency" db:"currency"`

	// Balance snapshots taken at apply time, under the wallet lock.
	BalanceBeforeMinor int64 `json:"balance_before_minor" db:"balance_before_minor"`
	BalanceAfterMinor  int64 `json:"balance_after_minor" db:"balance_after_minor"`

	Description string `json:"description,omitempty" db:"description"`

	// ReferenceType/ReferenceID point at the domain object that caused the entry:
	// lead_match, call_log, dispute, payment.
	ReferenceType string `json:"reference_type,omitempty" db:"reference_type"`
	ReferenceID   string `json:"reference_id,omitempty" db:"reference_id"`

	// RelatedTransactionID links a refund back to the charge it reverses.
	RelatedTransactionID string `json:"related_transaction_id,omitempty" db:"related_transaction_id"`

	// IdempotencyKey is required for safe retries of money-posting operations.
	IdempotencyKey string `json:"idempotency_key" db:"idempotency_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "purchase"   // paid top-up
	TransactionTypeCharge     TransactionType = "charge"     // lead/call debit
	TransactionTypeRefund     TransactionType = "refund"     // reversal of a charge
	TransactionTypeAdjustment TransactionType = "adjustment" // manual admin correction
	TransactionTypeBonus      TransactionType = "bonus"      // package bonus credits
	TransactionTypePromo      TransactionType = "promo"      // promo code credits
)

// CreditTypes lists transaction types that may post positive amounts.
func (t TransactionType) IsCreditType() bool {
	switch t {
	case TransactionTypePurchase, TransactionTypeRefund, TransactionTypeAdjustment, TransactionTypeBonus, TransactionTypePromo:
		return true
	default:
		return false
	}
}
