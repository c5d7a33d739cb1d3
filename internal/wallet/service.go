package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service provides wallet operations.
//
// Money invariants:
// - No balance updates without a ledger entry
// - Ledger is append-only (immutable)
// - Every entry carries balance_before/balance_after snapshots
// - A failed debit leaves no trace (no entry, no balance change)
//
// Tenancy invariant:
// - company_id is required and enforced in all queries
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrWalletDisabled      = errors.New("wallet disabled")
	ErrRefundExceedsCharge = errors.New("refund exceeds original charge")
	ErrNotRefundable       = errors.New("transaction is not a refundable charge")
)

type CreditRequest struct {
	Type          TransactionType `json:"type"`
	AmountMinor   int64           `json:"amount_minor"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`

	IdempotencyKey string `json:"idempotency_key"`
}

type ChargeRequest struct {
	AmountMinor   int64  `json:"amount_minor"`
	Currency      string `json:"currency"`
	Description   string `json:"description,omitempty"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`

	IdempotencyKey string `json:"idempotency_key"`
}

type RefundRequest struct {
	// ChargeTransactionID is the original charge being reversed. Required.
	ChargeTransactionID string `json:"charge_transaction_id"`

	// AmountMinor is the refund amount. Zero means refund the full charge.
	AmountMinor int64 `json:"amount_minor"`

	Description string `json:"description,omitempty"`

	IdempotencyKey string `json:"idempotency_key"`
}

type AdjustRequest struct {
	// AmountMinor is signed: positive credits, negative debits.
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Reason      string `json:"reason"`

	AdminUserID string `json:"admin_user_id"`
	AdminRole   string `json:"admin_role"`

	IdempotencyKey string `json:"idempotency_key"`
}

func (s *Service) Ensure(ctx context.Context, companyID, currency string) (Wallet, error) {
	if companyID == "" || currency == "" {
		return Wallet{}, ErrInvalidArgument
	}
	return s.repo.Ensure(ctx, companyID, currency)
}

func (s *Service) GetBalance(ctx context.Context, companyID string) (Wallet, error) {
	if companyID == "" {
		return Wallet{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, companyID)
}

func (s *Service) GetTransaction(ctx context.Context, companyID, transactionID string) (Transaction, error) {
	if companyID == "" || transactionID == "" {
		return Transaction{}, ErrInvalidArgument
	}
	return s.repo.GetTransaction(ctx, companyID, transactionID)
}

func (s *Service) ListTransactions(ctx context.Context, companyID string, filter TransactionFilter) ([]Transaction, error) {
	if companyID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListTransactions(ctx, companyID, filter.withDefaults())
}

// Credit posts a positive entry (purchase, bonus, promo, positive adjustment).
func (s *Service) Credit(ctx context.Context, companyID string, req CreditRequest) (Transaction, error) {
	if err := validateMoneyReq(companyID, req.AmountMinor, req.Currency, req.IdempotencyKey); err != nil {
		return Transaction{}, err
	}
	if req.AmountMinor <= 0 {
		return Transaction{}, ErrInvalidArgument
	}
	if !req.Type.IsCreditType() {
		return Transaction{}, ErrInvalidArgument
	}
	if req.Type == TransactionTypeRefund {
		// Refunds must go through Refund so the charge linkage is enforced.
		return Transaction{}, ErrInvalidArgument
	}

	w, err := s.walletForWrite(ctx, companyID)
	if err != nil {
		return Transaction{}, err
	}
	if w.Currency != req.Currency {
		return Transaction{}, ErrInvalidArgument
	}

	entry := Transaction{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		WalletID:       w.ID,
		Type:           req.Type,
		AmountMinor:    req.AmountMinor,
		Currency:       req.Currency,
		Description:    req.Description,
		ReferenceType:  req.ReferenceType,
		ReferenceID:    req.ReferenceID,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      s.clock().UTC(),
	}
	applied, _, err := s.repo.Post(ctx, entry)
	return applied, err
}

// Charge debits the wallet. On insufficient funds it returns
// ErrInsufficientFunds and guarantees no entry was written.
func (s *Service) Charge(ctx context.Context, companyID string, req ChargeRequest) (Transaction, error) {
	if err := validateMoneyReq(companyID, req.AmountMinor, req.Currency, req.IdempotencyKey); err != nil {
		return Transaction{}, err
	}
	if req.AmountMinor <= 0 {
		return Transaction{}, ErrInvalidArgument
	}
	if req.ReferenceType == "" || req.ReferenceID == "" {
		return Transaction{}, ErrInvalidArgument
	}

	w, err := s.walletForWrite(ctx, companyID)
	if err != nil {
		return Transaction{}, err
	}
	if w.Currency != req.Currency {
		return Transaction{}, ErrInvalidArgument
	}

	entry := Transaction{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		WalletID:       w.ID,
		Type:           TransactionTypeCharge,
		AmountMinor:    -req.AmountMinor,
		Currency:       req.Currency,
		Description:    req.Description,
		ReferenceType:  req.ReferenceType,
		ReferenceID:    req.ReferenceID,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      s.clock().UTC(),
	}
	applied, _, err := s.repo.Post(ctx, entry)
	return applied, err
}

// Refund reverses a prior charge, in full or in part. Cumulative refunds for a
// charge never exceed the charged amount; the repository enforces the cap under
// the wallet lock.
func (s *Service) Refund(ctx context.Context, companyID string, req RefundRequest) (Transaction, error) {
	if companyID == "" || req.ChargeTransactionID == "" || req.IdempotencyKey == "" {
		return Transaction{}, ErrInvalidArgument
	}
	if req.AmountMinor < 0 {
		return Transaction{}, ErrInvalidArgument
	}

	orig, err := s.repo.GetTransaction(ctx, companyID, req.ChargeTransactionID)
	if err != nil {
		return Transaction{}, err
	}
	if orig.Type != TransactionTypeCharge {
		return Transaction{}, ErrNotRefundable
	}

	chargedMinor := -orig.AmountMinor // charges are stored negative
	amount := req.AmountMinor
	if amount == 0 {
		amount = chargedMinor
	}
	if amount > chargedMinor {
		return Transaction{}, ErrRefundExceedsCharge
	}

	w, err := s.walletForWrite(ctx, companyID)
	if err != nil {
		return Transaction{}, err
	}

	entry := Transaction{
		ID:                   uuid.NewString(),
		CompanyID:            companyID,
		WalletID:             w.ID,
		Type:                 TransactionTypeRefund,
		AmountMinor:          amount,
		Currency:             orig.Currency,
		Description:          req.Description,
		ReferenceType:        orig.ReferenceType,
		ReferenceID:          orig.ReferenceID,
		RelatedTransactionID: orig.ID,
		IdempotencyKey:       req.IdempotencyKey,
		CreatedAt:            s.clock().UTC(),
	}
	applied, _, err := s.repo.Post(ctx, entry)
	return applied, err
}

// Adjust posts a manual admin correction. Negative adjustments are funds-checked
// like any other debit.
func (s *Service) Adjust(ctx context.Context, companyID string, req AdjustRequest) (Transaction, error) {
	if err := validateMoneyReq(companyID, req.AmountMinor, req.Currency, req.IdempotencyKey); err != nil {
		return Transaction{}, err
	}
	if req.AdminUserID == "" || req.AdminRole == "" || req.Reason == "" {
		return Transaction{}, ErrInvalidArgument
	}

	w, err := s.walletForWrite(ctx, companyID)
	if err != nil {
		return Transaction{}, err
	}
	if w.Currency != req.Currency {
		return Transaction{}, ErrInvalidArgument
	}

	entry := Transaction{
		ID:             uuid.NewString(),
		CompanyID:      companyID,
		WalletID:       w.ID,
		Type:           TransactionTypeAdjustment,
		AmountMinor:    req.AmountMinor,
		Currency:       req.Currency,
		Description:    req.Reason,
		ReferenceType:  "admin_user",
		ReferenceID:    req.AdminUserID,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      s.clock().UTC(),
	}
	applied, _, err := s.repo.Post(ctx, entry)
	return applied, err
}

func (s *Service) walletForWrite(ctx context.Context, companyID string) (Wallet, error) {
	w, err := s.repo.Get(ctx, companyID)
	if err != nil {
		return Wallet{}, err
	}
	if w.Status != WalletStatusActive {
		return Wallet{}, ErrWalletDisabled
	}
	return w, nil
}

func validateMoneyReq(companyID string, amountMinor int64, currency, idempotencyKey string) error {
	if companyID == "" {
		return ErrInvalidArgument
	}
	if currency == "" {
		return ErrInvalidArgument
	}
	if idempotencyKey == "" {
		return ErrInvalidArgument
	}
	if amountMinor == 0 {
		return ErrInvalidArgument
	}
	return nil
}
