package disputes

import (
	"context"
	"errors"
	"time"

	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/calls"
	"leadmarket-platform/internal/wallet"

	"github.com/google/uuid"
)

// Service drives the dispute workflow.
//
// Invariants:
// - a dispute opens only against a billed call, inside the dispute window
// - one open dispute per call at a time
// - resolution is idempotent: terminal disputes reject further transitions
//   with ErrAlreadyResolved (never a silent double refund)
// - approved/partial outcomes refund through the wallet under the dispute's
//   idempotency key, so a crashed resolution can be retried safely
type Service struct {
	repo     Repository
	callsSvc CallStore
	wallets  WalletService
	settings SettingsSource
	clock    func() time.Time
}

// CallStore is the slice of the call API disputes need.
type CallStore interface {
	Get(ctx context.Context, companyID, id string) (calls.CallLog, error)
	SetBillingStatus(ctx context.Context, companyID, id string, status calls.BillingStatus) error
}

// WalletService issues refunds against the original charge.
type WalletService interface {
	Refund(ctx context.Context, companyID string, req wallet.RefundRequest) (wallet.Transaction, error)
}

// SettingsSource provides the dispute window configuration.
type SettingsSource interface {
	Get(ctx context.Context) (billing.Settings, error)
}

func NewService(repo Repository, callsSvc CallStore, wallets WalletService, settings SettingsSource) *Service {
	return &Service{
		repo:     repo,
		callsSvc: callsSvc,
		wallets:  wallets,
		settings: settings,
		clock:    time.Now,
	}
}

var (
	ErrNotFound        = errors.New("dispute not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCallNotBilled   = errors.New("call is not billed")
	ErrWindowClosed    = errors.New("dispute window closed")
	ErrAlreadyOpen     = errors.New("call already has an open dispute")
	ErrAlreadyResolved = errors.New("dispute already resolved")
	ErrInvalidOutcome  = errors.New("invalid resolution outcome")
	ErrRefundTooLarge  = errors.New("refund amount exceeds billed price")
	ErrRefundPending   = errors.New("partial refund requires an amount")
)

type OpenRequest struct {
	CallLogID string      `json:"call_log_id"`
	Type      DisputeType `json:"type"`
	Reason    string      `json:"reason,omitempty"`
}

type ResolveRequest struct {
	Outcome Status `json:"outcome"`

	// RefundAmountMinor is required for partial_refund and ignored otherwise.
	RefundAmountMinor int64 `json:"refund_amount_minor,omitempty"`

	ResolvedBy string `json:"resolved_by"`
	Notes      string `json:"notes,omitempty"`
}

// Open files a dispute against a billed call and flips the call to disputed.
func (s *Service) Open(ctx context.Context, companyID string, req OpenRequest) (Dispute, error) {
	if companyID == "" || req.CallLogID == "" {
		return Dispute{}, ErrInvalidArgument
	}
	if !ValidDisputeType(req.Type) {
		return Dispute{}, ErrInvalidArgument
	}

	call, err := s.callsSvc.Get(ctx, companyID, req.CallLogID)
	if err != nil {
		return Dispute{}, err
	}
	if call.BillingStatus != calls.BillingStatusBilled {
		return Dispute{}, ErrCallNotBilled
	}

	now := s.clock().UTC()
	if call.DisputeLockedAt != nil {
		return Dispute{}, ErrWindowClosed
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return Dispute{}, err
	}
	if call.BilledAt == nil || now.After(call.BilledAt.Add(settings.DisputeWindow())) {
		return Dispute{}, ErrWindowClosed
	}

	open, err := s.repo.HasOpen(ctx, call.ID)
	if err != nil {
		return Dispute{}, err
	}
	if open {
		return Dispute{}, ErrAlreadyOpen
	}

	d := Dispute{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		CallLogID: call.ID,
		Type:      req.Type,
		Status:    StatusPending,
		Reason:    req.Reason,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return Dispute{}, err
	}
	if err := s.callsSvc.SetBillingStatus(ctx, companyID, call.ID, calls.BillingStatusDisputed); err != nil {
		return Dispute{}, err
	}
	return d, nil
}

// StartReview moves a pending dispute to under_review.
func (s *Service) StartReview(ctx context.Context, companyID, disputeID string) (Dispute, error) {
	d, err := s.repo.Get(ctx, companyID, disputeID)
	if err != nil {
		return Dispute{}, err
	}
	if d.Status.IsTerminal() {
		return Dispute{}, ErrAlreadyResolved
	}
	if d.Status != StatusPending {
		return d, nil
	}
	d.Status = StatusUnderReview
	d.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, d); err != nil {
		return Dispute{}, err
	}
	return d, nil
}

// Resolve finalizes a dispute.
//
// approved       -> full refund of the original charge, call refunded
// partial_refund -> refund of the requested amount (capped), call refunded
// rejected       -> no ledger effect, call back to billed
func (s *Service) Resolve(ctx context.Context, companyID, disputeID string, req ResolveRequest) (Dispute, error) {
	if companyID == "" || disputeID == "" || req.ResolvedBy == "" {
		return Dispute{}, ErrInvalidArgument
	}
	if !req.Outcome.IsOutcome() {
		return Dispute{}, ErrInvalidOutcome
	}

	d, err := s.repo.Get(ctx, companyID, disputeID)
	if err != nil {
		return Dispute{}, err
	}
	if d.Status.IsTerminal() {
		return Dispute{}, ErrAlreadyResolved
	}

	call, err := s.callsSvc.Get(ctx, companyID, d.CallLogID)
	if err != nil {
		return Dispute{}, err
	}

	now := s.clock().UTC()

	switch req.Outcome {
	case StatusApproved, StatusPartialRefund:
		amount := int64(0) // zero means full refund
		if req.Outcome == StatusPartialRefund {
			if req.RefundAmountMinor <= 0 {
				return Dispute{}, ErrRefundPending
			}
			if req.RefundAmountMinor > call.BillingPriceMinor {
				return Dispute{}, ErrRefundTooLarge
			}
			amount = req.RefundAmountMinor
		}

		txn, err := s.wallets.Refund(ctx, companyID, wallet.RefundRequest{
			ChargeTransactionID: call.ChargeTransactionID,
			AmountMinor:         amount,
			Description:         "dispute resolution",
			IdempotencyKey:      "dispute:" + d.ID,
		})
		if err != nil {
			if errors.Is(err, wallet.ErrRefundExceedsCharge) {
				return Dispute{}, ErrRefundTooLarge
			}
			return Dispute{}, err
		}

		d.RefundAmountMinor = txn.AmountMinor
		d.RefundTransactionID = txn.ID
		if err := s.callsSvc.SetBillingStatus(ctx, companyID, call.ID, calls.BillingStatusRefunded); err != nil {
			return Dispute{}, err
		}

	case StatusRejected:
		// No ledger effect; the charge stands.
		if err := s.callsSvc.SetBillingStatus(ctx, companyID, call.ID, calls.BillingStatusBilled); err != nil {
			return Dispute{}, err
		}
	}

	d.Status = req.Outcome
	d.ResolvedBy = req.ResolvedBy
	d.ResolutionNotes = req.Notes
	d.ResolvedAt = &now
	d.UpdatedAt = now
	if err := s.repo.Update(ctx, d); err != nil {
		return Dispute{}, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (Dispute, error) {
	if companyID == "" || id == "" {
		return Dispute{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID string, filter ListFilter) ([]Dispute, error) {
	if companyID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, companyID, filter.withDefaults())
}
