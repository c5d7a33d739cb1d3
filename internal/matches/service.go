package matches

import (
	"context"
	"errors"
	"time"

	"leadmarket-platform/internal/wallet"

	"github.com/google/uuid"
)

// Service drives the provider side of the marketplace: receiving offers,
// accepting (and paying for) leads, and reporting outcomes.
type Service struct {
	repo    Repository
	leads   LeadStore
	wallets WalletService
	clock   func() time.Time
}

// LeadStore is the slice of the lead API matching needs. Slot reservation is
// how the sell-multiple model stays bounded: a lead with max_sold_count N can
// be accepted at most N times, no matter how many offers went out.
type LeadStore interface {
	Info(ctx context.Context, leadID string) (LeadInfo, error)

	// ReserveSlot atomically claims one sale slot on the lead. Returns
	// ErrLeadSoldOut when no slots remain.
	ReserveSlot(ctx context.Context, leadID string) (SlotState, error)

	// ReleaseSlot returns a previously reserved slot, used when the wallet
	// charge after reservation fails.
	ReleaseSlot(ctx context.Context, leadID string) error
}

// LeadInfo is the read-only view of a lead the match lifecycle needs.
type LeadInfo struct {
	ID          string
	PriceMinor  int64
	IsExclusive bool
	Status      string
}

// SlotState reports slot occupancy after a reservation.
type SlotState struct {
	SoldCount    int
	MaxSoldCount int
}

// SoldOut reports whether the reservation consumed the last slot.
func (s SlotState) SoldOut() bool { return s.SoldCount >= s.MaxSoldCount }

// WalletService is the slice of the wallet API matching needs.
type WalletService interface {
	Charge(ctx context.Context, companyID string, req wallet.ChargeRequest) (wallet.Transaction, error)
	Refund(ctx context.Context, companyID string, req wallet.RefundRequest) (wallet.Transaction, error)
}

func NewService(repo Repository, leads LeadStore, wallets WalletService) *Service {
	return &Service{
		repo:    repo,
		leads:   leads,
		wallets: wallets,
		clock:   time.Now,
	}
}

var (
	ErrNotFound        = errors.New("match not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotOpen         = errors.New("match is no longer an open offer")
	ErrOfferExpired    = errors.New("offer has expired")
	ErrLeadSoldOut     = errors.New("lead is sold out")
	ErrNotAccepted     = errors.New("match is not accepted")
	ErrNotRefundable   = errors.New("match has no refundable charge")
	ErrInvalidOutcome  = errors.New("invalid outcome")
)

// Offer creates an offered match for a company. Called by the routing engine.
func (s *Service) Offer(ctx context.Context, leadID, companyID string, priceMinor int64, expiresAt time.Time) (Match, error) {
	if leadID == "" || companyID == "" || priceMinor < 0 {
		return Match{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	m := Match{
		ID:             uuid.NewString(),
		LeadID:         leadID,
		CompanyID:      companyID,
		Status:         StatusOffered,
		LeadPriceMinor: priceMinor,
		OfferedAt:      now,
		ExpiresAt:      expiresAt.UTC(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return Match{}, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (Match, error) {
	if companyID == "" || id == "" {
		return Match{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID string, filter ListFilter) ([]Match, error) {
	if companyID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListByCompany(ctx, companyID, filter.withDefaults())
}

func (s *Service) ListForLead(ctx context.Context, leadID string) ([]Match, error) {
	if leadID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListByLead(ctx, leadID)
}

// MarkViewed records first view of an offered match. Repeat views are no-ops.
func (s *Service) MarkViewed(ctx context.Context, companyID, id string) (Match, error) {
	m, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Match{}, err
	}
	if m.Status != StatusOffered {
		return m, nil
	}
	now := s.clock().UTC()
	m.Status = StatusViewed
	m.ViewedAt = &now
	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		return Match{}, err
	}
	return m, nil
}

// Accept claims a sale slot on the lead and charges the provider's wallet.
//
// Order matters: claim the match row first, so concurrent accepts of the same
// match cannot both reserve a slot; then reserve, then charge, unwinding both
// if a later step fails. The charge is idempotent on the match id, so a crash
// between charge and update cannot double-bill on retry.
func (s *Service) Accept(ctx context.Context, companyID, id string) (Match, error) {
	m, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Match{}, err
	}
	now := s.clock().UTC()
	if m.Status == StatusAccepted {
		if m.ChargeTransactionID != "" {
			return m, nil
		}
		return s.finishAccept(ctx, m, now)
	}
	if !m.Status.CanAccept() {
		return Match{}, ErrNotOpen
	}
	if now.After(m.ExpiresAt) {
		m.Status = StatusExpired
		m.UpdatedAt = now
		if err := s.repo.Update(ctx, m); err != nil {
			return Match{}, err
		}
		return Match{}, ErrOfferExpired
	}

	m, err = s.repo.ClaimForAccept(ctx, companyID, id, now)
	if errors.Is(err, ErrNotOpen) {
		// Lost a race against another accept; surface the winner's result
		// when it is already visible.
		cur, getErr := s.repo.Get(ctx, companyID, id)
		if getErr == nil && cur.Status == StatusAccepted {
			return cur, nil
		}
		return Match{}, ErrNotOpen
	}
	if err != nil {
		return Match{}, err
	}

	slot, err := s.leads.ReserveSlot(ctx, m.LeadID)
	if err != nil {
		if revErr := s.revertClaim(ctx, m, now); revErr != nil {
			return Match{}, revErr
		}
		return Match{}, err
	}

	txn, err := s.wallets.Charge(ctx, companyID, s.chargeFor(m))
	if err != nil {
		if relErr := s.leads.ReleaseSlot(ctx, m.LeadID); relErr != nil {
			return Match{}, relErr
		}
		if revErr := s.revertClaim(ctx, m, now); revErr != nil {
			return Match{}, revErr
		}
		return Match{}, err
	}

	m.ChargeTransactionID = txn.ID
	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		return Match{}, err
	}

	if slot.SoldOut() {
		if _, err := s.repo.ExpireOpenSiblings(ctx, m.LeadID, m.ID, now); err != nil {
			return Match{}, err
		}
	}
	return m, nil
}

func (s *Service) chargeFor(m Match) wallet.ChargeRequest {
	return wallet.ChargeRequest{
		AmountMinor:    m.LeadPriceMinor,
		Currency:       "USD",
		Description:    "accepted lead",
		ReferenceType:  "lead_match",
		ReferenceID:    m.ID,
		IdempotencyKey: "match:" + m.ID,
	}
}

// finishAccept completes an accept that crashed after its claim but before the
// charge landed. The charge key is stable on the match id, so finishing never
// double-bills, and no second slot is reserved.
func (s *Service) finishAccept(ctx context.Context, m Match, now time.Time) (Match, error) {
	txn, err := s.wallets.Charge(ctx, m.CompanyID, s.chargeFor(m))
	if err != nil {
		return Match{}, err
	}
	m.ChargeTransactionID = txn.ID
	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		return Match{}, err
	}
	return m, nil
}

// revertClaim puts a claimed match back to its pre-accept state after slot
// reservation or the charge failed.
func (s *Service) revertClaim(ctx context.Context, m Match, now time.Time) error {
	m.Status = StatusOffered
	if m.ViewedAt != nil {
		m.Status = StatusViewed
	}
	m.AcceptedAt = nil
	m.ResponseTimeMinutes = 0
	m.UpdatedAt = now
	return s.repo.Update(ctx, m)
}

// Decline turns down an open offer. No money moves.
func (s *Service) Decline(ctx context.Context, companyID, id, reason string) (Match, error) {
	m, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Match{}, err
	}
	if !m.Status.IsOpenOffer() {
		return Match{}, ErrNotOpen
	}
	now := s.clock().UTC()
	m.Status = StatusDeclined
	m.LostReason = reason
	m.UpdatedAt = now
	if err := s.repo.Update(ctx, m); err != nil {
		return Match{}, err
	}
	return m, nil
}

// SubmitQuote attaches the provider's quote to an accepted match.
func (s *Service) SubmitQuote(ctx context.Context, companyID, id string, amountMinor int64, message string) (Match, error) {
	if amountMinor <= 0 {
		return Match{}, ErrInvalidArgument
	}
	m, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Match{}, err
	}
	if m.Status != StatusAccepted && m.Status != StatusWon && m.Status != StatusLost {
		return Match{}, ErrNotAccepted
	}
	m.QuoteAmountMinor = amountMinor
	m.QuoteMessage = message
	m.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, m); err != nil {
		return Match{}, err
	}
	return m, nil
}

// OutcomeRequest reports how an accepted lead ended.
type OutcomeRequest struct {
	Outcome       Status `json:"outcome"`
	WonValueMinor int64  `json:"won_value_minor,omitempty"`
	LostReason    string `json:"lost_reason,omitempty"`
}

// ReportOutcome records won/lost on an accepted match.
func (s *Service) ReportOutcome(ctx context.Context, companyID, id string, req OutcomeRequest) (Match, error) {
	if req.Outcome != StatusWon && req.Outcome != StatusLost {
		return Match{}, ErrInvalidOutcome
	}
	if req.Outcome == StatusWon && req.WonValueMinor < 0 {
		return Match{}, ErrInvalidArgument
	}
	m, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Match{}, err
	}
	if m.Status != StatusAccepted {
		return Match{}, ErrNotAccepted
	}
	m.Status = req.Outcome
	m.WonValueMinor = req.WonValueMinor
	m.LostReason = req.LostReason
	m.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, m); err != nil {
		return Match{}, err
	}
	return m, nil
}

// Refund reverses the charge on an accepted (or won/lost) match, in full or in
// part. Admin only; the wallet enforces the cumulative cap against the
// original charge.
func (s *Service) Refund(ctx context.Context, companyID, id string, amountMinor int64, reason string) (Match, error) {
	if amountMinor < 0 {
		return Match{}, ErrInvalidArgument
	}
	m, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return Match{}, err
	}
	if m.ChargeTransactionID == "" {
		return Match{}, ErrNotRefundable
	}
	if m.Status == StatusRefunded {
		return m, nil
	}

	txn, err := s.wallets.Refund(ctx, companyID, wallet.RefundRequest{
		ChargeTransactionID: m.ChargeTransactionID,
		AmountMinor:         amountMinor,
		Description:         reason,
		IdempotencyKey:      "match-refund:" + m.ID,
	})
	if err != nil {
		return Match{}, err
	}

	m.Status = StatusRefunded
	m.RefundTransactionID = txn.ID
	m.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, m); err != nil {
		return Match{}, err
	}
	return m, nil
}

// ExpireOverdue expires open offers whose window has passed. Returns how many
// were expired.
func (s *Service) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	now := s.clock().UTC()
	overdue, err := s.repo.ListExpiredOpen(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, m := range overdue {
		m.Status = StatusExpired
		m.UpdatedAt = now
		if err := s.repo.Update(ctx, m); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}
