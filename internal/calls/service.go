package calls

import (
	"context"
	"errors"
	"time"

	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/pricing"
	"leadmarket-platform/internal/wallet"

	"github.com/google/uuid"
)

// Service ingests call events and drives call billing.
//
// Billing flow per call:
// qualify (duration gate) -> resolve price (rules + clamp) -> wallet charge.
// Insufficient funds is not an error here: the call simply stays pending and
// can be retried once the wallet is topped up.
type Service struct {
	repo     Repository
	settings SettingsSource
	pricer   PriceResolver
	wallets  WalletService
	clock    func() time.Time
}

// SettingsSource provides the current billing settings.
type SettingsSource interface {
	Get(ctx context.Context) (billing.Settings, error)
}

// PriceResolver resolves a price for a call's attributes.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, lead pricing.LeadAttributes, fb pricing.Fallback) (pricing.Quote, error)
}

// WalletService is the slice of the wallet API billing needs.
type WalletService interface {
	Charge(ctx context.Context, companyID string, req wallet.ChargeRequest) (wallet.Transaction, error)
}

func NewService(repo Repository, settings SettingsSource, pricer PriceResolver, wallets WalletService) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		pricer:   pricer,
		wallets:  wallets,
		clock:    time.Now,
	}
}

var (
	ErrNotFound        = errors.New("call not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotPending      = errors.New("call is not pending billing")
)

// IngestRequest is the provider-agnostic inbound call event.
type IngestRequest struct {
	CompanyID      string `json:"company_id"`
	ServiceID      string `json:"service_id,omitempty"`
	CampaignID     string `json:"campaign_id,omitempty"`
	CallerNumber   string `json:"caller_number"`
	TrackingNumber string `json:"tracking_number"`

	DurationSeconds int `json:"duration_seconds"`

	Region     string `json:"region,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`

	ProviderCallID string    `json:"provider_call_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// BillingResult reports what happened to a call during billing.
type BillingResult struct {
	CallID    string `json:"call_id"`
	Qualified bool   `json:"qualified"`
	Billed    bool   `json:"billed"`

	PriceMinor    int64  `json:"price_minor,omitempty"`
	RuleID        int64  `json:"rule_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`

	// Reason explains a non-billed outcome: below_min_duration,
	// auto_bill_disabled, insufficient_funds.
	Reason string `json:"reason,omitempty"`
}

// Ingest records an inbound call. Re-delivery of the same provider_call_id
// returns the existing row. When auto-billing is on, billing is attempted
// immediately.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (CallLog, BillingResult, error) {
	if req.CompanyID == "" || req.ProviderCallID == "" {
		return CallLog{}, BillingResult{}, ErrInvalidArgument
	}
	if req.DurationSeconds < 0 {
		return CallLog{}, BillingResult{}, ErrInvalidArgument
	}

	if existing, ok, err := s.repo.FindByProviderCallID(ctx, req.ProviderCallID); err != nil {
		return CallLog{}, BillingResult{}, err
	} else if ok {
		return existing, BillingResult{CallID: existing.ID, Billed: existing.BillingStatus == BillingStatusBilled}, nil
	}

	now := s.clock().UTC()
	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	c := CallLog{
		ID:              uuid.NewString(),
		CompanyID:       req.CompanyID,
		ServiceID:       req.ServiceID,
		CampaignID:      req.CampaignID,
		CallerNumber:    req.CallerNumber,
		TrackingNumber:  req.TrackingNumber,
		DurationSeconds: req.DurationSeconds,
		Region:          req.Region,
		City:            req.City,
		PostalCode:      req.PostalCode,
		BillingStatus:   BillingStatusPending,
		ProviderCallID:  req.ProviderCallID,
		OccurredAt:      occurred,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return CallLog{}, BillingResult{}, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return CallLog{}, BillingResult{}, err
	}
	if !settings.AutoBillEnabled {
		return c, BillingResult{CallID: c.ID, Qualified: billing.Qualify(c.DurationSeconds, settings.MinDurationSeconds), Reason: "auto_bill_disabled"}, nil
	}

	res, err := s.ProcessForBilling(ctx, c.CompanyID, c.ID)
	if err != nil {
		return CallLog{}, BillingResult{}, err
	}
	// Re-read so callers see the billed state.
	c, err = s.repo.Get(ctx, c.CompanyID, c.ID)
	if err != nil {
		return CallLog{}, BillingResult{}, err
	}
	return c, res, nil
}

// ProcessForBilling attempts to bill a pending call. Safe to retry: the wallet
// charge is idempotent on the call id, and non-pending calls are rejected.
func (s *Service) ProcessForBilling(ctx context.Context, companyID, callID string) (BillingResult, error) {
	if companyID == "" || callID == "" {
		return BillingResult{}, ErrInvalidArgument
	}

	c, err := s.repo.Get(ctx, companyID, callID)
	if err != nil {
		return BillingResult{}, err
	}
	if c.BillingStatus != BillingStatusPending {
		return BillingResult{}, ErrNotPending
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return BillingResult{}, err
	}

	if !billing.Qualify(c.DurationSeconds, settings.MinDurationSeconds) {
		return BillingResult{CallID: c.ID, Qualified: false, Reason: "below_min_duration"}, nil
	}

	quote, err := s.pricer.ResolvePrice(ctx, pricing.LeadAttributes{
		ServiceID:  c.ServiceID,
		Region:     c.Region,
		City:       c.City,
		PostalCode: c.PostalCode,
		Timing:     pricing.TimingASAP, // inbound calls are always immediate demand
	}, settings.Fallback())
	if err != nil {
		return BillingResult{}, err
	}
	price := billing.ClampPrice(settings, quote.PriceMinor)

	txn, err := s.wallets.Charge(ctx, c.CompanyID, wallet.ChargeRequest{
		AmountMinor:    price,
		Currency:       "USD",
		Description:    "qualified call",
		ReferenceType:  "call_log",
		ReferenceID:    c.ID,
		IdempotencyKey: "call:" + c.ID,
	})
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return BillingResult{CallID: c.ID, Qualified: true, PriceMinor: price, RuleID: quote.RuleID, Reason: "insufficient_funds"}, nil
		}
		return BillingResult{}, err
	}

	now := s.clock().UTC()
	c.BillingStatus = BillingStatusBilled
	c.BillingPriceMinor = price
	c.ChargeTransactionID = txn.ID
	c.BilledAt = &now
	c.UpdatedAt = now
	if err := s.repo.Update(ctx, c); err != nil {
		return BillingResult{}, err
	}

	return BillingResult{
		CallID:        c.ID,
		Qualified:     true,
		Billed:        true,
		PriceMinor:    price,
		RuleID:        quote.RuleID,
		TransactionID: txn.ID,
	}, nil
}

func (s *Service) Get(ctx context.Context, companyID, id string) (CallLog, error) {
	if companyID == "" || id == "" {
		return CallLog{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID string, filter ListFilter) ([]CallLog, error) {
	if companyID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, companyID, filter.withDefaults())
}

// SetBillingStatus updates only the billing status. Used by dispute resolution.
func (s *Service) SetBillingStatus(ctx context.Context, companyID, id string, status BillingStatus) error {
	if !ValidBillingStatus(status) {
		return ErrInvalidArgument
	}
	c, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return err
	}
	c.BillingStatus = status
	c.UpdatedAt = s.clock().UTC()
	return s.repo.Update(ctx, c)
}

// Waive marks a pending call as non-billable after manual review.
func (s *Service) Waive(ctx context.Context, companyID, id string) (CallLog, error) {
	c, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return CallLog{}, err
	}
	if c.BillingStatus != BillingStatusPending {
		return CallLog{}, ErrNotPending
	}
	c.BillingStatus = BillingStatusWaived
	c.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return CallLog{}, err
	}
	return c, nil
}

// LockExpiredDisputeWindows stamps dispute_locked_at on billed calls whose
// window has passed. Returns how many calls were locked.
func (s *Service) LockExpiredDisputeWindows(ctx context.Context, window time.Duration, limit int) (int, error) {
	if window <= 0 {
		return 0, ErrInvalidArgument
	}
	now := s.clock().UTC()
	cutoff := now.Add(-window)

	candidates, err := s.repo.ListDisputeLockCandidates(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	locked := 0
	for _, c := range candidates {
		at := now
		c.DisputeLockedAt = &at
		c.UpdatedAt = now
		if err := s.repo.Update(ctx, c); err != nil {
			return locked, err
		}
		locked++
	}
	return locked, nil
}
