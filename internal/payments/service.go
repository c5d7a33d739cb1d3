package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadmarket-platform/internal/wallet"

	"github.com/google/uuid"
)

// Service sells credit packages and confirms checkout payments into wallet
// credits.
type Service struct {
	repo     Repository
	wallets  WalletService
	checkout CheckoutProvider
	clock    func() time.Time
}

// WalletService is the slice of the wallet API payments needs.
type WalletService interface {
	Credit(ctx context.Context, companyID string, req wallet.CreditRequest) (wallet.Transaction, error)
}

// CheckoutProvider creates a hosted checkout session for a pending payment.
// The Stripe implementation lives in stripe.go.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, p Payment, pkg CreditPackage) (CheckoutSession, error)
}

// CheckoutSession is what the client needs to complete payment.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func NewService(repo Repository, wallets WalletService, checkout CheckoutProvider) *Service {
	return &Service{
		repo:     repo,
		wallets:  wallets,
		checkout: checkout,
		clock:    time.Now,
	}
}

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotPending      = errors.New("payment is not pending")
)

/* ===================== packages ===================== */

func (s *Service) CreatePackage(ctx context.Context, p CreditPackage) (CreditPackage, error) {
	if strings.TrimSpace(p.Name) == "" || p.PriceMinor <= 0 || p.CreditsMinor <= 0 || p.BonusMinor < 0 {
		return CreditPackage{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	p.ID = uuid.NewString()
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.CreatePackage(ctx, p); err != nil {
		return CreditPackage{}, err
	}
	return p, nil
}

func (s *Service) ListPackages(ctx context.Context, activeOnly bool) ([]CreditPackage, error) {
	return s.repo.ListPackages(ctx, activeOnly)
}

func (s *Service) SetPackageActive(ctx context.Context, id string, active bool) (CreditPackage, error) {
	p, err := s.repo.GetPackage(ctx, id)
	if err != nil {
		return CreditPackage{}, err
	}
	p.IsActive = active
	p.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdatePackage(ctx, p); err != nil {
		return CreditPackage{}, err
	}
	return p, nil
}

/* ===================== promos ===================== */

func (s *Service) CreatePromo(ctx context.Context, p PromoCode) (PromoCode, error) {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if p.Code == "" || p.Value <= 0 {
		return PromoCode{}, ErrInvalidArgument
	}
	switch p.Type {
	case PromoPercent:
		if p.Value > 100 {
			return PromoCode{}, ErrInvalidArgument
		}
	case PromoFixed, PromoCredits:
	default:
		return PromoCode{}, ErrInvalidArgument
	}
	p.ID = uuid.NewString()
	p.UsedCount = 0
	p.IsActive = true
	p.CreatedAt = s.clock().UTC()
	if err := s.repo.CreatePromo(ctx, p); err != nil {
		return PromoCode{}, err
	}
	return p, nil
}

/* ===================== checkout ===================== */

type CheckoutRequest struct {
	PackageID string `json:"package_id"`
	PromoCode string `json:"promo_code,omitempty"`
}

type CheckoutResult struct {
	Payment Payment         `json:"payment"`
	Session CheckoutSession `json:"session"`
}

// StartCheckout creates a pending payment and a hosted checkout session for
// it. Promo effects are priced in now and frozen on the payment row.
func (s *Service) StartCheckout(ctx context.Context, companyID string, req CheckoutRequest) (CheckoutResult, error) {
	if companyID == "" || req.PackageID == "" {
		return CheckoutResult{}, ErrInvalidArgument
	}
	pkg, err := s.repo.GetPackage(ctx, req.PackageID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if !pkg.IsActive {
		return CheckoutResult{}, ErrInvalidArgument
	}

	now := s.clock().UTC()
	p := Payment{
		ID:           uuid.NewString(),
		CompanyID:    companyID,
		PackageID:    pkg.ID,
		AmountMinor:  pkg.PriceMinor,
		CreditsMinor: pkg.CreditsMinor,
		BonusMinor:   pkg.BonusMinor,
		Status:       PaymentPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if code := strings.ToUpper(strings.TrimSpace(req.PromoCode)); code != "" {
		promo, err := s.repo.GetPromoByCode(ctx, code)
		if err != nil {
			return CheckoutResult{}, err
		}
		outcome, err := ApplyPromo(promo, pkg.PriceMinor, now)
		if err != nil {
			return CheckoutResult{}, err
		}
		p.PromoCodeID = promo.ID
		p.AmountMinor -= outcome.DiscountMinor
		p.BonusMinor += outcome.BonusCreditsMinor
	}

	session, err := s.checkout.CreateSession(ctx, p, pkg)
	if err != nil {
		return CheckoutResult{}, err
	}
	p.CheckoutSessionID = session.ID

	if err := s.repo.CreatePayment(ctx, p); err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{Payment: p, Session: session}, nil
}

// ConfirmPayment marks a payment completed and credits the wallet. Called by
// the payment provider webhook. Idempotent: a completed payment returns
// unchanged, and the wallet credits are keyed on the payment id.
func (s *Service) ConfirmPayment(ctx context.Context, paymentID string) (Payment, error) {
	if paymentID == "" {
		return Payment{}, ErrInvalidArgument
	}
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if p.Status == PaymentCompleted {
		return p, nil
	}
	if p.Status != PaymentPending {
		return Payment{}, ErrNotPending
	}

	if _, err := s.wallets.Credit(ctx, p.CompanyID, wallet.CreditRequest{
		Type:           wallet.TransactionTypePurchase,
		AmountMinor:    p.CreditsMinor,
		Currency:       "USD",
		Description:    "credit package purchase",
		ReferenceType:  "payment",
		ReferenceID:    p.ID,
		IdempotencyKey: "payment:" + p.ID,
	}); err != nil {
		return Payment{}, err
	}
	if p.BonusMinor > 0 {
		bonusType := wallet.TransactionTypeBonus
		if p.PromoCodeID != "" {
			bonusType = wallet.TransactionTypePromo
		}
		if _, err := s.wallets.Credit(ctx, p.CompanyID, wallet.CreditRequest{
			Type:           bonusType,
			AmountMinor:    p.BonusMinor,
			Currency:       "USD",
			Description:    "purchase bonus credits",
			ReferenceType:  "payment",
			ReferenceID:    p.ID,
			IdempotencyKey: "payment-bonus:" + p.ID,
		}); err != nil {
			return Payment{}, err
		}
	}

	if p.PromoCodeID != "" {
		if err := s.repo.IncrementPromoUse(ctx, p.PromoCodeID); err != nil {
			return Payment{}, err
		}
	}

	now := s.clock().UTC()
	p.Status = PaymentCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now
	if err := s.repo.UpdatePayment(ctx, p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// FailPayment records a failed or abandoned checkout.
func (s *Service) FailPayment(ctx context.Context, paymentID string) (Payment, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if p.Status != PaymentPending {
		return Payment{}, ErrNotPending
	}
	p.Status = PaymentFailed
	p.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdatePayment(ctx, p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (s *Service) ListPayments(ctx context.Context, companyID string, limit, offset int) ([]Payment, error) {
	if companyID == "" {
		return nil, ErrInvalidArgument
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPayments(ctx, companyID, limit, offset)
}
