package leads

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"leadmarket-platform/internal/billing"
	"leadmarket-platform/internal/matches"
	"leadmarket-platform/internal/pricing"

	"github.com/google/uuid"
)

// Service owns lead intake and the lead side of the sell-multiple model.
//
// Intake order: validate -> rate limit -> dedupe -> score -> price. A spam or
// duplicate lead is still stored so operators can audit what was filtered.
type Service struct {
	repo     Repository
	settings SettingsSource
	pricer   PriceResolver
	limiter  RateLimiter
	clock    func() time.Time
}

// SettingsSource provides the current billing settings.
type SettingsSource interface {
	Get(ctx context.Context) (billing.Settings, error)
}

// PriceResolver resolves a sale price for a lead's attributes.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, lead pricing.LeadAttributes, fb pricing.Fallback) (pricing.Quote, error)
}

func NewService(repo Repository, settings SettingsSource, pricer PriceResolver, limiter RateLimiter) *Service {
	if limiter == nil {
		limiter = NopLimiter{}
	}
	return &Service{
		repo:     repo,
		settings: settings,
		pricer:   pricer,
		limiter:  limiter,
		clock:    time.Now,
	}
}

var (
	ErrNotFound        = errors.New("lead not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrDuplicate       = errors.New("duplicate lead within dedupe window")
	ErrRateLimited     = errors.New("intake rate limit exceeded")
	ErrNotRoutable     = errors.New("lead is not routable")

	// ErrSoldOut is returned when a sale slot cannot be reserved.
	ErrSoldOut = matches.ErrLeadSoldOut
)

// DedupeWindow is how long the same contact cannot resubmit the same service.
const DedupeWindow = 24 * time.Hour

type CreateRequest struct {
	ServiceID string `json:"service_id"`

	Region     string   `json:"region,omitempty"`
	City       string   `json:"city,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	BudgetMinMinor *int64 `json:"budget_min_minor,omitempty"`
	BudgetMaxMinor *int64 `json:"budget_max_minor,omitempty"`

	Timing       pricing.Timing `json:"timing,omitempty"`
	PropertyType string         `json:"property_type,omitempty"`
	IsExclusive  bool           `json:"is_exclusive,omitempty"`

	Source   string `json:"source,omitempty"`
	SourceIP string `json:"-"`
}

// Create records a new lead from the public intake.
//
// A duplicate submission is stored with status duplicate and returned together
// with ErrDuplicate so the caller can surface the conflict.
func (s *Service) Create(ctx context.Context, req CreateRequest) (LeadRequest, error) {
	if err := validateIntake(req); err != nil {
		return LeadRequest{}, err
	}

	if req.SourceIP != "" {
		ok, err := s.limiter.Allow(ctx, req.SourceIP)
		if err != nil {
			return LeadRequest{}, err
		}
		if !ok {
			return LeadRequest{}, ErrRateLimited
		}
	}

	now := s.clock().UTC()
	timing := req.Timing
	if timing == "" {
		timing = pricing.TimingFlexible
	}

	l := LeadRequest{
		ID:             uuid.NewString(),
		ServiceID:      req.ServiceID,
		Region:         req.Region,
		City:           req.City,
		PostalCode:     req.PostalCode,
		Lat:            req.Lat,
		Lng:            req.Lng,
		ContactName:    strings.TrimSpace(req.ContactName),
		ContactEmail:   strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactPhone:   normalizePhone(req.ContactPhone),
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		BudgetMinMinor: req.BudgetMinMinor,
		BudgetMaxMinor: req.BudgetMaxMinor,
		Timing:         timing,
		PropertyType:   req.PropertyType,
		IsExclusive:    req.IsExclusive,
		Source:         req.Source,
		SourceIP:       req.SourceIP,
		Status:         StatusNew,
		MaxSoldCount:   SharedMaxSoldCount,
		ExpiresAt:      now.Add(IntakeTTL),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if l.IsExclusive {
		l.MaxSoldCount = 1
	}

	if _, found, err := s.repo.FindRecentDuplicate(ctx, l.ServiceID, l.ContactPhone, l.ContactEmail, now.Add(-DedupeWindow)); err != nil {
		return LeadRequest{}, err
	} else if found {
		l.Status = StatusDuplicate
		if err := s.repo.Create(ctx, l); err != nil {
			return LeadRequest{}, err
		}
		return l, ErrDuplicate
	}

	l.QualityScore = ScoreQuality(l)
	if IsSpamScore(l.QualityScore) {
		l.Status = StatusSpam
		if err := s.repo.Create(ctx, l); err != nil {
			return LeadRequest{}, err
		}
		return l, nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return LeadRequest{}, err
	}
	quote, err := s.pricer.ResolvePrice(ctx, pricing.LeadAttributes{
		ServiceID:    l.ServiceID,
		Region:       l.Region,
		City:         l.City,
		PostalCode:   l.PostalCode,
		Timing:       l.Timing,
		BudgetMin:    l.BudgetMinMinor,
		BudgetMax:    l.BudgetMaxMinor,
		PropertyType: l.PropertyType,
		IsExclusive:  l.IsExclusive,
	}, settings.Fallback())
	if err != nil {
		return LeadRequest{}, err
	}
	l.PriceMinor = billing.ClampPrice(settings, quote.PriceMinor)
	l.RuleID = quote.RuleID

	if err := s.repo.Create(ctx, l); err != nil {
		return LeadRequest{}, err
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id string) (LeadRequest, error) {
	if id == "" {
		return LeadRequest{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]LeadRequest, error) {
	return s.repo.List(ctx, filter.withDefaults())
}

// MarkRouting transitions a lead into routing. The engine calls this before
// evaluating candidates so a concurrent second route attempt is visible.
func (s *Service) MarkRouting(ctx context.Context, id string) (LeadRequest, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return LeadRequest{}, err
	}
	if !l.Status.IsRoutable() {
		return LeadRequest{}, ErrNotRoutable
	}
	l.Status = StatusRouting
	l.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, l); err != nil {
		return LeadRequest{}, err
	}
	return l, nil
}

// FinishRouting records the routing outcome: routed when offers went out,
// closed when no provider was eligible.
func (s *Service) FinishRouting(ctx context.Context, id string, offers int) (LeadRequest, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return LeadRequest{}, err
	}
	now := s.clock().UTC()
	if offers > 0 {
		l.Status = StatusRouted
		l.RoutedAt = &now
	} else {
		l.Status = StatusClosed
	}
	l.UpdatedAt = now
	if err := s.repo.Update(ctx, l); err != nil {
		return LeadRequest{}, err
	}
	return l, nil
}

// ExpireOverdue parks still-open leads whose intake TTL has passed. Leads with
// at least one sale close instead of expiring. Returns how many changed.
func (s *Service) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	now := s.clock().UTC()
	overdue, err := s.repo.ListExpirable(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, l := range overdue {
		if l.CurrentSoldCount > 0 {
			l.Status = StatusClosed
		} else {
			l.Status = StatusExpired
		}
		l.UpdatedAt = now
		if err := s.repo.Update(ctx, l); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

/* ===================== match integration ===================== */

// Info implements matches.LeadStore.
func (s *Service) Info(ctx context.Context, leadID string) (matches.LeadInfo, error) {
	l, err := s.repo.Get(ctx, leadID)
	if err != nil {
		return matches.LeadInfo{}, err
	}
	return matches.LeadInfo{
		ID:          l.ID,
		PriceMinor:  l.PriceMinor,
		IsExclusive: l.IsExclusive,
		Status:      string(l.Status),
	}, nil
}

// ReserveSlot implements matches.LeadStore.
func (s *Service) ReserveSlot(ctx context.Context, leadID string) (matches.SlotState, error) {
	l, err := s.repo.ReserveSlot(ctx, leadID)
	if err != nil {
		return matches.SlotState{}, err
	}
	return matches.SlotState{SoldCount: l.CurrentSoldCount, MaxSoldCount: l.MaxSoldCount}, nil
}

// ReleaseSlot implements matches.LeadStore.
func (s *Service) ReleaseSlot(ctx context.Context, leadID string) error {
	_, err := s.repo.ReleaseSlot(ctx, leadID)
	return err
}

func validateIntake(req CreateRequest) error {
	if req.ServiceID == "" {
		return ErrValidation
	}
	if strings.TrimSpace(req.ContactPhone) == "" && strings.TrimSpace(req.ContactEmail) == "" {
		return ErrValidation
	}
	if email := strings.TrimSpace(req.ContactEmail); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return ErrValidation
		}
	}
	if req.BudgetMinMinor != nil && *req.BudgetMinMinor < 0 {
		return ErrValidation
	}
	if req.BudgetMaxMinor != nil && *req.BudgetMaxMinor < 0 {
		return ErrValidation
	}
	if req.BudgetMinMinor != nil && req.BudgetMaxMinor != nil && *req.BudgetMinMinor > *req.BudgetMaxMinor {
		return ErrValidation
	}
	if req.Timing != "" && !pricing.ValidTiming(req.Timing) {
		return ErrValidation
	}
	return nil
}

func normalizePhone(s string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(s) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
