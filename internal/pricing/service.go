package pricing

import (
	"context"
	"errors"
	"time"
)

// Service manages the rule store and exposes price resolution.
//
// Contract:
// - malformed rules are rejected at write time (negative base price,
//   multipliers below 1, unknown timing); resolution assumes valid rules
// - resolution is read-only
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var (
	ErrNotFound    = errors.New("pricing rule not found")
	ErrInvalidRule = errors.New("invalid pricing rule")
)

// Repository abstracts rule persistence.
type Repository interface {
	List(ctx context.Context) ([]Rule, error)
	ListActive(ctx context.Context) ([]Rule, error)
	Get(ctx context.Context, id int64) (Rule, error)
	Create(ctx context.Context, r Rule) (Rule, error)
	Update(ctx context.Context, r Rule) (Rule, error)
	Delete(ctx context.Context, id int64) error
}

func (s *Service) List(ctx context.Context) ([]Rule, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Rule, error) {
	if id <= 0 {
		return Rule{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, r Rule) (Rule, error) {
	if err := ValidateRule(r); err != nil {
		return Rule{}, err
	}
	now := s.clock().UTC()
	r.ID = 0
	r.CreatedAt = now
	r.UpdatedAt = now
	return s.repo.Create(ctx, r)
}

func (s *Service) Update(ctx context.Context, r Rule) (Rule, error) {
	if r.ID <= 0 {
		return Rule{}, ErrNotFound
	}
	if err := ValidateRule(r); err != nil {
		return Rule{}, err
	}
	existing, err := s.repo.Get(ctx, r.ID)
	if err != nil {
		return Rule{}, err
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = s.clock().UTC()
	return s.repo.Update(ctx, r)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// ResolvePrice loads active rules and resolves the lead's price.
func (s *Service) ResolvePrice(ctx context.Context, lead LeadAttributes, fb Fallback) (Quote, error) {
	rules, err := s.repo.ListActive(ctx)
	if err != nil {
		return Quote{}, err
	}
	return Resolve(lead, rules, fb), nil
}

// ValidateRule enforces write-time rule invariants.
func ValidateRule(r Rule) error {
	if r.BasePriceMinor < 0 {
		return ErrInvalidRule
	}
	if r.SurgeMultiplier != 0 && r.SurgeMultiplier < 1 {
		return ErrInvalidRule
	}
	if r.ExclusiveMultiplier != 0 && r.ExclusiveMultiplier < 1 {
		return ErrInvalidRule
	}
	if r.Timing != "" && !ValidTiming(r.Timing) {
		return ErrInvalidRule
	}
	if r.BudgetMin != nil && *r.BudgetMin < 0 {
		return ErrInvalidRule
	}
	if r.BudgetMax != nil && *r.BudgetMax < 0 {
		return ErrInvalidRule
	}
	if r.BudgetMin != nil && r.BudgetMax != nil && *r.BudgetMin > *r.BudgetMax {
		return ErrInvalidRule
	}
	return nil
}
