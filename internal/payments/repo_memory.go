package payments

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu       sync.Mutex
	packages map[string]CreditPackage
	promos   map[string]PromoCode
	payments map[string]Payment
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		packages: make(map[string]CreditPackage),
		promos:   make(map[string]PromoCode),
		payments: make(map[string]Payment),
	}
}

func (r *MemoryRepo) CreatePackage(ctx context.Context, p CreditPackage) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[p.ID] = p
	return nil
}

func (r *MemoryRepo) GetPackage(ctx context.Context, id string) (CreditPackage, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.packages[id]
	if !ok {
		return CreditPackage{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) ListPackages(ctx context.Context, activeOnly bool) ([]CreditPackage, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CreditPackage
	for _, p := range r.packages {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].PriceMinor < out[j].PriceMinor
	})
	return out, nil
}

func (r *MemoryRepo) UpdatePackage(ctx context.Context, p CreditPackage) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.packages[p.ID]; !ok {
		return ErrNotFound
	}
	r.packages[p.ID] = p
	return nil
}

func (r *MemoryRepo) CreatePromo(ctx context.Context, p PromoCode) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promos[p.ID] = p
	return nil
}

func (r *MemoryRepo) GetPromoByCode(ctx context.Context, code string) (PromoCode, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.promos {
		if strings.EqualFold(p.Code, code) {
			return p, nil
		}
	}
	return PromoCode{}, ErrNotFound
}

func (r *MemoryRepo) IncrementPromoUse(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return ErrNotFound
	}
	if p.MaxUses > 0 && p.UsedCount >= p.MaxUses {
		return ErrPromoExhausted
	}
	p.UsedCount++
	r.promos[id] = p
	return nil
}

func (r *MemoryRepo) CreatePayment(ctx context.Context, p Payment) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = p
	return nil
}

func (r *MemoryRepo) GetPayment(ctx context.Context, id string) (Payment, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) UpdatePayment(ctx context.Context, p Payment) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; !ok {
		return ErrNotFound
	}
	r.payments[p.ID] = p
	return nil
}

func (r *MemoryRepo) ListPayments(ctx context.Context, companyID string, limit, offset int) ([]Payment, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Payment
	for _, p := range r.payments {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
