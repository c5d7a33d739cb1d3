package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]CallLog // keyed by id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{calls: make(map[string]CallLog)}
}

func (r *MemoryRepo) Create(ctx context.Context, c CallLog) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, companyID, id string) (CallLog, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok || c.CompanyID != companyID {
		return CallLog{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) FindByProviderCallID(ctx context.Context, providerCallID string) (CallLog, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.ProviderCallID == providerCallID {
			return c, true, nil
		}
	}
	return CallLog{}, false, nil
}

func (r *MemoryRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]CallLog, error) {
	_ = ctx
	filter = filter.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []CallLog
	for _, c := range r.calls {
		if c.CompanyID != companyID {
			continue
		}
		if filter.BillingStatus != "" && c.BillingStatus != filter.BillingStatus {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, c CallLog) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.ID]; !ok {
		return ErrNotFound
	}
	r.calls[c.ID] = c
	return nil
}

func (r *MemoryRepo) ListDisputeLockCandidates(ctx context.Context, cutoff time.Time, limit int) ([]CallLog, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []CallLog
	for _, c := range r.calls {
		if c.BillingStatus != BillingStatusBilled {
			continue
		}
		if c.DisputeLockedAt != nil {
			continue
		}
		if c.BilledAt == nil || !c.BilledAt.Before(cutoff) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
