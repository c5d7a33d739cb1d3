package disputes

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is a simple in-memory repository useful for tests and early development.
//
// NOTE: This is not intended for production; use PostgresRepo.
type MemoryRepo struct {
	mu       sync.Mutex
	disputes map[string]Dispute
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{disputes: make(map[string]Dispute)}
}

func (r *MemoryRepo) Create(ctx context.Context, d Dispute) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disputes[d.ID] = d
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, companyID, id string) (Dispute, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok || d.CompanyID != companyID {
		return Dispute{}, ErrNotFound
	}
	return d, nil
}

func (r *MemoryRepo) Update(ctx context.Context, d Dispute) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.disputes[d.ID]; !ok {
		return ErrNotFound
	}
	r.disputes[d.ID] = d
	return nil
}

func (r *MemoryRepo) HasOpen(ctx context.Context, callLogID string) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.disputes {
		if d.CallLogID == callLogID && !d.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) List(ctx context.Context, companyID string, filter ListFilter) ([]Dispute, error) {
	_ = ctx
	filter = filter.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Dispute
	for _, d := range r.disputes {
		if d.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
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
