package matches

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
	mu      sync.Mutex
	matches map[string]Match
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{matches: make(map[string]Match)}
}

func (r *MemoryRepo) Create(ctx context.Context, m Match) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = m
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, companyID, id string) (Match, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok || m.CompanyID != companyID {
		return Match{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepo) Update(ctx context.Context, m Match) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; !ok {
		return ErrNotFound
	}
	r.matches[m.ID] = m
	return nil
}

func (r *MemoryRepo) ClaimForAccept(ctx context.Context, companyID, id string, at time.Time) (Match, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok || m.CompanyID != companyID {
		return Match{}, ErrNotFound
	}
	if !m.Status.CanAccept() {
		return Match{}, ErrNotOpen
	}
	m.Status = StatusAccepted
	m.AcceptedAt = &at
	m.ResponseTimeMinutes = int(at.Sub(m.OfferedAt) / time.Minute)
	m.UpdatedAt = at
	r.matches[id] = m
	return m, nil
}

func (r *MemoryRepo) ListByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Match, error) {
	_ = ctx
	filter = filter.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Match
	for _, m := range r.matches {
		if m.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, m)
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

func (r *MemoryRepo) ListByLead(ctx context.Context, leadID string) ([]Match, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Match
	for _, m := range r.matches {
		if m.LeadID == leadID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) ExpireOpenSiblings(ctx context.Context, leadID, keepID string, at time.Time) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, m := range r.matches {
		if m.LeadID != leadID || id == keepID || !m.Status.IsOpenOffer() {
			continue
		}
		m.Status = StatusExpired
		m.UpdatedAt = at
		r.matches[id] = m
		n++
	}
	return n, nil
}

func (r *MemoryRepo) ListExpiredOpen(ctx context.Context, cutoff time.Time, limit int) ([]Match, error) {
	_ = ctx
	if limit <= 0 {
		limit = 100
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Match
	for _, m := range r.matches {
		if !m.Status.IsOpenOffer() || !m.ExpiresAt.Before(cutoff) {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
